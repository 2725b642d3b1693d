// checkin-server serves the guarded check-in pages and the auth-flow API.
//
// Configuration comes from an optional YAML file (--config) overlaid with
// CHECKIN_* environment variables. --dev runs against an in-memory Redis
// with a throwaway signing secret and logs codes instead of mailing them.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/ufacm/checkin/internal/bootstrap"
	"github.com/ufacm/checkin/internal/config"
	"github.com/ufacm/checkin/internal/httpapi"
	"github.com/ufacm/checkin/internal/logging"
	checkinotel "github.com/ufacm/checkin/metrics/export/otel"
	"github.com/ufacm/checkin/metrics/export/prometheus"
	"github.com/ufacm/checkin/middleware"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("checkin-server", pflag.ContinueOnError)
	configPath := flagSet.StringP("config", "c", "", "path to a YAML configuration file")
	dev := flagSet.Bool("dev", false, "in-memory redis, generated secret, codes logged instead of mailed")
	addr := flagSet.String("addr", "", "listen address (overrides server.addr)")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dev {
		cfg.Server.CookieSecure = false
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	orgs, err := httpapi.LoadOrganizations(cfg.Pages.OrganizationsFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := bootstrap.NewRuntime(ctx, cfg, logger, bootstrap.Options{Dev: *dev})
	if err != nil {
		return err
	}
	defer rt.Close()

	router := httpapi.NewRouter(rt.Engine, httpapi.Options{
		Routes: middleware.RouteConfig{CookieName: cfg.Server.CookieName},
		Cookie: middleware.CookieOptions{
			Name:   cfg.Server.CookieName,
			Secure: cfg.Server.CookieSecure,
		},
		Organizations: orgs,
		Logger:        logger.With().Str("component", "http").Logger(),
	})
	servers := []*http.Server{bootstrap.NewServer(cfg.Server.Addr, router)}

	if cfg.Metrics.Enabled {
		exporter, err := checkinotel.New(otel.GetMeterProvider().Meter("github.com/ufacm/checkin"), rt.Engine)
		if err != nil {
			return err
		}
		defer func() { _ = exporter.Close() }()

		if cfg.Metrics.Addr != "" {
			servers = append(servers, bootstrap.NewServer(cfg.Metrics.Addr, metricsRouter(rt, logger)))
		}
	}

	return rt.Serve(ctx, servers...)
}

func metricsRouter(rt *bootstrap.Runtime, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", prometheus.New(rt.Engine).Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	logger.Info().Str("addr", rt.Config.Metrics.Addr).Msg("metrics endpoint enabled")
	return r
}
