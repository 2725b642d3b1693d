// Package bootstrap wires configuration, Redis, the code sender and the
// engine for the check-in binaries, and runs their HTTP servers until a
// shutdown signal.
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/internal/config"
	"github.com/ufacm/checkin/mailer"
)

// Options adjust NewRuntime.
type Options struct {
	// Dev runs against an in-memory Redis, generates a throwaway session
	// secret when none is configured and logs codes instead of mailing them.
	Dev bool
	// Sender overrides the sender selected by the mail mode.
	Sender checkin.CodeSender
}

// Runtime owns the long-lived dependencies of a binary.
type Runtime struct {
	Config config.Config
	Logger zerolog.Logger
	Engine *checkin.Engine

	redis *redis.Client
	mini  *miniredis.Miniredis
}

func NewRuntime(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts Options) (*Runtime, error) {
	r := &Runtime{Config: cfg, Logger: logger}

	if opts.Dev {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start in-memory redis: %w", err)
		}
		r.mini = mr
		cfg.Redis = config.RedisConfig{Addr: mr.Addr()}
		cfg.Mail.Mode = "log"
		if !cfg.HasSessionKeys() {
			secret, err := randomSecret()
			if err != nil {
				r.Close()
				return nil, err
			}
			cfg.Session.Secret = secret
		}
		logger.Warn().Str("redis_addr", mr.Addr()).Msg("bootstrap: dev mode, state is not persisted")
	}

	r.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.redis.Ping(pingCtx).Err(); err != nil {
		r.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}

	sender := opts.Sender
	if sender == nil {
		var err error
		sender, err = newSender(cfg, logger)
		if err != nil {
			r.Close()
			return nil, err
		}
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		r.Close()
		return nil, err
	}

	builder := checkin.New().
		WithConfig(engineCfg).
		WithRedis(r.redis).
		WithSender(sender).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(checkin.NewZerologSink(logger.With().Str("component", "audit").Logger()))
	}

	engine, err := builder.Build()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	r.Engine = engine
	r.Config = cfg
	return r, nil
}

func newSender(cfg config.Config, logger zerolog.Logger) (checkin.CodeSender, error) {
	if cfg.Mail.Mode != "smtp" {
		return mailer.NewLogSender(logger), nil
	}
	smtpCfg, err := mailer.LoadSMTPConfig()
	if err != nil {
		return nil, err
	}
	return mailer.NewSMTPSender(smtpCfg)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Serve runs every server until ctx ends, SIGINT or SIGTERM arrives, or one
// of them fails, then shuts all of them down.
func (r *Runtime) Serve(ctx context.Context, servers ...*http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			r.Logger.Info().Str("addr", srv.Addr).Msg("http server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		r.Logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		r.Logger.Error().Err(serveErr).Msg("server failure")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.Config.Server.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.Logger.Warn().Err(err).Str("addr", srv.Addr).Msg("http server shutdown")
		}
	}
	return serveErr
}

// Close flushes the engine and releases Redis.
func (r *Runtime) Close() {
	if r.Engine != nil {
		r.Engine.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	if r.mini != nil {
		r.mini.Close()
	}
}

// NewServer applies the timeouts every binary uses.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
