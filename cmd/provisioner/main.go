// provisioner runs the server-side account creation endpoint. It shares the
// identity store with checkin-server but listens on its own address so it
// can sit behind a separate trust boundary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ufacm/checkin/internal/bootstrap"
	"github.com/ufacm/checkin/internal/config"
	"github.com/ufacm/checkin/internal/logging"
	"github.com/ufacm/checkin/provision"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("provisioner", pflag.ContinueOnError)
	configPath := flagSet.StringP("config", "c", "", "path to a YAML configuration file")
	dev := flagSet.Bool("dev", false, "in-memory redis, generated secret, codes logged instead of mailed")
	addr := flagSet.String("addr", "", "listen address (overrides provision.addr)")
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
		cfg.Provision.Addr = *addr
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := bootstrap.NewRuntime(ctx, cfg, logger, bootstrap.Options{Dev: *dev})
	if err != nil {
		return err
	}
	defer rt.Close()

	provisioner, err := provision.New(rt.Engine,
		provision.WithValidator(rt.Engine.Validator()),
		provision.WithLogger(logger.With().Str("component", "provision").Logger()),
	)
	if err != nil {
		return err
	}

	return rt.Serve(ctx, bootstrap.NewServer(cfg.Provision.Addr, provisioner.Router()))
}
