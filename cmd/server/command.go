package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"propindex/pkg/api"
	"propindex/pkg/config"
	"propindex/pkg/core"
	"propindex/pkg/logging"
	"propindex/pkg/network"
	"propindex/pkg/storage"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "propindex-server",
		Usage: "serve a property listing index over TCP and HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "config file (.yaml or .toml); flags override its values",
				OnlyOnce: true,
				Sources:  cli.EnvVars("PROPINDEX_CONFIG"),
			},
			&cli.StringFlag{
				Name:     "dataset",
				Aliases:  []string{"d"},
				Usage:    "listings to index at startup (.csv or SQLite)",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     "http",
				Usage:    "HTTP listen address",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     "tcp",
				Usage:    "binary protocol listen address",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      "engine",
				Usage:     "index engine: avl or btree",
				OnlyOnce:  true,
				Validator: validateEngine,
			},
			&cli.StringFlag{
				Name:     "log-level",
				Usage:    "debug, info, warn or error",
				OnlyOnce: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "copy a CSV dataset into a SQLite table",
				ArgsUsage: "<listings.csv> <listings.db>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "table",
						Usage: "destination table",
						Value: "properties",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("usage: import <listings.csv> <listings.db>")
					}
					written, skipped, err := storage.Import(cmd.Args().Get(0), cmd.Args().Get(1), cmd.String("table"))
					if err != nil {
						return err
					}
					pterm.Success.Printfln("imported %d listings into %s (%d rows skipped)", written, cmd.Args().Get(1), skipped)
					return nil
				},
			},
		},
	}
}

func validateEngine(v string) error {
	switch v {
	case "avl", "btree":
		return nil
	default:
		return fmt.Errorf("engine must be avl or btree, got %q", v)
	}
}

// loadConfig reads the config file, then applies flags that were set.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.IsSet("dataset") {
		cfg.Dataset.Path = cmd.String("dataset")
	}
	if cmd.IsSet("http") {
		cfg.Server.Addr = cmd.String("http")
	}
	if cmd.IsSet("tcp") {
		cfg.Server.TCPAddr = cmd.String("tcp")
	}
	if cmd.IsSet("engine") {
		cfg.Index.Engine = cmd.String("engine")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	store, err := core.NewStore(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Dataset.Path != "" {
		src, err := storage.Open(cfg.Dataset.Path, cfg.Dataset.Table)
		if err != nil {
			return err
		}
		start := time.Now()
		n, err := store.Load(src)
		src.Close()
		if err != nil {
			return err
		}
		if csvSrc, ok := src.(*storage.CSVSource); ok && csvSrc.Skipped() > 0 {
			logger.Warn("dataset rows skipped", "path", cfg.Dataset.Path, "skipped", csvSrc.Skipped())
		}
		logger.Info("index ready", "records", n, "elapsed", time.Since(start).String())
	}

	tcp := network.NewTCPServer(store, logger)
	httpSrv := api.NewServer(store, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- tcp.Start(cfg.Server.TCPAddr) }()
	go func() { errCh <- httpSrv.Start(cfg.Server.Addr) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(err, httpSrv.Shutdown(shutdownCtx), tcp.Close())
}
