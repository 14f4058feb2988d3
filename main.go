package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	collectionscli "github.com/mrlokans/collections/internal/cli"
	"github.com/mrlokans/collections/internal/config"
	"github.com/mrlokans/collections/internal/entrypoint"
	"github.com/mrlokans/collections/internal/logging"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()

	app := &cli.App{
		Name:    "collections",
		Usage:   "Company collections service with background transfers",
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "db",
				Value:       cfg.Database.Path,
				Usage:       "Path to the SQLite database",
				Destination: &cfg.Database.Path,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Value:       cfg.Log.Level,
				Usage:       "Log level (debug, info, warn, error)",
				Destination: &cfg.Log.Level,
			},
		},
		Action: func(c *cli.Context) error {
			return serve(cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server (default if no command given)",
				Action: func(c *cli.Context) error {
					return serve(cfg)
				},
			},
			{
				Name:   "seed",
				Usage:  "Load companies and collection memberships into the database",
				Action: func(c *cli.Context) error { return seed(c, cfg) },
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "YAML fixture with companies and collections",
					},
					&cli.IntFlag{
						Name:  "companies",
						Usage: "Generate N companies into My List instead of reading a fixture",
					},
				},
			},
			{
				Name:   "transfer",
				Usage:  "Run a transfer locally and show its progress",
				Action: func(c *cli.Context) error { return runTransfer(c, cfg) },
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Source collection id or name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target",
						Usage:    "Target collection id or name",
						Required: true,
					},
					&cli.IntSliceFlag{
						Name:     "ids",
						Usage:    "Company ids to transfer, comma separated",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	logger := logging.New(os.Stderr, cfg.Log.Level)
	return entrypoint.Run(cfg, Version, logger)
}

func seed(c *cli.Context, cfg *config.Config) error {
	logger := logging.New(os.Stderr, cfg.Log.Level)

	var fixture *collectionscli.Fixture
	switch {
	case c.String("file") != "":
		f, err := collectionscli.LoadFixture(c.String("file"))
		if err != nil {
			return err
		}
		fixture = f
	case c.Int("companies") > 0:
		fixture = collectionscli.GenerateFixture(c.Int("companies"), cfg.Collections.MyListName, cfg.Collections.LikedName)
	default:
		return cli.Exit("either --file or --companies is required", 1)
	}

	app, err := entrypoint.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	summary, err := collectionscli.NewSeeder(app.DB, cfg.Collections.LikedName, logger).Apply(fixture)
	if err != nil {
		return err
	}
	logger.Info("seed complete", "companies", summary.Companies, "collections", len(summary.Memberships))
	return nil
}

func runTransfer(c *cli.Context, cfg *config.Config) error {
	logger := logging.New(os.Stderr, cfg.Log.Level)

	app, err := entrypoint.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &collectionscli.TransferCommand{
		Source:     c.String("source"),
		Target:     c.String("target"),
		CompanyIDs: c.IntSlice("ids"),
		Out:        os.Stderr,
	}
	result, err := cmd.Run(ctx, app.Engine, app.Collections)
	if result.Total > 0 {
		fmt.Println(collectionscli.FormatResult(result))
	}
	return err
}
