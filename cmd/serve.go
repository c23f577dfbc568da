package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/retrueque/internal/api"
	"github.com/retrueque/internal/chat"
	"github.com/retrueque/internal/config"
	"github.com/retrueque/internal/database"
	"github.com/retrueque/internal/jobqueue"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the Retrueque API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-jobs",
				Usage: "Run without the background notification workers",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port := c.Int("port"); port > 0 {
		cfg.Server.Port = port
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDB(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(c.Context, db); err != nil {
		return err
	}

	var notifier chat.Notifier
	if !c.Bool("no-jobs") {
		dbURL := cfg.Database.URL
		if dbURL == "" {
			dbURL, err = database.LoadDatabaseURL()
			if err != nil {
				return err
			}
		}

		queue, err := jobqueue.NewJobQueue(dbURL, 0)
		if err != nil {
			return fmt.Errorf("failed to create job queue: %w", err)
		}
		if err := queue.Start(c.Context); err != nil {
			return fmt.Errorf("failed to start job queue: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := queue.Stop(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to stop job queue cleanly")
			}
		}()
		notifier = queue
	}

	server := api.NewServer(cfg, db, notifier)
	return server.Start()
}
