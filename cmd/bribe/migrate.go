package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/EnzoTheBrown/bribe/internal/app/migrate"
	"github.com/EnzoTheBrown/bribe/internal/app/store"
	"github.com/EnzoTheBrown/bribe/pkg/config"
	"github.com/EnzoTheBrown/bribe/pkg/logger"
)

func migrateCmd() *cli.Command {
	var timeout time.Duration
	var target int64
	withRunner := func(fn func(ctx context.Context, c *cli.Context, runner migrate.Runner) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, err := config.LoadAPIConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.DatabaseURL) == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx, cancel := context.WithTimeout(c.Context, timeout)
			defer cancel()

			st, err := store.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()
			runner, err := migrate.New(st.DB, st.Dialect, logger.New("migrate", slog.LevelInfo))
			if err != nil {
				return err
			}
			return fn(ctx, c, runner)
		}
	}
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema (reads DATABASE_URL)",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "Command timeout",
				Value:       time.Minute,
				Destination: &timeout,
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Action: withRunner(func(ctx context.Context, _ *cli.Context, runner migrate.Runner) error {
					return runner.Ensure(ctx)
				}),
			},
			{
				Name:  "status",
				Usage: "List applied and pending migrations",
				Action: withRunner(func(ctx context.Context, c *cli.Context, runner migrate.Runner) error {
					statuses, err := runner.Status(ctx)
					if err != nil {
						return err
					}
					for _, st := range statuses {
						fmt.Fprintf(c.App.Writer, "%05d\t%s\t%s\n", st.Source.Version, st.State, st.Source.Path)
					}
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the latest migration, or down to --target",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:        "target",
						Usage:       "Version to roll back to (0 rolls back one step)",
						Destination: &target,
					},
				},
				Action: withRunner(func(ctx context.Context, _ *cli.Context, runner migrate.Runner) error {
					return runner.Down(ctx, target)
				}),
			},
		},
	}
}
