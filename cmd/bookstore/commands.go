package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/maintenance"
	"github.com/safar/go-bookstore/internal/seed"
	"github.com/safar/go-bookstore/internal/store"
	"github.com/safar/go-bookstore/migrations"
)

func migrateCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply or revert schema migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply every pending migration",
				Action: func(c *cli.Context) error {
					db, err := e.connect()
					if err != nil {
						return err
					}
					n, err := database.MigrateUp(c.Context, db, migrations.FS, e.log)
					if err != nil {
						return err
					}
					e.log.Info("migrations applied", zap.Int("count", n))
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "revert the latest migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "how many to revert, 0 reverts all"},
				},
				Action: func(c *cli.Context) error {
					db, err := e.connect()
					if err != nil {
						return err
					}
					n, err := database.MigrateDown(c.Context, db, migrations.FS, c.Int("steps"), e.log)
					if err != nil {
						return err
					}
					e.log.Info("migrations reverted", zap.Int("count", n))
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "list applied and pending migrations",
				Action: func(c *cli.Context) error {
					db, err := e.connect()
					if err != nil {
						return err
					}
					statuses, err := database.MigrationStatuses(c.Context, db, migrations.FS)
					if err != nil {
						return err
					}
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied " + s.AppliedAt.Format("2006-01-02 15:04:05")
						}
						fmt.Fprintf(c.App.Writer, "%s_%s\t%s\n", s.Version, s.Name, state)
					}
					return nil
				},
			},
		},
	}
}

func seedCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load reference data and sample catalog",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-sample", Usage: "skip sample books and vouchers"},
		},
		Action: func(c *cli.Context) error {
			db, err := e.connect()
			if err != nil {
				return err
			}
			cfg := e.cfg.Seed
			if c.Bool("no-sample") {
				cfg.SampleCatalog = false
			}
			_, err = seed.Run(c.Context, db, cfg, e.log)
			return err
		},
	}
}

// setupCommand brings an empty database to a usable state in one step.
func setupCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "migrate, seed and check health",
		Action: func(c *cli.Context) error {
			db, err := e.connect()
			if err != nil {
				return err
			}
			e.log.Info("database connection ok", zap.String("database", e.cfg.Database.Name))

			if _, err := database.MigrateUp(c.Context, db, migrations.FS, e.log); err != nil {
				return err
			}
			if _, err := seed.Run(c.Context, db, e.cfg.Seed, e.log); err != nil {
				return err
			}
			return logHealth(c, e)
		},
	}
}

func healthCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "check connectivity and report table and connection counts",
		Action: func(c *cli.Context) error {
			return logHealth(c, e)
		},
	}
}

func logHealth(c *cli.Context, e *env) error {
	db, err := e.connect()
	if err != nil {
		return err
	}
	h, err := database.CheckHealth(c.Context, db)
	if err != nil {
		return err
	}
	e.log.Info("database healthy",
		zap.String("database", h.Database),
		zap.String("version", h.Version),
		zap.Int("tables", h.Tables),
		zap.Int("active_connections", h.ActiveConnections),
		zap.Duration("latency", h.Latency))
	return nil
}

func statsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print store totals as JSON",
		Action: func(c *cli.Context) error {
			db, err := e.connect()
			if err != nil {
				return err
			}
			stats, err := store.CollectStats(c.Context, db)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}

func imagesCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "images",
		Usage: "book image maintenance",
		Subcommands: []*cli.Command{
			{
				Name:  "rebase",
				Usage: "prefix relative image paths with a base URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "base-url", Usage: "defaults to IMAGE_BASE_URL"},
				},
				Action: func(c *cli.Context) error {
					base := c.String("base-url")
					if base == "" {
						base = e.cfg.App.ImageBaseURL
					}
					if base == "" {
						return cli.Exit("no base URL: pass --base-url or set IMAGE_BASE_URL", 2)
					}

					db, err := e.connect()
					if err != nil {
						return err
					}
					n, err := store.RebaseImageURLs(c.Context, db, base)
					if err != nil {
						return err
					}
					e.log.Info("image urls rebased", zap.String("base_url", base), zap.Int("updated", n))
					return nil
				},
			},
		},
	}
}

func reconcileCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "run a maintenance job once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "job",
				Value: maintenance.JobReconcileRatings,
				Usage: fmt.Sprintf("one of %s, %s, %s",
					maintenance.JobReconcileRatings, maintenance.JobPurgeTokens, maintenance.JobExpireGuestCarts),
			},
		},
		Action: func(c *cli.Context) error {
			db, err := e.connect()
			if err != nil {
				return err
			}
			jobs := maintenance.Jobs(db, e.cfg.Maintenance, e.log)
			return maintenance.RunJob(c.Context, jobs, c.String("job"))
		},
	}
}

func maintainCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "maintain",
		Usage: "run maintenance jobs on their schedules until interrupted",
		Action: func(c *cli.Context) error {
			db, err := e.connect()
			if err != nil {
				return err
			}
			s, err := maintenance.NewScheduler(e.log, maintenance.Jobs(db, e.cfg.Maintenance, e.log))
			if err != nil {
				return err
			}
			s.Run(c.Context)
			return nil
		},
	}
}

