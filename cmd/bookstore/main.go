package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/safar/go-bookstore/internal/config"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/logger"
)

// env is shared by every command; Before fills it in.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *sql.DB
}

func (e *env) connect() (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := database.NewConnection(&e.cfg.Database)
	if err != nil {
		return nil, err
	}
	e.log.Debug("connected to database", zap.String("database", e.cfg.Database.Name))
	e.db = db
	return db, nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
	}
	if e.log != nil {
		e.log.Sync()
	}
}

func main() {
	e := &env{}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.App{
		Name:  "bookstore",
		Usage: "provision and maintain the bookstore database",
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if level := c.String("log-level"); level != "" {
				cfg.Log.Level = level
			}
			e.cfg = cfg
			e.log = logger.New(cfg.Log)
			return nil
		},
		After: func(c *cli.Context) error {
			e.close()
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "override LOG_LEVEL"},
		},
		Commands: []*cli.Command{
			migrateCommand(e),
			seedCommand(e),
			setupCommand(e),
			healthCommand(e),
			statsCommand(e),
			imagesCommand(e),
			reconcileCommand(e),
			maintainCommand(e),
		},
	}

	err := app.RunContext(ctx, os.Args)
	stop()
	if err != nil {
		if e.log != nil {
			e.log.Error("command failed", zap.Error(err))
			e.log.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
