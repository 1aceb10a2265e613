package main

import (
	"fmt"

	"disasterdocs/internal/db"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply or roll back database migrations",
	Subcommands: []*cli.Command{
		{
			Name:   "up",
			Usage:  "Apply all pending migrations",
			Action: runMigrations(true),
		},
		{
			Name:   "down",
			Usage:  "Roll back all migrations",
			Action: runMigrations(false),
		},
	},
}

func runMigrations(up bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := db.Migrate(cfg.DatabaseURL, up); err != nil {
			return err
		}

		logrus.WithField("up", up).Info("migrations complete")
		return nil
	}
}
