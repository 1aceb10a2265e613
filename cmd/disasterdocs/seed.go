package main

import (
	"context"
	"fmt"

	"disasterdocs/internal/db"
	"disasterdocs/internal/seed"
	"disasterdocs/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo submissions",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "print",
			Usage: "Print the parsed seed records instead of writing them",
		},
	},
	Action: func(c *cli.Context) error {
		if c.Bool("print") {
			submissions, err := seed.Submissions()
			if err != nil {
				return err
			}
			pp.Println(submissions)
			return nil
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		// Connect to database
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		submissionRepo := store.NewSubmissionRepository(pool)

		logrus.Info("Seeding submissions...")
		if err := seed.SeedSubmissions(ctx, submissionRepo); err != nil {
			return fmt.Errorf("failed to seed submissions: %w", err)
		}

		logrus.Info("Submissions seeded successfully")

		return nil
	},
}
