package main

import (
	"fmt"
	"io"

	"disasterdocs/internal/utils"

	"github.com/urfave/cli/v2"
)

var nanoidCommand = &cli.Command{
	Name:  "nanoid",
	Usage: "Generate submission IDs for use in seed files",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of IDs to generate",
			Value:   1,
		},
		&cli.BoolFlag{
			Name:  "yaml",
			Usage: "Print each ID as a stub entry for internal/seed/submissions.yaml",
		},
	},
	Action: func(c *cli.Context) error {
		count := c.Int("count")
		if count < 1 {
			return fmt.Errorf("count must be at least 1, got %d", count)
		}
		return writeIDs(c.App.Writer, count, c.Bool("yaml"))
	},
}

func writeIDs(w io.Writer, count int, asYAML bool) error {
	for range count {
		id := utils.NanoID()
		line := id + "\n"
		if asYAML {
			line = fmt.Sprintf("- id: %s\n  title: \"\"\n  artifactType: photo\n  approved: false\n", id)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}
