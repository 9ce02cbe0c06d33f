package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"classroom-scores/internal/config"
	"classroom-scores/internal/db"

	"github.com/golang-migrate/migrate/v4"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the scores database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "path to the SQLite file",
				EnvVars: []string{"DATABASE_PATH"},
				Value:   config.Default().DatabasePath,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return withDB(c, func(conn *gorm.DB) error {
						return db.Migrate(conn)
					})
				},
			},
			{
				Name:      "down",
				Usage:     "roll back the given number of migrations",
				ArgsUsage: "[steps]",
				Action: func(c *cli.Context) error {
					steps := 1
					if raw := c.Args().First(); raw != "" {
						n, err := strconv.Atoi(raw)
						if err != nil || n <= 0 {
							return fmt.Errorf("invalid step count %q", raw)
						}
						steps = n
					}
					return withMigrator(c, func(m *migrate.Migrate) error {
						if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
							return err
						}
						log.Printf("rolled back %d migration(s)", steps)
						return nil
					})
				},
			},
			{
				Name:  "version",
				Usage: "print the recorded schema version",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *migrate.Migrate) error {
						version, dirty, err := m.Version()
						if errors.Is(err, migrate.ErrNilVersion) {
							fmt.Println("no migrations recorded")
							return nil
						}
						if err != nil {
							return err
						}
						fmt.Printf("version=%d dirty=%t\n", version, dirty)
						return nil
					})
				},
			},
			{
				Name:      "force",
				Usage:     "record a version without running migrations",
				ArgsUsage: "<version>",
				Action: func(c *cli.Context) error {
					version, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return fmt.Errorf("version is required: %w", err)
					}
					return withMigrator(c, func(m *migrate.Migrate) error {
						if err := m.Force(version); err != nil {
							return err
						}
						log.Printf("forced version=%d", version)
						return nil
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
}

func withDB(c *cli.Context, fn func(conn *gorm.DB) error) error {
	conn, err := db.Open(c.String("database"), config.Default())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	return fn(conn)
}

func withMigrator(c *cli.Context, fn func(m *migrate.Migrate) error) error {
	return withDB(c, func(conn *gorm.DB) error {
		m, err := db.NewMigrator(conn)
		if err != nil {
			return err
		}
		return fn(m)
	})
}
