// cmd/snapshot/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/repository/postgres"
	"github.com/haysimo/siteops/internal/service"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "snapshot",
		Usage: "Export and restore the full dataset as a JSON snapshot",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write the full dataset to a snapshot file",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output file (default: siteops-<timestamp>.json)",
					},
				},
				Action: runExport,
			},
			{
				Name:  "import",
				Usage: "Replace the full dataset with a snapshot file",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "in",
						Usage:    "Snapshot file to restore",
						Required: true,
					},
				},
				Action: runImport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openSnapshotService(c *cli.Context) (*service.SnapshotService, func(), error) {
	db, err := postgres.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := postgres.NewStore(db)
	if err := store.Migrate(c.Context); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	snapshots := service.NewSnapshotService(store, cache.NewNoopAuditCache())
	return snapshots, func() { db.Close() }, nil
}

func runExport(c *cli.Context) error {
	snapshots, closeDB, err := openSnapshotService(c)
	if err != nil {
		return err
	}
	defer closeDB()

	data, err := snapshots.Export(c.Context)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	out := c.String("out")
	if out == "" {
		out = fmt.Sprintf("siteops-%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"))
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Printf("Snapshot written to %s (%d bytes)", out, len(data))
	return nil
}

func runImport(c *cli.Context) error {
	snapshots, closeDB, err := openSnapshotService(c)
	if err != nil {
		return err
	}
	defer closeDB()

	data, err := os.ReadFile(c.String("in"))
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := snapshots.Import(c.Context, data); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	log.Println("Snapshot restored")
	return nil
}
