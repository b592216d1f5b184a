package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"fbmp/internal/config"
	"fbmp/internal/database/postgresql"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Exit codes for the migrate command.
const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: migrate <up|down>")
		return exitFailure
	}

	direction := args[0]
	if direction != "up" && direction != "down" {
		fmt.Fprintf(os.Stderr, "Invalid direction: %q (must be \"up\" or \"down\")\n", direction)
		return exitFailure
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}

	dsn, err := migrateURL(cfg.Store.URL, cfg.Store.Key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid store url: %v\n", err)
		return exitFailure
	}

	source, err := iofs.New(postgresql.Migrations, "migrations")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open embedded migrations: %v\n", err)
		return exitFailure
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrate instance: %v\n", err)
		return exitFailure
	}
	defer func() { _, _ = m.Close() }()

	if err := runMigration(m, direction); err != nil {
		fmt.Fprintf(os.Stderr, "Migration %s failed: %v\n", direction, err)
		return exitFailure
	}

	fmt.Printf("Migration %s completed successfully\n", direction)
	return exitSuccess
}

// migrateURL rewrites a postgres:// store URL to the pgx5:// scheme the
// golang-migrate pgx driver registers under.
func migrateURL(storeURL, key string) (string, error) {
	dsn, err := postgresql.ConnString(storeURL, key)
	if err != nil {
		return "", err
	}

	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest, nil
		}
	}
	return "", fmt.Errorf("migrations need a postgres:// store url, got %q", redactScheme(dsn))
}

func redactScheme(dsn string) string {
	scheme, _, _ := strings.Cut(dsn, "://")
	return scheme + "://..."
}

// runMigration executes the migration in the specified direction.
func runMigration(m *migrate.Migrate, direction string) error {
	var err error

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to apply")
		return nil
	}

	return err
}
