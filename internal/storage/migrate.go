package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"budgetmaster/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema of db up to date.
//
// The sqlite driver migrates over db itself so in-memory databases work; its
// Close would close db, so only the source is closed. Postgres migrates over
// a separate connection opened from dsn, as the pgx driver pins a connection
// for its advisory lock.
func RunMigrations(db *sql.DB, dialect, dsn string) error {
	d, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	defer d.Close()

	var (
		driver database.Driver
		m      *migrate.Migrate
	)
	switch dialect {
	case config.DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("create sqlite driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", d, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("create migrate instance: %w", err)
		}

	case config.DialectPostgres:
		migrateDB, err := sql.Open(driverName(dialect), dsn)
		if err != nil {
			return fmt.Errorf("open migration database: %w", err)
		}
		driver, err = migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
		if err != nil {
			migrateDB.Close()
			return fmt.Errorf("create pgx driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", d, "pgx5", driver)
		if err != nil {
			driver.Close()
			return fmt.Errorf("create migrate instance: %w", err)
		}
		defer m.Close()

	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
