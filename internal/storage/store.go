package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"budgetmaster/internal/config"
	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
)

// Store is the relational persistence for users, categories, limits,
// expenses and notifications. Its embedded Queries run outside any
// transaction; WithTx hands out a transactional copy.
type Store struct {
	*Queries
	db      *sql.DB
	dialect string
	logger  *log.Logger
}

// Open connects, migrates and seeds the category catalogue.
func Open(ctx context.Context, cfg config.Database, logger *log.Logger) (*Store, error) {
	logger = logger.WithComponent(log.ComponentStorage)

	dsn := cfg.DSN
	if cfg.Dialect == config.DialectSQLite {
		dsn = sqliteDSN(cfg.DSN)
	}

	db, err := sql.Open(driverName(cfg.Dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}

	if cfg.Dialect == config.DialectSQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY churn
		// and keeps :memory: databases alive for the life of the pool.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db, cfg.Dialect, cfg.DSN); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		Queries: newQueries(db, cfg.Dialect),
		db:      db,
		dialect: cfg.Dialect,
		logger:  logger,
	}

	seeded, err := s.SeedCategories(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if seeded > 0 {
		logger.Info("Seeded default categories", log.FieldOperation, log.OpSeed, "count", seeded)
	}

	logger.Info("Database ready", "dialect", cfg.Dialect)
	return s, nil
}

func (s *Store) Dialect() string { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WithTx runs fn in a transaction, committing when it returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	q := &Queries{db: tx, rebind: s.Queries.rebind, now: s.Queries.now}
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Rollback failed", log.FieldError, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SeedCategories inserts the default catalogue when the table is empty and
// returns how many rows were added.
func (s *Store) SeedCategories(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	err := s.WithTx(ctx, func(q *Queries) error {
		for _, c := range core.DefaultCategories() {
			res, err := q.exec(ctx,
				`INSERT INTO categories (name, icon, color) VALUES (?, ?, ?)
				 ON CONFLICT(name) DO NOTHING`,
				c.Name, c.Icon, c.Color)
			if err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
		return nil
	})
	return inserted, err
}

func driverName(dialect string) string {
	if dialect == config.DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

func sqliteDSN(path string) string {
	pragmas := []string{"busy_timeout(5000)", "foreign_keys(1)"}
	if path != ":memory:" {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}
	var b strings.Builder
	b.WriteString(path)
	for i, p := range pragmas {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// rebindDollar rewrites ? placeholders to $1, $2, ... for postgres.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
