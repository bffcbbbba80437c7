package config

import (
	"fmt"
	"strings"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Database is a parsed DATABASE_URL.
type Database struct {
	Dialect string
	// DSN is a file path for sqlite and the original URL for postgres.
	DSN string
}

// ParseDatabaseURL understands:
//
//	sqlite:///relative/path.db   (three slashes, relative to the working dir)
//	sqlite:////absolute/path.db  (four slashes)
//	sqlite:///:memory:
//	postgres://... and postgresql://...
//	a bare file path, treated as sqlite
func ParseDatabaseURL(raw string) (Database, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Database{}, fmt.Errorf("database URL cannot be empty")
	}

	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return Database{Dialect: DialectPostgres, DSN: raw}, nil

	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if !strings.HasPrefix(path, "/") {
			return Database{}, fmt.Errorf("invalid sqlite URL '%s': expected sqlite:///path", raw)
		}
		// One leading slash separates the empty host from the path.
		path = path[1:]
		if path == "" {
			return Database{}, fmt.Errorf("invalid sqlite URL '%s': missing database path", raw)
		}
		return Database{Dialect: DialectSQLite, DSN: path}, nil

	case strings.Contains(raw, "://"):
		scheme := raw[:strings.Index(raw, "://")]
		return Database{}, fmt.Errorf("unsupported database scheme '%s': must be sqlite, postgres or postgresql", scheme)
	}

	return Database{Dialect: DialectSQLite, DSN: raw}, nil
}
