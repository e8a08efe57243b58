package db

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Warehouse connection URLs arrive in the JDBC form the surrounding
// platform hands out, e.g. jdbc:postgresql://host:5432/i2b2?searchPath=x.
// Only the host/port/database part matters here; the query-string suffix
// is ignored.
var jdbcURLPattern = regexp.MustCompile(`^jdbc:postgresql://(.*?)(\?.*)?$`)

// ConnString converts a JDBC-style connection URL plus credentials into
// a pgx connection string.
func ConnString(jdbcURL, username, password string) (string, error) {
	m := jdbcURLPattern.FindStringSubmatch(jdbcURL)
	if m == nil {
		return "", fmt.Errorf("connection url %q is not a jdbc:postgresql url", jdbcURL)
	}
	return fmt.Sprintf("postgres://%s:%s@%s",
		url.QueryEscape(username), url.QueryEscape(password), m[1]), nil
}

// NewPool opens a pgx connection pool against the warehouse and verifies
// it with a ping. A failure here is fatal for the run; no row is read
// before the pool is up.
func NewPool(ctx context.Context, jdbcURL, username, password string) (*pgxpool.Pool, error) {
	connString, err := ConnString(jdbcURL, username, password)
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
