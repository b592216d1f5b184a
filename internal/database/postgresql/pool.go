package postgresql

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"fbmp/internal/database/postgresql/repo"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool is what the store needs from a connection pool. *pgxpool.Pool and
// pgxmock.PgxPoolIface both satisfy it.
type DBPool interface {
	repo.DBTX
	Ping(ctx context.Context) error
	Close()
}

// ConnString returns storeURL with key filled in as the password when the URL
// does not already carry one.
func ConnString(storeURL, key string) (string, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return "", fmt.Errorf("parse store url: %w", err)
	}
	if u.User == nil {
		return "", fmt.Errorf("store url %q has no user", u.Redacted())
	}
	if _, hasPassword := u.User.Password(); !hasPassword && key != "" {
		u.User = url.UserPassword(u.User.Username(), key)
	}
	return u.String(), nil
}

func NewPool(ctx context.Context, storeURL, key string) (*pgxpool.Pool, error) {
	const op = "postgresql.NewPool"

	dsn, err := ConnString(storeURL, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	return pool, nil
}
