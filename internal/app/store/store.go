package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/EnzoTheBrown/bribe/internal/app/migrate"
	"github.com/EnzoTheBrown/bribe/internal/repository"
	"github.com/EnzoTheBrown/bribe/internal/repository/postgres"
	"github.com/EnzoTheBrown/bribe/internal/repository/sqlite"
)

// Store bundles the user repository with the handles needed to migrate and probe it.
type Store struct {
	Users   repository.UserRepository
	DB      *sql.DB
	Dialect string
	pool    *pgxpool.Pool
}

// Open selects PostgreSQL for postgres:// URLs and SQLite for everything else
// (sqlite://path, sqlite:path or a bare file path).
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	url := strings.TrimSpace(databaseURL)
	if url == "" {
		return nil, fmt.Errorf("empty database url")
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Store{
			Users:   postgres.New(pool),
			DB:      stdlib.OpenDBFromPool(pool),
			Dialect: migrate.DialectPostgres,
			pool:    pool,
		}, nil
	}

	path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite://"), "sqlite:")
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{
		Users:   sqlite.New(db),
		DB:      db,
		Dialect: migrate.DialectSQLite,
	}, nil
}

// Ping ensures the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		return nil
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases underlying connections.
func (s *Store) Close() {
	_ = s.DB.Close()
	if s.pool != nil {
		s.pool.Close()
	}
}
