// Package sqlite implements persistence.Store on top of a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store implements persistence.Store. Outside a transaction it executes
// against the pool; inside one, against the transaction handle.
type Store struct {
	pool   *ConnectionPool
	exec   executor
	mapper *ErrorMapper
	retry  RetryConfig
}

// Open opens the database at dsn and returns a ready store. Call Migrate
// before serving traffic.
func Open(dsn string) (*Store, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:   pool,
		exec:   pool.DB(),
		mapper: NewErrorMapper(),
		retry:  DefaultRetryConfig(),
	}, nil
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	return migration.NewManager(s.pool.DB(), sub, logger).Apply(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Events() persistence.EventRepository {
	return &eventRepository{exec: s.exec, mapper: s.mapper}
}

func (s *Store) Series() persistence.SeriesRepository {
	return &seriesRepository{exec: s.exec, mapper: s.mapper}
}

func (s *Store) Groups() persistence.GroupRepository {
	return &groupRepository{exec: s.exec, mapper: s.mapper}
}

func (s *Store) Rooms() persistence.RoomRepository {
	return &roomRepository{exec: s.exec, mapper: s.mapper}
}

func (s *Store) Users() persistence.UserRepository {
	return &userRepository{exec: s.exec, mapper: s.mapper}
}

func (s *Store) Sessions() persistence.SessionRepository {
	return &sessionRepository{exec: s.exec, mapper: s.mapper}
}

// InTransaction runs fn against a transactional view of the store. A nested
// call joins the enclosing transaction. Transient lock errors are retried
// with the whole function body.
func (s *Store) InTransaction(ctx context.Context, fn func(persistence.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return withRetry(ctx, s.retry, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(&Store{exec: tx, mapper: s.mapper})
		})
	})
}

var _ persistence.Store = (*Store)(nil)
