// Package storage persists conversation history, feedback, favorites and
// applications in SQLite or PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store bundles the repositories over one connection pool.
type Store struct {
	DB     *sql.DB
	Driver string

	Conversations *ConversationRepository
	Feedback      *FeedbackRepository
	Favorites     *FavoriteRepository
	Applications  *ApplicationRepository
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := Connect(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := NewMigrator(db, driver).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, driver), nil
}

// Connect opens and pings a connection pool without touching the schema.
func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	sqlDriver, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverPostgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// one writer; also keeps a :memory: database on a single connection
		db.SetMaxOpenConns(1)
	}

	retry := DefaultRetryConfig()
	if driver != DriverPostgres {
		retry.MaxRetries = 0
	}
	if err := pingWithRetry(ctx, db, retry, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// New wraps an already migrated connection.
func New(db *sql.DB, driver string) *Store {
	return &Store{
		DB:            db,
		Driver:        driver,
		Conversations: NewConversationRepository(db),
		Feedback:      NewFeedbackRepository(db),
		Favorites:     NewFavoriteRepository(db),
		Applications:  NewApplicationRepository(db),
	}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func driverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite, "":
		return "sqlite3", nil
	case DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
