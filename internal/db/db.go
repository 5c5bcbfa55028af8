// Package db persists users, drawings and drawing snapshots. Postgres and
// SQLite implementations share the Store interface.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type User struct {
	ID          string
	Email       string
	Password    string // bcrypt hash
	DisplayName string
	CreatedAt   time.Time
}

type Drawing struct {
	ID        string
	OwnerID   string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is one saved version of a drawing document.
type Snapshot struct {
	ID        string
	DrawingID string
	Version   int32
	Document  []byte
	CreatedAt time.Time
}

// Store is the persistence interface used by the services.
type Store interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	CreateDrawing(ctx context.Context, d Drawing) (Drawing, error)
	GetDrawing(ctx context.Context, id string) (Drawing, error)
	ListDrawingsByOwner(ctx context.Context, ownerID string) ([]Drawing, error)
	DeleteDrawing(ctx context.Context, id string) error

	// CreateSnapshot stores doc as the next version of the drawing and
	// bumps the drawing's updated_at.
	CreateSnapshot(ctx context.Context, id, drawingID string, doc []byte) (Snapshot, error)
	GetLatestSnapshot(ctx context.Context, drawingID string) (Snapshot, error)

	Close() error
}

// Options selects and configures a store.
type Options struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// Open connects to the configured store and applies the schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverPostgres:
		pool, err := NewPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	case DriverSQLite, "":
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
}

func schema(driver string) (string, error) {
	data, err := migrations.ReadFile("migrations/" + driver + ".sql")
	if err != nil {
		return "", fmt.Errorf("read migration: %w", err)
	}
	return string(data), nil
}
