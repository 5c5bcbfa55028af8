package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore keeps everything in a single SQLite file. Timestamps are stored
// as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := "file::memory:?_pragma=foreign_keys=1"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys=1", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: writes are serialized and :memory: stays a single
	// database.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	ddl, err := schema(DriverSQLite)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) (User, error) {
	u.CreatedAt = now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Password, u.DisplayName, u.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return User{}, sqliteError("create user", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = ?`, email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) getUser(ctx context.Context, query, arg string) (User, error) {
	var u User
	var created int64
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &created)
	if err != nil {
		return User{}, sqliteError("get user", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return u, nil
}

func (s *SQLiteStore) CreateDrawing(ctx context.Context, d Drawing) (Drawing, error) {
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drawings (id, owner_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, d.Title, d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return Drawing{}, sqliteError("create drawing", err)
	}
	return d, nil
}

func (s *SQLiteStore) GetDrawing(ctx context.Context, id string) (Drawing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM drawings WHERE id = ?`, id)
	d, err := scanDrawing(row)
	if err != nil {
		return Drawing{}, sqliteError("get drawing", err)
	}
	return d, nil
}

func (s *SQLiteStore) ListDrawingsByOwner(ctx context.Context, ownerID string) ([]Drawing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM drawings WHERE owner_id = ?
		ORDER BY updated_at DESC, id`, ownerID)
	if err != nil {
		return nil, sqliteError("list drawings", err)
	}
	defer rows.Close()

	drawings := []Drawing{}
	for rows.Next() {
		d, err := scanDrawing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drawing: %w", err)
		}
		drawings = append(drawings, d)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError("list drawings", err)
	}
	return drawings, nil
}

func (s *SQLiteStore) DeleteDrawing(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drawings WHERE id = ?`, id)
	if err != nil {
		return sqliteError("delete drawing", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateSnapshot(ctx context.Context, id, drawingID string, doc []byte) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := Snapshot{ID: id, DrawingID: drawingID, Document: doc, CreatedAt: now()}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO snapshots (id, drawing_id, version, document, created_at)
		SELECT ?1, ?2, COALESCE(MAX(version), 0) + 1, ?3, ?4
		FROM snapshots WHERE drawing_id = ?2
		RETURNING version`,
		id, drawingID, string(doc), snap.CreatedAt.UnixMilli(),
	).Scan(&snap.Version)
	if err != nil {
		return Snapshot{}, sqliteError("create snapshot", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE drawings SET updated_at = ? WHERE id = ?`,
		snap.CreatedAt.UnixMilli(), drawingID); err != nil {
		return Snapshot{}, sqliteError("touch drawing", err)
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}

func (s *SQLiteStore) GetLatestSnapshot(ctx context.Context, drawingID string) (Snapshot, error) {
	var snap Snapshot
	var doc string
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, drawing_id, version, document, created_at
		FROM snapshots WHERE drawing_id = ?
		ORDER BY version DESC LIMIT 1`, drawingID,
	).Scan(&snap.ID, &snap.DrawingID, &snap.Version, &doc, &created)
	if err != nil {
		return Snapshot{}, sqliteError("get latest snapshot", err)
	}
	snap.Document = []byte(doc)
	snap.CreatedAt = time.UnixMilli(created).UTC()
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrawing(row scanner) (Drawing, error) {
	var d Drawing
	var created, updated int64
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &created, &updated); err != nil {
		return Drawing{}, err
	}
	d.CreatedAt = time.UnixMilli(created).UTC()
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return d, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// sqliteError maps driver errors onto the package sentinels.
func sqliteError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.ExtendedCode() {
		case sqlite3.CONSTRAINT_UNIQUE, sqlite3.CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		case sqlite3.CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
