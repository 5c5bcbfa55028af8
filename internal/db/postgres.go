package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl, err := schema(DriverPostgres)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) (User, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Email, u.Password, u.DisplayName,
	).Scan(&u.CreatedAt)
	if err != nil {
		return User{}, pgError("create user", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return User{}, pgError("get user", err)
	}
	return u, nil
}

func (s *PostgresStore) CreateDrawing(ctx context.Context, d Drawing) (Drawing, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO drawings (id, owner_id, title)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		d.ID, d.OwnerID, d.Title,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Drawing{}, pgError("create drawing", err)
	}
	return d, nil
}

func (s *PostgresStore) GetDrawing(ctx context.Context, id string) (Drawing, error) {
	var d Drawing
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM drawings WHERE id = $1`, id,
	).Scan(&d.ID, &d.OwnerID, &d.Title, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Drawing{}, pgError("get drawing", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDrawingsByOwner(ctx context.Context, ownerID string) ([]Drawing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM drawings WHERE owner_id = $1
		ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, pgError("list drawings", err)
	}
	defer rows.Close()

	drawings := []Drawing{}
	for rows.Next() {
		var d Drawing
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan drawing: %w", err)
		}
		drawings = append(drawings, d)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("list drawings", err)
	}
	return drawings, nil
}

func (s *PostgresStore) DeleteDrawing(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drawings WHERE id = $1`, id)
	if err != nil {
		return pgError("delete drawing", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateSnapshot(ctx context.Context, id, drawingID string, doc []byte) (Snapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	snap := Snapshot{ID: id, DrawingID: drawingID, Document: doc}
	err = tx.QueryRow(ctx, `
		INSERT INTO snapshots (id, drawing_id, version, document)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
		FROM snapshots WHERE drawing_id = $2
		RETURNING version, created_at`,
		id, drawingID, doc,
	).Scan(&snap.Version, &snap.CreatedAt)
	if err != nil {
		return Snapshot{}, pgError("create snapshot", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE drawings SET updated_at = now() WHERE id = $1`, drawingID); err != nil {
		return Snapshot{}, pgError("touch drawing", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) GetLatestSnapshot(ctx context.Context, drawingID string) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx, `
		SELECT id, drawing_id, version, document, created_at
		FROM snapshots WHERE drawing_id = $1
		ORDER BY version DESC LIMIT 1`, drawingID,
	).Scan(&snap.ID, &snap.DrawingID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		return Snapshot{}, pgError("get latest snapshot", err)
	}
	return snap, nil
}

// pgError maps driver errors onto the package sentinels.
func pgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
