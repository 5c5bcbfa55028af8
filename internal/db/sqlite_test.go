package db

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(MemoryPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func seedUser(t *testing.T, s Store, id, email string) User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), User{ID: id, Email: email, Password: "hash", DisplayName: "Ada"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "user_1", "ada@example.com")
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "user_1" || got.DisplayName != "Ada" || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("unexpected user %+v", got)
	}

	if _, err := s.GetUserByID(ctx, "user_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = s.CreateUser(ctx, User{ID: "user_2", Email: "ada@example.com", Password: "x", DisplayName: "Other"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for reused email, got %v", err)
	}
}

func TestSQLiteDrawingsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedUser(t, s, "user_1", "ada@example.com")

	d, err := s.CreateDrawing(ctx, Drawing{ID: "drw_1", OwnerID: "user_1", Title: "Shapes"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateDrawing(ctx, Drawing{ID: "drw_2", OwnerID: "user_1", Title: "More"}); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListDrawingsByOwner(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 drawings, got %d", len(list))
	}

	if _, err := s.GetLatestSnapshot(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no snapshot yet, got %v", err)
	}

	for i, doc := range []string{`[]`, `[{"type":"Point","coords":[1,1,2,2],"color":"#000000","fill":"#000000"}]`} {
		snap, err := s.CreateSnapshot(ctx, "snap_"+string(rune('a'+i)), d.ID, []byte(doc))
		if err != nil {
			t.Fatal(err)
		}
		if snap.Version != int32(i+1) {
			t.Errorf("expected version %d, got %d", i+1, snap.Version)
		}
	}

	latest, err := s.GetLatestSnapshot(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Version != 2 || latest.ID != "snap_b" {
		t.Errorf("unexpected latest snapshot %+v", latest)
	}

	if _, err := s.CreateSnapshot(ctx, "snap_x", "drw_missing", []byte(`[]`)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown drawing, got %v", err)
	}

	if err := s.DeleteDrawing(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDrawing(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted drawing to be gone, got %v", err)
	}
	if _, err := s.GetLatestSnapshot(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected snapshots to cascade, got %v", err)
	}
	if err := s.DeleteDrawing(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}
