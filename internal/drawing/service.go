// Package drawing is the HTTP-facing service for stored drawings and their
// snapshot history.
package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/shapedraw/backend-go/internal/db"
	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/typeid"
)

// PlaygroundID is the shared anonymous drawing. It is never persisted.
const PlaygroundID = "drw_playground"

var (
	ErrNotFound        = errors.New("drawing not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidDocument = errors.New("invalid drawing document")
)

const (
	TemplateBlank  = "blank"
	TemplateSample = "sample"
)

type Service struct {
	store db.Store
}

func NewService(store db.Store) *Service {
	return &Service{store: store}
}

type Drawing struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Snapshot struct {
	ID        string `json:"id"`
	DrawingID string `json:"drawingId"`
	Version   int32  `json:"version"`
	CreatedAt string `json:"createdAt"`
}

// Create stores a new drawing owned by ownerID and seeds its first snapshot
// from template.
func (s *Service) Create(ctx context.Context, title, template, ownerID string) (*Drawing, error) {
	var seed document.Drawing
	switch template {
	case "", TemplateBlank:
		seed = document.Drawing{}
	case TemplateSample:
		seed = document.NewSampleDrawing()
	default:
		return nil, fmt.Errorf("%w: unknown template %q", ErrInvalidDocument, template)
	}

	dbDrawing, err := s.store.CreateDrawing(ctx, db.Drawing{
		ID:      typeid.NewDrawingID(),
		OwnerID: ownerID,
		Title:   title,
	})
	if err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}

	docJSON, err := document.Marshal(seed)
	if err != nil {
		return nil, fmt.Errorf("marshal seed document: %w", err)
	}
	if _, err := s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), dbDrawing.ID, docJSON); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbDrawingToDrawing(dbDrawing), nil
}

func (s *Service) Get(ctx context.Context, drawingID, userID string) (*Drawing, error) {
	d, err := s.authorize(ctx, drawingID, userID)
	if err != nil {
		return nil, err
	}
	return dbDrawingToDrawing(d), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Drawing, error) {
	dbDrawings, err := s.store.ListDrawingsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}

	drawings := make([]Drawing, len(dbDrawings))
	for i, d := range dbDrawings {
		drawings[i] = *dbDrawingToDrawing(d)
	}
	return drawings, nil
}

func (s *Service) Delete(ctx context.Context, drawingID, userID string) error {
	if _, err := s.authorize(ctx, drawingID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteDrawing(ctx, drawingID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete drawing: %w", err)
	}
	return nil
}

// Authorize reports whether userID may open drawingID.
func (s *Service) Authorize(ctx context.Context, drawingID, userID string) error {
	_, err := s.authorize(ctx, drawingID, userID)
	return err
}

func (s *Service) GetLatestSnapshot(ctx context.Context, drawingID, userID string) (json.RawMessage, error) {
	if _, err := s.authorize(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	snap, err := s.store.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// PutSnapshot validates doc and stores it as the drawing's next version.
func (s *Service) PutSnapshot(ctx context.Context, drawingID, userID string, doc []byte) (*Snapshot, error) {
	if _, err := s.authorize(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	d, err := document.Unmarshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return s.save(ctx, drawingID, d)
}

// LatestDrawing returns the decoded latest snapshot of a drawing userID
// may see.
func (s *Service) LatestDrawing(ctx context.Context, drawingID, userID string) (document.Drawing, error) {
	raw, err := s.GetLatestSnapshot(ctx, drawingID, userID)
	if err != nil {
		return nil, err
	}
	return decodeStored(drawingID, raw)
}

// LoadDrawing returns the latest stored document without an access check.
// The collaboration hub uses it after the websocket was authorized.
func (s *Service) LoadDrawing(ctx context.Context, drawingID string) (document.Drawing, error) {
	snap, err := s.store.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return decodeStored(drawingID, snap.Document)
}

// SaveDrawing stores d as a new snapshot without an access check.
func (s *Service) SaveDrawing(ctx context.Context, drawingID string, d document.Drawing) error {
	_, err := s.save(ctx, drawingID, d)
	return err
}

func (s *Service) save(ctx context.Context, drawingID string, d document.Drawing) (*Snapshot, error) {
	docJSON, err := document.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	// Whatever is stored must load again.
	if _, err := document.Unmarshal(docJSON); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	snap, err := s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), drawingID, docJSON)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return &Snapshot{
		ID:        snap.ID,
		DrawingID: snap.DrawingID,
		Version:   snap.Version,
		CreatedAt: formatTime(snap.CreatedAt),
	}, nil
}

func (s *Service) authorize(ctx context.Context, drawingID, userID string) (db.Drawing, error) {
	d, err := s.store.GetDrawing(ctx, drawingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return db.Drawing{}, ErrNotFound
		}
		return db.Drawing{}, fmt.Errorf("get drawing: %w", err)
	}
	if d.OwnerID != userID {
		return db.Drawing{}, ErrForbidden
	}
	return d, nil
}

func decodeStored(drawingID string, raw []byte) (document.Drawing, error) {
	d, err := document.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode stored drawing %s: %w", drawingID, err)
	}
	return d, nil
}

func dbDrawingToDrawing(d db.Drawing) *Drawing {
	return &Drawing{
		ID:        d.ID,
		Title:     d.Title,
		OwnerID:   d.OwnerID,
		CreatedAt: formatTime(d.CreatedAt),
		UpdatedAt: formatTime(d.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
