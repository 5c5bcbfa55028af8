package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/shapedraw/backend-go/internal/auth"
	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/drawing"
)

// Source loads the latest persisted drawing a user may see.
type Source interface {
	LatestDrawing(ctx context.Context, drawingID, userID string) (document.Drawing, error)
}

type Handler struct {
	source Source
	width  int
	height int
}

func NewHandler(source Source, width, height int) *Handler {
	return &Handler{source: source, width: width, height: height}
}

// ExportPNG serves GET /api/drawings/{drawingId}/export.png. The optional
// width and height query parameters override the configured canvas size.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	drawingID := mux.Vars(r)["drawingId"]
	userID := auth.UserIDFromContext(r.Context())

	width, err := dimension(r, "width", h.width)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := dimension(r, "height", h.height)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.source.LatestDrawing(r.Context(), drawingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, drawing.ErrNotFound):
			http.Error(w, "drawing not found", http.StatusNotFound)
		case errors.Is(err, drawing.ErrForbidden):
			http.Error(w, "access denied", http.StatusForbidden)
		default:
			slog.Error("load drawing for export", "error", err, "drawing", drawingID)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	// Render fully before writing so a failure can still change the status.
	var buf bytes.Buffer
	if err := WritePNG(&buf, d, Options{Width: width, Height: height}); err != nil {
		if errors.Is(err, ErrInvalidCoordinate) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		slog.Error("render png", "error", err, "drawing", drawingID)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	slog.Info("export png", "drawing", drawingID, "shapes", len(d), "bytes", buf.Len())

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, drawingID))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("stream png", "error", err)
	}
}

func dimension(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > MaxDimension {
		return 0, fmt.Errorf("invalid %s: must be 1-%d", name, MaxDimension)
	}
	return v, nil
}
