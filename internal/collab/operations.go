package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/engine"
	"github.com/inamate/shapedraw/backend-go/internal/geometry"
)

var (
	// ErrGestureLocked is returned when another client owns the open gesture.
	ErrGestureLocked = errors.New("another client is drawing")
	ErrUnknownType   = errors.New("unknown message type")
	ErrInvalidInput  = errors.New("invalid payload")
)

// Session holds the authoritative editor for a room. Every input is applied
// under the mutex, so one event is fully processed before the next.
type Session struct {
	mu     sync.Mutex
	engine *engine.Engine
	owner  string // clientID holding the gesture lock
	seq    int64

	// edits counts document changes; saved is the count last persisted.
	edits int64
	saved int64
}

// NewSession wraps e. The caller must not use e afterwards.
func NewSession(e *engine.Engine) *Session {
	return &Session{engine: e}
}

// LoadSession builds a session from a stored drawing.
func LoadSession(e *engine.Engine, d document.Drawing) (*Session, error) {
	if err := e.LoadDrawing(d); err != nil {
		return nil, err
	}
	return NewSession(e), nil
}

// Apply runs one editor input on behalf of clientID and returns the
// resulting frame together with its server sequence number.
func (s *Session) Apply(clientID string, msg *Message) (*RenderPayload, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owner != "" && s.owner != clientID {
		return nil, 0, ErrGestureLocked
	}
	if err := s.applyLocked(clientID, msg); err != nil {
		return nil, 0, err
	}

	s.seq++
	return s.renderLocked(), s.seq, nil
}

// applyLocked dispatches msg to the engine (caller must hold lock).
func (s *Session) applyLocked(clientID string, msg *Message) error {
	switch msg.Type {
	case TypePointerDown:
		p, err := decodePointer(msg.Payload)
		if err != nil {
			return err
		}
		s.engine.PointerDown(p.X, p.Y)
		if s.engine.InGesture() {
			s.owner = clientID
		}
		s.edits++
	case TypePointerDrag:
		p, err := decodePointer(msg.Payload)
		if err != nil {
			return err
		}
		s.engine.PointerDrag(p.X, p.Y)
		s.edits++
	case TypePointerUp:
		p, err := decodePointer(msg.Payload)
		if err != nil {
			return err
		}
		s.engine.PointerUp(p.X, p.Y)
		s.owner = ""
		s.edits++
	case TypeModeToggle:
		s.engine.ToggleMode()
		s.owner = ""
	case TypeToolSet:
		return s.applyTool(msg.Payload)
	case TypeCanvasClear:
		s.engine.Clear()
		s.owner = ""
		s.edits++
	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}
	return nil
}

func (s *Session) applyTool(raw json.RawMessage) error {
	var tool ToolPayload
	if err := json.Unmarshal(raw, &tool); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	// Validate both fields before changing anything.
	var kind geometry.Kind
	if tool.Kind != nil {
		k, err := geometry.ParseKind(*tool.Kind)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		kind = k
	}
	if tool.Color != nil {
		if _, err := document.ParseColor(*tool.Color); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	if tool.Kind != nil {
		s.engine.SetShapeKind(kind)
	}
	if tool.Color != nil {
		if err := s.engine.SetColor(*tool.Color); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

// Release drops clientID's gesture lock, cancelling its open gesture. It
// reports whether anything changed.
func (s *Session) Release(clientID string) (*RenderPayload, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owner == "" || s.owner != clientID {
		return nil, 0, false
	}
	s.engine.CancelGesture()
	s.owner = ""
	s.seq++
	return s.renderLocked(), s.seq, true
}

// Render returns the current frame without applying anything.
func (s *Session) Render() (*RenderPayload, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked(), s.seq
}

func (s *Session) renderLocked() *RenderPayload {
	return &RenderPayload{
		Frame: s.engine.Frame(),
		State: s.engine.EditorState(),
	}
}

// Owner returns the clientID holding the gesture lock, if any.
func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Snapshot returns the drawing, its edit count and whether it changed since
// the last MarkSaved.
func (s *Session) Snapshot() (document.Drawing, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Drawing(), s.edits, s.edits != s.saved
}

// MarkSaved records that the drawing as of edits has been persisted.
func (s *Session) MarkSaved(edits int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if edits > s.saved {
		s.saved = edits
	}
}

func decodePointer(raw json.RawMessage) (PointerPayload, error) {
	var p PointerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return PointerPayload{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !document.ValidCoordinate(p.X) || !document.ValidCoordinate(p.Y) {
		return PointerPayload{}, fmt.Errorf("%w: pointer (%g, %g) out of range", ErrInvalidInput, p.X, p.Y)
	}
	return p, nil
}
