package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/drawing"
	"github.com/inamate/shapedraw/backend-go/internal/engine"
)

func input(typ string, payload string) *Message {
	return &Message{Type: typ, Payload: json.RawMessage(payload)}
}

func pointer(typ string, x, y float64) *Message {
	return input(typ, fmt.Sprintf(`{"x":%g,"y":%g}`, x, y))
}

func mustApply(t *testing.T, s *Session, clientID string, msg *Message) *RenderPayload {
	t.Helper()
	render, _, err := s.Apply(clientID, msg)
	if err != nil {
		t.Fatalf("apply %s for %s: %v", msg.Type, clientID, err)
	}
	return render
}

func TestSessionGestureLock(t *testing.T) {
	s := NewSession(engine.NewEngine())
	mustApply(t, s, "a", input(TypeToolSet, `{"kind":"Line"}`))
	mustApply(t, s, "a", pointer(TypePointerDown, 10, 10))
	if s.Owner() != "a" {
		t.Fatalf("expected a to own the gesture, got %q", s.Owner())
	}

	for _, msg := range []*Message{
		pointer(TypePointerDown, 50, 50),
		pointer(TypePointerDrag, 60, 60),
		input(TypeModeToggle, `{}`),
		input(TypeCanvasClear, `{}`),
	} {
		if _, _, err := s.Apply("b", msg); !errors.Is(err, ErrGestureLocked) {
			t.Errorf("%s from b: expected ErrGestureLocked, got %v", msg.Type, err)
		}
	}

	mustApply(t, s, "a", pointer(TypePointerDrag, 30, 30))
	render := mustApply(t, s, "a", pointer(TypePointerUp, 30, 30))
	if s.Owner() != "" {
		t.Errorf("lock should be released on up, owner %q", s.Owner())
	}
	if len(render.Frame.Commands) != 1 || render.Frame.Commands[0].Kind != "Line" {
		t.Fatalf("expected one committed line, got %+v", render.Frame.Commands)
	}

	mustApply(t, s, "b", pointer(TypePointerDown, 100, 100))
	if s.Owner() != "b" {
		t.Errorf("expected b to own the next gesture, got %q", s.Owner())
	}
}

func TestSessionPointKindTakesNoLock(t *testing.T) {
	s := NewSession(engine.NewEngine())
	mustApply(t, s, "a", pointer(TypePointerDown, 5, 5))
	if s.Owner() != "" {
		t.Errorf("a point commits on down and must not hold the lock")
	}
	mustApply(t, s, "b", pointer(TypePointerDown, 9, 9))

	d, _, dirty := s.Snapshot()
	if len(d) != 2 || !dirty {
		t.Errorf("expected 2 dirty points, got %d dirty=%v", len(d), dirty)
	}
}

func TestSessionReleaseCancelsGesture(t *testing.T) {
	s := NewSession(engine.NewEngine())
	mustApply(t, s, "a", input(TypeToolSet, `{"kind":"Square"}`))
	mustApply(t, s, "a", pointer(TypePointerDown, 10, 10))
	render := mustApply(t, s, "a", pointer(TypePointerDrag, 40, 40))
	if len(render.Frame.Commands) != 1 {
		t.Fatalf("expected a preview, got %d commands", len(render.Frame.Commands))
	}

	if _, _, changed := s.Release("b"); changed {
		t.Error("releasing a client without the lock must do nothing")
	}
	render, _, changed := s.Release("a")
	if !changed {
		t.Fatal("expected release to cancel the gesture")
	}
	if len(render.Frame.Commands) != 0 {
		t.Errorf("preview should be gone, got %d commands", len(render.Frame.Commands))
	}
	if d, _, _ := s.Snapshot(); len(d) != 0 {
		t.Errorf("cancelled gesture must not commit, got %d shapes", len(d))
	}
}

func TestSessionRejectsBadInput(t *testing.T) {
	s := NewSession(engine.NewEngine())

	tests := []struct {
		name string
		msg  *Message
		want error
	}{
		{"unknown kind", input(TypeToolSet, `{"kind":"Blob"}`), ErrInvalidInput},
		{"bad color with kind", input(TypeToolSet, `{"kind":"Line","color":"nope"}`), ErrInvalidInput},
		{"tool not json", input(TypeToolSet, `[`), ErrInvalidInput},
		{"pointer without payload", &Message{Type: TypePointerDown}, ErrInvalidInput},
		{"pointer out of range", pointer(TypePointerDown, 1e300, 5), ErrInvalidInput},
		{"drag out of range", pointer(TypePointerDrag, 5, -1e300), ErrInvalidInput},
		{"unknown type", input("shape.explode", `{}`), ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.Apply("a", tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if d, _, _ := s.Snapshot(); len(d) != 0 {
		t.Errorf("rejected pointer input must not draw, got %d shapes", len(d))
	}
	render, _ := s.Render()
	if render.State.ShapeKind != "Point" || render.State.Color != engine.DefaultColor {
		t.Errorf("rejected tool.set must not change the tool, got %+v", render.State)
	}
}

func TestSessionSavedTracking(t *testing.T) {
	s := NewSession(engine.NewEngine())
	if _, _, dirty := s.Snapshot(); dirty {
		t.Fatal("new session should be clean")
	}
	mustApply(t, s, "a", input(TypeModeToggle, `{}`))
	if _, _, dirty := s.Snapshot(); dirty {
		t.Error("mode changes do not touch the drawing")
	}
	mustApply(t, s, "a", input(TypeModeToggle, `{}`))
	mustApply(t, s, "a", input(TypeModeToggle, `{}`))
	mustApply(t, s, "a", input(TypeModeToggle, `{}`))
	mustApply(t, s, "a", pointer(TypePointerDown, 1, 1))

	_, edits, dirty := s.Snapshot()
	if !dirty {
		t.Fatal("expected dirty after a commit")
	}
	mustApply(t, s, "a", pointer(TypePointerDown, 2, 2))
	s.MarkSaved(edits)
	if _, _, dirty := s.Snapshot(); !dirty {
		t.Error("edits after the snapshot must keep the session dirty")
	}
}

// fakeStore records saves and serves loads.
type fakeStore struct {
	mu      sync.Mutex
	stored  map[string]document.Drawing
	saves   int
	loadErr error
}

func (f *fakeStore) load(_ context.Context, id string) (document.Drawing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	d, ok := f.stored[id]
	if !ok {
		return nil, drawing.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) save(_ context.Context, id string, d document.Drawing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[id] = d
	f.saves++
	return nil
}

func newTestHub(store *fakeStore) *Hub {
	return NewHub(store.load, store.save)
}

func newTestClient(h *Hub, drawingID, clientID string) *Client {
	return NewClient(h, nil, "user_"+clientID, clientID, drawingID, clientID)
}

func next(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatalf("%s: send channel closed", c.ClientID)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		return msg
	default:
		t.Fatalf("%s: expected a message", c.ClientID)
	}
	return Message{}
}

func expectType(t *testing.T, c *Client, typ string) Message {
	t.Helper()
	msg := next(t, c)
	if msg.Type != typ {
		t.Fatalf("%s: expected %s, got %s (%s)", c.ClientID, typ, msg.Type, msg.Payload)
	}
	return msg
}

func expectNone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("%s: unexpected message %s", c.ClientID, data)
	default:
	}
}

func TestHubRoomFlow(t *testing.T) {
	store := &fakeStore{stored: map[string]document.Drawing{
		"drw_1": {{Type: document.ShapeTypePoint, Coords: []float64{1, 1, 2, 2}, Color: "#000000", Fill: "#000000"}},
	}}
	h := newTestHub(store)
	a := newTestClient(h, "drw_1", "a")
	b := newTestClient(h, "drw_1", "b")

	h.addClient(a)
	welcome := expectType(t, a, TypeWelcome)
	var wp WelcomePayload
	if err := json.Unmarshal(welcome.Payload, &wp); err != nil {
		t.Fatal(err)
	}
	if wp.ClientID != "a" || len(wp.Frame.Commands) != 1 {
		t.Fatalf("welcome should carry the stored drawing, got %+v", wp)
	}
	expectType(t, a, TypePresenceState)

	h.addClient(b)
	expectType(t, b, TypeWelcome)
	expectType(t, b, TypePresenceState)
	expectType(t, a, TypePresenceJoin)

	h.handleMessage(a, input(TypeToolSet, `{"kind":"Line"}`))
	expectType(t, a, TypeSceneRender)
	expectType(t, b, TypeSceneRender)

	h.handleMessage(a, pointer(TypePointerDown, 50, 50))
	expectType(t, a, TypeSceneRender)
	expectType(t, b, TypeSceneRender)

	h.handleMessage(b, pointer(TypePointerDown, 70, 70))
	nack := expectType(t, b, TypeOpNack)
	var np NackPayload
	if err := json.Unmarshal(nack.Payload, &np); err != nil || np.Reason == "" {
		t.Errorf("expected a nack reason, got %s", nack.Payload)
	}
	expectNone(t, a)

	h.handleMessage(a, pointer(TypePointerDrag, 80, 80))
	expectType(t, a, TypeSceneRender)
	render := expectType(t, b, TypeSceneRender)
	var rp RenderPayload
	if err := json.Unmarshal(render.Payload, &rp); err != nil {
		t.Fatal(err)
	}
	if len(rp.Frame.Commands) != 2 {
		t.Errorf("expected stored point plus preview, got %d", len(rp.Frame.Commands))
	}

	// a leaves mid-gesture: the preview is dropped and b is told.
	h.removeClient(a)
	render = expectType(t, b, TypeSceneRender)
	if err := json.Unmarshal(render.Payload, &rp); err != nil {
		t.Fatal(err)
	}
	if len(rp.Frame.Commands) != 1 {
		t.Errorf("expected preview removed, got %d commands", len(rp.Frame.Commands))
	}
	expectType(t, b, TypePresenceLeave)

	h.handleMessage(b, pointer(TypePointerDown, 70, 70))
	expectType(t, b, TypeSceneRender)
	h.handleMessage(b, pointer(TypePointerUp, 90, 90))
	expectType(t, b, TypeSceneRender)

	h.removeClient(b)
	if store.saves != 1 {
		t.Fatalf("expected one save on last leave, got %d", store.saves)
	}
	if got := len(store.stored["drw_1"]); got != 2 {
		t.Errorf("expected 2 shapes saved, got %d", got)
	}
	if _, ok := h.room("drw_1"); ok {
		t.Error("empty room should be closed")
	}
}

func TestHubUnknownMessage(t *testing.T) {
	h := newTestHub(&fakeStore{stored: map[string]document.Drawing{}})
	a := newTestClient(h, "drw_1", "a")
	h.addClient(a)
	expectType(t, a, TypeWelcome)
	expectType(t, a, TypePresenceState)

	h.handleMessage(a, input("shape.explode", `{}`))
	expectType(t, a, TypeError)
}

func TestHubSkipsCleanAndPlaygroundRooms(t *testing.T) {
	store := &fakeStore{stored: map[string]document.Drawing{}}
	h := newTestHub(store)

	clean := newTestClient(h, "drw_1", "a")
	h.addClient(clean)
	h.removeClient(clean)

	play := newTestClient(h, drawing.PlaygroundID, "b")
	h.addClient(play)
	h.handleMessage(play, pointer(TypePointerDown, 3, 3))
	h.removeClient(play)

	if store.saves != 0 {
		t.Errorf("expected no saves, got %d", store.saves)
	}
}

func TestHubStopSavesOpenRooms(t *testing.T) {
	store := &fakeStore{stored: map[string]document.Drawing{}}
	h := newTestHub(store)
	a := newTestClient(h, "drw_1", "a")
	h.addClient(a)
	h.handleMessage(a, pointer(TypePointerDown, 3, 3))

	h.Stop()
	h.Stop()
	if store.saves != 1 || len(store.stored["drw_1"]) != 1 {
		t.Errorf("expected the open room saved once, got %d saves", store.saves)
	}
}

func TestHubLoadFailureClosesClient(t *testing.T) {
	h := newTestHub(&fakeStore{loadErr: errors.New("db down")})
	a := newTestClient(h, "drw_1", "a")
	h.addClient(a)

	expectType(t, a, TypeError)
	if _, ok := <-a.send; ok {
		t.Error("expected the send channel to be closed")
	}
	// The ReadPump exit still unregisters; that must be a no-op.
	h.removeClient(a)
}
