package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/drawing"
	"github.com/inamate/shapedraw/backend-go/internal/engine"
)

const saveTimeout = 10 * time.Second

// Loader fetches the stored drawing for a room that is being opened.
type Loader func(ctx context.Context, drawingID string) (document.Drawing, error)

// Saver persists a room's drawing.
type Saver func(ctx context.Context, drawingID string, d document.Drawing) error

type Room struct {
	drawingID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	session   *Session
}

func NewRoom(drawingID string, session *Session) *Room {
	return &Room{
		drawingID: drawingID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		session:   session,
	}
}

// persistent reports whether the room is backed by storage.
func (r *Room) persistent() bool {
	return r.drawingID != drawing.PlaygroundID
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // drawingID -> room
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once
	load       Loader
	save       Saver
}

func NewHub(load Loader, save Saver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		load:       load,
		save:       save,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.quit:
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.fail("server is shutting down")
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
		client.close()
	}
}

// Stop saves every room with unsaved edits and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)

		h.mu.RLock()
		rooms := make([]*Room, 0, len(h.rooms))
		for _, room := range h.rooms {
			rooms = append(rooms, room)
		}
		h.mu.RUnlock()

		for _, room := range rooms {
			h.saveRoom(room)
		}
	})
}

// openRoom returns the room for drawingID, loading its drawing on first use
// (caller must hold h.mu).
func (h *Hub) openRoom(drawingID string) (*Room, error) {
	if room, ok := h.rooms[drawingID]; ok {
		return room, nil
	}

	e := engine.NewEngine(engine.WithLogger(slog.Default().With("drawing", drawingID)))
	room := NewRoom(drawingID, NewSession(e))
	if room.persistent() && h.load != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		d, err := h.load(ctx, drawingID)
		cancel()
		switch {
		case errors.Is(err, drawing.ErrNotFound):
			// Nothing stored yet.
		case err != nil:
			return nil, err
		default:
			session, err := LoadSession(e, d)
			if err != nil {
				return nil, err
			}
			room.session = session
		}
	}
	h.rooms[drawingID] = room
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, err := h.openRoom(client.DrawingID)
	if err != nil {
		h.mu.Unlock()
		slog.Error("open room", "error", err, "drawing", client.DrawingID)
		client.fail("could not load drawing")
		return
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	render, seq := room.session.Render()
	welcome, _ := json.Marshal(WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Frame:    render.Frame,
		State:    render.State,
	})
	client.Send(&Message{
		Type:      TypeWelcome,
		DrawingID: client.DrawingID,
		Seq:       seq,
		Payload:   welcome,
	})

	if stateMsg := room.presence.StateMessage(client.DrawingID); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}
	h.broadcastToRoom(client.DrawingID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "drawing", client.DrawingID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DrawingID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := room.clients[client.ClientID]; !member {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.DrawingID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
		slog.Info("client left", "user", client.UserID, "drawing", client.DrawingID)
		return
	}

	// A disconnect in the middle of a gesture cancels it.
	if render, seq, changed := room.session.Release(client.ClientID); changed {
		h.broadcastRender(client.DrawingID, render, seq)
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}
	h.broadcastToRoom(client.DrawingID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "drawing", client.DrawingID)
}

func (h *Hub) saveRoom(room *Room) {
	if !room.persistent() || h.save == nil {
		return
	}
	// The last writer may have left mid-gesture.
	room.session.Release(room.session.Owner())

	d, edits, dirty := room.session.Snapshot()
	if !dirty {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.save(ctx, room.drawingID, d); err != nil {
		slog.Error("save drawing", "error", err, "drawing", room.drawingID)
		return
	}
	room.session.MarkSaved(edits)
	slog.Info("drawing saved", "drawing", room.drawingID, "shapes", len(d))
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypePointerDown, TypePointerDrag, TypePointerUp,
		TypeModeToggle, TypeToolSet, TypeCanvasClear:
		h.handleInput(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.sendError("unknown message type: " + msg.Type)
	}
}

func (h *Hub) room(drawingID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[drawingID]
	return room, ok
}

func (h *Hub) handleInput(sender *Client, msg *Message) {
	room, ok := h.room(sender.DrawingID)
	if !ok {
		return
	}

	render, seq, err := room.session.Apply(sender.ClientID, msg)
	switch {
	case errors.Is(err, ErrGestureLocked):
		payload, _ := json.Marshal(NackPayload{Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, DrawingID: sender.DrawingID, Payload: payload})
		return
	case err != nil:
		slog.Warn("rejected input", "error", err, "type", msg.Type, "user", sender.UserID)
		sender.sendError(err.Error())
		return
	}
	h.broadcastRender(sender.DrawingID, render, seq)
}

func (h *Hub) broadcastRender(drawingID string, render *RenderPayload, seq int64) {
	payload, err := json.Marshal(render)
	if err != nil {
		slog.Error("marshal render", "error", err)
		return
	}
	h.broadcastToRoom(drawingID, &Message{
		Type:      TypeSceneRender,
		DrawingID: drawingID,
		Seq:       seq,
		Payload:   payload,
	}, "")
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.DrawingID)
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.DrawingID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(drawingID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[drawingID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
