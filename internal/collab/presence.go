package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager tracks cursors per connection, so one user in two tabs
// shows up twice.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

func (pm *PresenceManager) StateMessage(drawingID string) *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:      TypePresenceState,
		DrawingID: drawingID,
		Payload:   payload,
	}
}
