package collab

import (
	"log/slog"
	"maps"
)

// PresenceManager tracks where each attached client's pointer is. It is
// owned by the session goroutine.
type PresenceManager struct {
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	return maps.Clone(pm.presences)
}

func (pm *PresenceManager) StateMessage() *Message {
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return msg
}
