package websocket

import (
	"encoding/json"
	"time"
)

const (
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeRefresh   = "refresh"
	MessageTypeDashboard = "dashboard"
	MessageTypeError     = "error"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

func NewMessage(messageType string, data interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HandleClientMessage answers the few messages a dashboard sends: pings and
// requests for a fresh copy of the dashboard.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.sendError(client, "Invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypePing:
		m.send(client, MessageTypePong, map[string]string{"status": "alive"})
	case MessageTypeRefresh:
		m.greet(client)
	default:
		m.log.Debug("Unknown message type", "type", msg.Type, "user_id", client.UserID)
		m.sendError(client, "Unknown message type")
	}
}

func (m *Manager) send(client *Client, messageType string, data interface{}) {
	message, err := NewMessage(messageType, data)
	if err != nil {
		m.log.Error("Failed to marshal message", "user_id", client.UserID, "error", err)
		return
	}
	// a full buffer means the writer is stuck; the next broadcast drops it
	client.trySend(message)
}

func (m *Manager) sendError(client *Client, errorMsg string) {
	m.send(client, MessageTypeError, map[string]string{"error": errorMsg})
}
