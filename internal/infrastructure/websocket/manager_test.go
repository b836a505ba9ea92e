package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, m *Manager) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient("admin-1", conn)
		if !m.Add(client) {
			conn.Close()
			return
		}
		go client.ReadPump(m)
		go client.WritePump()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestManagerGreetsAndBroadcasts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.OnConnect(func() ([]byte, error) {
		return NewMessage(MessageTypeDashboard, map[string]int{"history_count": 0})
	})
	m.Start(ctx)
	url := startServer(t, m)

	a := dial(t, url)
	b := dial(t, url)
	assert.Equal(t, MessageTypeDashboard, readMessage(t, a).Type)
	assert.Equal(t, MessageTypeDashboard, readMessage(t, b).Type)
	require.Eventually(t, func() bool { return m.ClientCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	update, err := NewMessage(MessageTypeDashboard, map[string]int{"history_count": 3})
	require.NoError(t, err)
	m.Broadcast(update)

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeDashboard, msg.Type)
		assert.Equal(t, map[string]interface{}{"history_count": 3.0}, msg.Data)
	}
}

func TestManagerAnswersPingAndRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	var greetings int32
	m.OnConnect(func() ([]byte, error) {
		return NewMessage(MessageTypeDashboard, atomic.AddInt32(&greetings, 1))
	})
	m.Start(ctx)
	conn := dial(t, startServer(t, m))
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MessageTypeRefresh}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeDashboard, msg.Type)
	assert.Equal(t, 2.0, msg.Data)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "subscribe"}))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)
}

func TestManagerUnregistersClosedClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.Start(ctx)
	conn := dial(t, startServer(t, m))
	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return m.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestManagerStopRejectsNewClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager()
	m.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		return !m.Add(&Client{Send: make(chan []byte, 1)})
	}, 2*time.Second, 5*time.Millisecond)
}
