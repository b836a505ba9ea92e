package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lostfound/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 16
)

// Client is one connected dashboard session.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// trySend queues message without blocking. It reports false when the buffer
// is full or the client is gone.
func (c *Client) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager fans dashboard updates out to every connected admin. An admin may
// hold several connections at once.
type Manager struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
	log        logger.Logger

	// greeting builds the message sent to a client right after it registers.
	greeting func() ([]byte, error)
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan []byte, 1),
		done:       make(chan struct{}),
		log:        logger.New("websocket"),
	}
}

// OnConnect sets the message each new client receives first.
func (m *Manager) OnConnect(greeting func() ([]byte, error)) {
	m.greeting = greeting
}

// Start runs the manager's main loop until ctx ends, then drops all clients.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = true
				m.mutex.Unlock()
				m.log.Info("Client registered", "user_id", client.UserID)
				m.greet(client)

			case client := <-m.Unregister:
				m.remove(client)
				m.log.Info("Client unregistered", "user_id", client.UserID)

			case message := <-m.broadcast:
				m.mutex.RLock()
				var slow []*Client
				for client := range m.clients {
					if !client.trySend(message) {
						slow = append(slow, client)
					}
				}
				m.mutex.RUnlock()
				for _, client := range slow {
					m.log.Warn("Dropping slow client", "user_id", client.UserID)
					m.remove(client)
				}

			case <-ctx.Done():
				close(m.done)
				m.mutex.Lock()
				for client := range m.clients {
					delete(m.clients, client)
					client.close()
				}
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// Add registers client. It reports false once the manager has stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Drop unregisters client and closes its Send channel.
func (m *Manager) Drop(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		client.close()
	}
}

// Broadcast queues message for every client. A newer message replaces one
// still waiting, since each carries the complete dashboard.
func (m *Manager) Broadcast(message []byte) {
	for {
		select {
		case m.broadcast <- message:
			return
		default:
		}
		select {
		case <-m.broadcast:
		default:
		}
	}
}

func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	delete(m.clients, client)
	m.mutex.Unlock()
	client.close()
}

func (m *Manager) greet(client *Client) {
	if m.greeting == nil {
		return
	}
	message, err := m.greeting()
	if err != nil {
		m.log.Error("Failed to build greeting", "user_id", client.UserID, "error", err)
		return
	}
	client.trySend(message)
}

// ReadPump reads client messages until the connection drops.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Drop(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.Warn("Unexpected close", "user_id", c.UserID, "error", err)
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump sends queued messages and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
