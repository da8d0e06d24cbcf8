package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager tracks which WebSocket clients are watching which marketplace item
// and fans marketplace events out to them.
type Manager struct {
	// Map of itemID -> set of connections watching that item
	subscribers sync.Map // map[string]*sync.Map of *Client -> bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *EventMessage
}

// Client represents a WebSocket client connection watching one item
type Client struct {
	ID     string
	ItemID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// EventMessage is a marketplace event destined for every watcher of an item
type EventMessage struct {
	ItemID  string
	Payload []byte
}

// NewManager creates a new WebSocket manager
func NewManager() *Manager {
	return &Manager{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *EventMessage, 256),
	}
}

// Run starts the manager's main loop. Run this in a goroutine.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.registerClient(client)

		case client := <-m.unregister:
			m.unregisterClient(client)

		case message := <-m.broadcast:
			m.broadcastToItem(message.ItemID, message.Payload)
		}
	}
}

// RegisterClient adds a client to the manager
func (m *Manager) RegisterClient(client *Client) {
	m.register <- client
}

// UnregisterClient removes a client from the manager
func (m *Manager) UnregisterClient(client *Client) {
	m.unregister <- client
}

// Broadcast sends a marketplace event to all clients watching an item
func (m *Manager) Broadcast(itemID string, payload []byte) {
	m.broadcast <- &EventMessage{
		ItemID:  itemID,
		Payload: payload,
	}
}

func (m *Manager) registerClient(client *Client) {
	subscribers, _ := m.subscribers.LoadOrStore(client.ItemID, &sync.Map{})
	subscriberMap := subscribers.(*sync.Map)

	subscriberMap.Store(client, true)

	fmt.Printf("Client %s watching item %s\n", client.ID, client.ItemID)

	go client.writePump()
}

func (m *Manager) unregisterClient(client *Client) {
	if subscribers, ok := m.subscribers.Load(client.ItemID); ok {
		subscriberMap := subscribers.(*sync.Map)
		subscriberMap.Delete(client)
	}

	close(client.Send)
	client.Conn.Close()

	fmt.Printf("Client %s stopped watching item %s\n", client.ID, client.ItemID)
}

func (m *Manager) broadcastToItem(itemID string, payload []byte) {
	if subscribers, ok := m.subscribers.Load(itemID); ok {
		subscriberMap := subscribers.(*sync.Map)

		count := 0
		subscriberMap.Range(func(key, value interface{}) bool {
			client := key.(*Client)
			select {
			case client.Send <- payload:
				count++
			default:
				// Client's send channel is full; disconnect it so one slow
				// client cannot block the others
				m.UnregisterClient(client)
			}
			return true
		})

		fmt.Printf("Broadcasted to %d clients watching item %s\n", count, itemID)
	}
}

// GetSubscriberCount returns the number of clients watching an item
func (m *Manager) GetSubscriberCount(itemID string) int {
	if subscribers, ok := m.subscribers.Load(itemID); ok {
		subscriberMap := subscribers.(*sync.Map)
		count := 0
		subscriberMap.Range(func(_, _ interface{}) bool {
			count++
			return true
		})
		return count
	}
	return 0
}

// writePump pumps messages from the Send channel to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// Ping to keep the connection alive
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client messages and detects disconnects
func (c *Client) readPump(unregister chan *Client) {
	defer func() {
		unregister <- c
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("WebSocket error: %v\n", err)
			}
			break
		}
	}
}

// StartReadPump starts the read pump for this client
func (c *Client) StartReadPump(unregister chan *Client) {
	go c.readPump(unregister)
}
