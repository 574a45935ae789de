package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AnalysisEvent describes websocket payloads emitted as analyses complete.
type AnalysisEvent struct {
	Type      string       `json:"type"`
	Analysis  *AnalysisDTO `json:"analysis,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// AnalysisNotifier keeps track of active websocket clients and broadcasts
// completed analyses to them.
type AnalysisNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewAnalysisNotifier constructs a notifier instance.
func NewAnalysisNotifier() *AnalysisNotifier {
	return &AnalysisNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and returns a client handle.
func (n *AnalysisNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	n.mu.Unlock()
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *AnalysisNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
// Clients that fail to accept the write are dropped.
func (n *AnalysisNotifier) Broadcast(event AnalysisEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// ClientCount reports the number of connected websocket clients.
func (n *AnalysisNotifier) ClientCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
