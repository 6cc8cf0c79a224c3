package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"massiliafm/cache"
	"massiliafm/logger"
	"massiliafm/repository"
)

// Client modes. The audio surface owns the media element and executes
// handle commands; view surfaces only render snapshots.
const (
	ModeAudio = "audio"
	ModeView  = "view"
)

// Client is one WebSocket connection attached to a session.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
	ClientID  string
	Mode      string
}

// Hub owns the player sessions and fans messages out to their clients.
type Hub struct {
	cache  *cache.SessionCache
	events repository.PlayEventRepository

	// session -> client set
	clients map[string]map[*Client]bool

	// session -> engine wiring
	sessions map[string]*Session

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu   sync.RWMutex
	done chan struct{}
}

// BroadcastMessage targets every client of one session, optionally
// filtered by mode or excluding the sender.
type BroadcastMessage struct {
	SessionID string
	Message   []byte
	ExcludeID string // client to skip (usually the sender)
	OnlyMode  string // deliver only to this mode when set
}

// NewHub creates a hub. Both collaborators may be nil: without a cache
// sessions simply are not persisted, without a repository no listen
// history is recorded.
func NewHub(sessionCache *cache.SessionCache, events repository.PlayEventRepository) *Hub {
	return &Hub{
		cache:      sessionCache,
		events:     events,
		clients:    make(map[string]map[*Client]bool),
		sessions:   make(map[string]*Session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToSession(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop shuts the hub down.
func (h *Hub) Stop() {
	close(h.done)
}

// Register hands a client to the hub loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister detaches a client from the hub loop.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a raw message for one session's clients.
func (h *Hub) Broadcast(sessionID string, message []byte, excludeID, onlyMode string) {
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message:   message,
		ExcludeID: excludeID,
		OnlyMode:  onlyMode,
	}
}

// BroadcastWSMessage marshals and queues a message for one session.
func (h *Hub) BroadcastWSMessage(sessionID string, msg *WSMessage, excludeID, onlyMode string) error {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(sessionID, data, excludeID, onlyMode)
	return nil
}

// Session returns the session wiring for an id, or nil.
func (h *Hub) Session(sessionID string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[sessionID]
}

// ClientCount reports how many clients a session has.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()

	sessionID := client.SessionID
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*Client]bool)
	}
	h.clients[sessionID][client] = true

	sess := h.sessions[sessionID]
	if sess == nil {
		sess = newSession(h, sessionID)
		h.sessions[sessionID] = sess
	}
	h.mu.Unlock()

	// Bring the newcomer up to date without waiting for a change.
	snap := sess.Engine.Snapshot()
	if data, err := json.Marshal(snap); err == nil {
		client.SendMessage(&WSMessage{
			Type:      MsgTypeSnapshot,
			SessionID: sessionID,
			Data:      data,
		})
	}

	logger.Info("player client registered",
		logger.String("session", sessionID),
		logger.String("client", client.ClientID),
		logger.String("mode", client.Mode))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeClient(client)
}

// removeClient drops a client and tears the session down when it was
// the last one. Caller holds the lock.
func (h *Hub) removeClient(client *Client) {
	sessionID := client.SessionID

	if clients, ok := h.clients[sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.Send)

			if len(clients) == 0 {
				delete(h.clients, sessionID)
				if sess := h.sessions[sessionID]; sess != nil {
					sess.close()
					delete(h.sessions, sessionID)
				}
			}
		}
	}

	logger.Info("player client unregistered",
		logger.String("session", sessionID),
		logger.String("client", client.ClientID))
}

func (h *Hub) broadcastToSession(msg *BroadcastMessage) {
	h.mu.RLock()
	clients, ok := h.clients[msg.SessionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, client := range clientList {
		if msg.ExcludeID != "" && client.ClientID == msg.ExcludeID {
			continue
		}
		if msg.OnlyMode != "" && client.Mode != msg.OnlyMode {
			continue
		}

		select {
		case client.Send <- msg.Message:
		default:
			// Send buffer full, drop the client.
			slow = append(slow, client)
		}
	}

	if len(slow) > 0 {
		h.mu.Lock()
		for _, client := range slow {
			h.removeClient(client)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.Send)
		}
	}
	for _, sess := range h.sessions {
		sess.close()
	}
	h.clients = make(map[string]map[*Client]bool)
	h.sessions = make(map[string]*Session)
}

// HandleMessage routes one inbound client message. Pings are answered
// directly; everything else goes to the session.
func (h *Hub) HandleMessage(ctx context.Context, client *Client, msg *WSMessage) {
	if msg.Type == MsgTypePing {
		if h.cache != nil {
			if err := h.cache.Touch(ctx, client.SessionID); err != nil {
				logger.Debug("failed to refresh session ttl",
					logger.ErrorField(err),
					logger.String("session", client.SessionID))
			}
		}
		client.SendMessage(&WSMessage{Type: MsgTypePong})
		return
	}

	sess := h.Session(client.SessionID)
	if sess == nil {
		client.sendError("session not found")
		return
	}
	sess.handleMessage(client, msg)
}

// ========== Client methods ==========

// ReadPump reads client messages until the connection drops.
func (c *Client) ReadPump(ctx context.Context, handler func(ctx context.Context, client *Client, msg *WSMessage)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536) // 64KB, playlists ride in here
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := c.Conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warn("websocket read error",
						logger.ErrorField(err),
						logger.String("session", c.SessionID),
						logger.String("client", c.ClientID))
				}
				return
			}

			var msg WSMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				logger.Warn("invalid message format",
					logger.ErrorField(err),
					logger.String("session", c.SessionID))
				continue
			}

			handler(ctx, c, &msg)
		}
	}
}

// WritePump writes queued messages and keeps the connection alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain whatever queued up behind this message.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues a message for the client, dropping it when the
// buffer is full.
func (c *Client) SendMessage(msg *WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return nil
	}
}

func (c *Client) sendError(message string) {
	data, err := json.Marshal(ErrorData{Message: message})
	if err != nil {
		return
	}
	c.SendMessage(&WSMessage{Type: MsgTypeError, SessionID: c.SessionID, Data: data})
}
