package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"massiliafm/core/session"
	"massiliafm/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled at the router
	},
}

// PlayerWSHandler attaches a surface to a player session over
// WebSocket. Query parameters:
// - session: session id; a fresh one is minted when absent
// - mode: "audio" for the surface that owns the media element,
//   anything else is a view-only surface
func (h *APIHandler) PlayerWSHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	mode := session.ModeView
	if r.URL.Query().Get("mode") == session.ModeAudio {
		mode = session.ModeAudio
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &session.Client{
		Hub:       h.hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
		ClientID:  uuid.NewString(),
		Mode:      mode,
	}

	h.hub.Register(client)

	go client.WritePump()
	// The request context dies with this handler; the pump outlives it.
	go client.ReadPump(context.Background(), h.hub.HandleMessage)
}
