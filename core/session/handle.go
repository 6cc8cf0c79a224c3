package session

import (
	"encoding/json"
	"sync"
	"time"

	"massiliafm/core/player"
)

// remoteHandle bridges an engine to whichever connected surface declared
// itself the audio output. Commands go out as WebSocket messages to
// audio-mode clients; the surface executes them against its media
// element and reports back with status messages, which flow in through
// Report.
type remoteHandle struct {
	hub       *Hub
	sessionID string

	mu       sync.Mutex
	listener func(player.Event)
}

var _ player.Handle = (*remoteHandle)(nil)

func (r *remoteHandle) Cue(url string, gen uint64) {
	data, err := json.Marshal(CueData{URL: url, Generation: gen})
	if err != nil {
		return
	}
	r.send(&WSMessage{Type: MsgTypeHandleCue, SessionID: r.sessionID, Data: data})
}

// Play requests playback. The real outcome arrives asynchronously as a
// started or error status report, so there is nothing to reject here.
func (r *remoteHandle) Play() error {
	r.send(&WSMessage{Type: MsgTypeHandlePlay, SessionID: r.sessionID})
	return nil
}

func (r *remoteHandle) Pause() {
	r.send(&WSMessage{Type: MsgTypeHandlePause, SessionID: r.sessionID})
}

func (r *remoteHandle) Notify(fn func(player.Event)) {
	r.mu.Lock()
	r.listener = fn
	r.mu.Unlock()
}

// Report converts a surface status message into a handle event.
// Unknown kinds are dropped.
func (r *remoteHandle) Report(status StatusData) {
	var kind player.EventKind
	switch status.Kind {
	case "started":
		kind = player.EventStarted
	case "paused":
		kind = player.EventPaused
	case "ended":
		kind = player.EventEnded
	case "error":
		kind = player.EventError
	default:
		return
	}

	ev := player.Event{Kind: kind, Generation: status.Generation}
	if kind == player.EventError && status.Message != "" {
		ev.Err = &surfaceError{message: status.Message}
	}

	r.mu.Lock()
	fn := r.listener
	r.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (r *remoteHandle) send(msg *WSMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	r.hub.Broadcast(r.sessionID, data, "", ModeAudio)
}

// surfaceError wraps an error string reported over the wire.
type surfaceError struct {
	message string
}

func (e *surfaceError) Error() string {
	return e.message
}
