package session

import (
	"encoding/json"

	"massiliafm/model"
)

// MessageType names a WebSocket message on the player channel.
type MessageType string

const (
	// Commands from UI surfaces to the engine.
	MsgTypePlay        MessageType = "play"         // load a track (and optionally a playlist) and play it
	MsgTypePause       MessageType = "pause"        // pause playback
	MsgTypeResume      MessageType = "resume"       // resume the current track
	MsgTypeNext        MessageType = "next"         // advance in the playlist
	MsgTypePrev        MessageType = "prev"         // step back in the playlist
	MsgTypeSetPlaylist MessageType = "set_playlist" // make a list the active playlist without interrupting playback

	// Status reports from the audio surface to the engine.
	MsgTypeStatus MessageType = "status"

	// Server to clients.
	MsgTypeSnapshot    MessageType = "snapshot"     // engine state changed
	MsgTypeHandleCue   MessageType = "handle_cue"   // audio surface: set the element source
	MsgTypeHandlePlay  MessageType = "handle_play"  // audio surface: request playback start
	MsgTypeHandlePause MessageType = "handle_pause" // audio surface: request pause
	MsgTypeError       MessageType = "error"

	// Heartbeat.
	MsgTypePing MessageType = "ping"
	MsgTypePong MessageType = "pong"
)

// WSMessage is the envelope for every player-channel message.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// PlayData carries a play command.
type PlayData struct {
	Track    model.TrackView   `json:"track"`
	Playlist []model.TrackView `json:"playlist,omitempty"`
	Surface  string            `json:"surface,omitempty"` // carousel, genre, transport
}

// PlaylistData carries a set_playlist command.
type PlaylistData struct {
	Playlist []model.TrackView `json:"playlist"`
}

// StatusData is the audio surface's report of what the media element
// actually did. Generation echoes the value from the handle_cue message
// the report belongs to.
type StatusData struct {
	Kind       string `json:"kind"` // started, paused, ended, error
	Generation uint64 `json:"generation"`
	Message    string `json:"message,omitempty"`
}

// CueData tells the audio surface which source to load.
type CueData struct {
	URL        string `json:"url"`
	Generation uint64 `json:"generation"`
}

// ErrorData carries a non-fatal error notice to the client.
type ErrorData struct {
	Message string `json:"message"`
}
