package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"massiliafm/core/player"
	"massiliafm/logger"
	"massiliafm/model"
)

// Session is one listening session: an engine, its remote handle, and
// the snapshot forwarder that keeps every connected surface of the
// session in sync. Sessions are created by the hub on first connect and
// torn down when the last client leaves.
type Session struct {
	ID     string
	Engine *player.Engine

	handle *remoteHandle
	sub    *player.Subscription

	mu      sync.Mutex
	surface string
}

func newSession(hub *Hub, id string) *Session {
	s := &Session{ID: id}
	s.handle = &remoteHandle{hub: hub, sessionID: id}
	s.Engine = player.NewEngine(s.handle)

	if hub.events != nil {
		s.Engine.OnTrackStarted(func(tv model.TrackView) {
			event := &model.PlayEvent{
				SessionID: id,
				TrackID:   tv.ID,
				Title:     tv.Title,
				Artist:    tv.Artist,
				Surface:   s.Surface(),
				StartedAt: time.Now(),
			}
			go func() {
				if err := hub.events.Record(event); err != nil {
					logger.Warn("failed to record play event",
						logger.ErrorField(err),
						logger.String("session", id),
						logger.Int64("track", tv.ID))
				}
			}()
		})
	}

	// Pick up the playlist of a previous connection so next/previous
	// keep working after a reload. What was playing is not resumed;
	// the surface decides when sound starts again.
	if hub.cache != nil {
		if snap, ok, err := hub.cache.LoadSnapshot(context.Background(), id); err == nil && ok {
			s.Engine.SetPlaylist(snap.Playlist)
		}
	}

	s.sub = s.Engine.Subscribe()
	go s.forwardSnapshots(hub)

	return s
}

// forwardSnapshots pushes every engine snapshot to the session's
// clients and persists it. Runs until the subscription is closed.
func (s *Session) forwardSnapshots(hub *Hub) {
	for snap := range s.sub.C {
		data, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		hub.BroadcastWSMessage(s.ID, &WSMessage{
			Type:      MsgTypeSnapshot,
			SessionID: s.ID,
			Data:      data,
		}, "", "")

		if hub.cache != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := hub.cache.SaveSnapshot(ctx, s.ID, snap); err != nil {
				logger.Warn("failed to persist session snapshot",
					logger.ErrorField(err),
					logger.String("session", s.ID))
			}
			cancel()
		}
	}
}

// Surface returns the UI surface the last play command came from.
func (s *Session) Surface() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

func (s *Session) setSurface(surface string) {
	if surface == "" {
		return
	}
	s.mu.Lock()
	s.surface = surface
	s.mu.Unlock()
}

// handleMessage dispatches one client message to the engine.
func (s *Session) handleMessage(client *Client, msg *WSMessage) {
	switch msg.Type {
	case MsgTypePlay:
		var data PlayData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			client.sendError("invalid play payload")
			return
		}
		s.setSurface(data.Surface)
		s.Engine.LoadAndPlay(data.Track, data.Playlist)

	case MsgTypePause:
		s.Engine.Pause()

	case MsgTypeResume:
		s.Engine.Resume()

	case MsgTypeNext:
		s.Engine.Next()

	case MsgTypePrev:
		s.Engine.Previous()

	case MsgTypeSetPlaylist:
		var data PlaylistData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			client.sendError("invalid playlist payload")
			return
		}
		s.Engine.SetPlaylist(data.Playlist)

	case MsgTypeStatus:
		if client.Mode != ModeAudio {
			// Only the audio surface speaks for the media element.
			return
		}
		var data StatusData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			client.sendError("invalid status payload")
			return
		}
		s.handle.Report(data)

	default:
		logger.Debug("unhandled player message",
			logger.String("type", string(msg.Type)),
			logger.String("session", s.ID))
	}
}

// close detaches the session from its engine.
func (s *Session) close() {
	s.sub.Close()
	s.handle.Notify(nil)
}
