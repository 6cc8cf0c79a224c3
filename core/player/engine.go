package player

import (
	"sync"

	"massiliafm/logger"
	"massiliafm/model"
)

// Snapshot is the state handed to every subscribed surface after each
// change. Surfaces never reach into the engine; they render snapshots
// and call the engine's operations.
type Snapshot struct {
	CurrentTrack *model.TrackView  `json:"currentTrack"`
	IsPlaying    bool              `json:"isPlaying"`
	Playlist     []model.TrackView `json:"playlist"`
	CurrentIndex int               `json:"currentIndex"`
}

// Subscription is one surface's feed of snapshots. Slow consumers lose
// intermediate snapshots rather than block the engine.
type Subscription struct {
	C      <-chan Snapshot
	cancel func()
}

// Close detaches the subscription from the engine.
func (s *Subscription) Close() {
	s.cancel()
}

// Engine owns what is playing, from which list, at which position, and
// drives the single audio handle of a listening session. Tracks are
// identified by audio URL; duplicate URLs in one playlist are
// indistinguishable, which is a known limit of the catalog contract.
//
// State mutations from the public operations apply synchronously.
// isPlaying follows the handle's own status events, never the caller's
// intention, so it may trail a LoadAndPlay by however long the handle
// takes to confirm the start.
type Engine struct {
	mu       sync.Mutex
	handle   Handle
	playlist []model.TrackView
	current  *model.TrackView
	index    int
	playing  bool
	gen      uint64

	subs   map[int]chan Snapshot
	nextID int

	onStarted func(model.TrackView)
}

// NewEngine creates an engine bound to the given handle and wires the
// status bridge. The bridge is installed exactly once per handle; use
// SetHandle to swap handles without doubling subscriptions.
func NewEngine(h Handle) *Engine {
	e := &Engine{
		handle: h,
		index:  -1,
		subs:   make(map[int]chan Snapshot),
	}
	h.Notify(e.handleEvent)
	return e
}

// SetHandle replaces the audio handle, tearing down the old status
// bridge before wiring the new one.
func (e *Engine) SetHandle(h Handle) {
	e.mu.Lock()
	old := e.handle
	e.handle = h
	e.mu.Unlock()

	if old != nil {
		old.Notify(nil)
	}
	h.Notify(e.handleEvent)
}

// OnTrackStarted installs a callback invoked whenever the handle
// confirms a track actually started. Used for listen history.
func (e *Engine) OnTrackStarted(fn func(model.TrackView)) {
	e.mu.Lock()
	e.onStarted = fn
	e.mu.Unlock()
}

// Subscribe registers a surface for snapshot notifications.
func (e *Engine) Subscribe() *Subscription {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	ch := make(chan Snapshot, 16)
	e.subs[id] = ch
	e.mu.Unlock()

	return &Subscription{
		C: ch,
		cancel: func() {
			e.mu.Lock()
			if c, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(c)
			}
			e.mu.Unlock()
		},
	}
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// LoadAndPlay plays the given track immediately. When list is non-empty
// it becomes the active playlist and the track is located in it by
// audio URL; a track missing from its own list plays at index 0 with
// the supplied list authoritative for later next/previous calls. When
// list is empty the existing playlist is searched best-effort.
//
// Re-invoking on the track that is already current and audibly playing
// pauses instead of restarting, so one control can double as
// play/pause. Tracks without an audio URL are refused outright.
func (e *Engine) LoadAndPlay(track model.TrackView, list []model.TrackView) {
	if track.AudioURL == "" {
		logger.Debug("refusing track without audio url",
			logger.String("title", track.Title))
		return
	}

	e.mu.Lock()
	if len(list) > 0 {
		e.playlist = append([]model.TrackView(nil), list...)
		if i := indexByURL(e.playlist, track.AudioURL); i >= 0 {
			e.index = i
		} else {
			e.index = 0
		}
	} else if len(e.playlist) > 0 {
		if i := indexByURL(e.playlist, track.AudioURL); i >= 0 {
			e.index = i
		}
	} else {
		// A lone track with no list behaves as a singleton playlist.
		e.playlist = []model.TrackView{track}
		e.index = 0
	}

	if e.current != nil && e.current.AudioURL == track.AudioURL && e.playing {
		h := e.handle
		e.mu.Unlock()
		h.Pause()
		e.publish()
		return
	}

	t := track
	e.current = &t
	// Cueing silences the old source; playing turns true again only
	// when the handle confirms the new start.
	e.playing = false
	e.gen++
	gen := e.gen
	h := e.handle
	e.mu.Unlock()

	e.cueAndPlay(h, t, gen)
	e.publish()
}

// Pause requests the handle pause. No-op if already paused.
func (e *Engine) Pause() {
	e.mu.Lock()
	h := e.handle
	e.mu.Unlock()
	h.Pause()
}

// Resume restarts playback of the current track, if any.
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}
	h := e.handle
	e.mu.Unlock()

	if err := h.Play(); err != nil {
		logger.Warn("resume rejected", logger.ErrorField(err))
	}
}

// Next advances to the following track, wrapping at the end of the
// playlist. No-op when the playlist is empty.
func (e *Engine) Next() {
	e.step(1)
}

// Previous steps back to the preceding track, wrapping at the start.
func (e *Engine) Previous() {
	e.step(-1)
}

// SetPlaylist makes list the active playlist for future traversal
// without touching the current track, index, or play state.
func (e *Engine) SetPlaylist(list []model.TrackView) {
	e.mu.Lock()
	e.playlist = append([]model.TrackView(nil), list...)
	e.mu.Unlock()
	e.publish()
}

func (e *Engine) step(delta int) {
	e.mu.Lock()
	n := len(e.playlist)
	if n == 0 {
		e.mu.Unlock()
		return
	}

	idx := ((e.index+delta)%n + n) % n
	t := e.playlist[idx]
	e.index = idx
	if t.AudioURL == "" {
		// Keeps the non-empty-URL invariant on currentTrack; the
		// index still moves so repeated calls escape the bad entry.
		e.mu.Unlock()
		logger.Debug("skipping playlist entry without audio url",
			logger.Int("index", idx))
		e.publish()
		return
	}
	e.current = &t
	e.playing = false
	e.gen++
	gen := e.gen
	h := e.handle
	e.mu.Unlock()

	e.cueAndPlay(h, t, gen)
	e.publish()
}

// handleEvent is the bridge from the handle's status notifications to
// engine state. Events stamped with a superseded generation are
// discarded: a stale "started" from a source the engine already moved
// past must not resurrect it.
func (e *Engine) handleEvent(ev Event) {
	e.mu.Lock()
	if ev.Generation != e.gen {
		e.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventStarted:
		e.playing = true
		var started *model.TrackView
		fn := e.onStarted
		if fn != nil && e.current != nil {
			t := *e.current
			started = &t
		}
		e.mu.Unlock()
		if started != nil {
			fn(*started)
		}
		e.publish()

	case EventPaused:
		e.playing = false
		e.mu.Unlock()
		e.publish()

	case EventError:
		// A failed track is not a finished track: no auto-advance,
		// or broken URLs would cycle forever.
		e.playing = false
		e.mu.Unlock()
		logger.Warn("playback error reported by handle", logger.ErrorField(ev.Err))
		e.publish()

	case EventEnded:
		e.playing = false
		n := len(e.playlist)
		if n == 0 {
			e.mu.Unlock()
			e.publish()
			return
		}
		idx := (e.index + 1) % n
		t := e.playlist[idx]
		e.index = idx
		if t.AudioURL == "" {
			e.mu.Unlock()
			e.publish()
			return
		}
		e.current = &t
		e.gen++
		gen := e.gen
		h := e.handle
		e.mu.Unlock()

		e.cueAndPlay(h, t, gen)
		e.publish()

	default:
		e.mu.Unlock()
	}
}

// cueAndPlay points the handle at a track and requests start. Start
// rejection is logged, never propagated; the handle's own events keep
// isPlaying truthful.
func (e *Engine) cueAndPlay(h Handle, t model.TrackView, gen uint64) {
	h.Cue(t.AudioURL, gen)
	if err := h.Play(); err != nil {
		logger.Warn("playback start rejected",
			logger.String("title", t.Title),
			logger.ErrorField(err))
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		IsPlaying:    e.playing,
		Playlist:     append([]model.TrackView(nil), e.playlist...),
		CurrentIndex: e.index,
	}
	if e.current != nil {
		t := *e.current
		snap.CurrentTrack = &t
	}
	return snap
}

func (e *Engine) publish() {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.snapshotLocked()
	// Sends stay under the lock so a concurrent Close cannot shut a
	// channel mid-publish; they never block, so nothing stalls.
	for _, ch := range e.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func indexByURL(list []model.TrackView, url string) int {
	for i, t := range list {
		if t.AudioURL == url {
			return i
		}
	}
	return -1
}
