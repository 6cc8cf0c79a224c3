// Package showcase drives the featured-tracks carousel: a rotating
// shortlist of published tracks whose displayed slide advances on a
// fixed interval, independently of audio playback. Rotation holds only
// while the showcase's own current slide is audibly playing.
package showcase

import (
	"sync"
	"time"

	"massiliafm/core/player"
	"massiliafm/model"
)

// Showcase rotates featured slides and plays them through the shared
// engine when a listener picks one.
type Showcase struct {
	mu     sync.Mutex
	engine *player.Engine
	slides []model.TrackView
	index  int

	stop chan struct{}
	once sync.Once
}

// New creates a showcase over the given engine and slides.
func New(engine *player.Engine, slides []model.TrackView) *Showcase {
	return &Showcase{
		engine: engine,
		slides: append([]model.TrackView(nil), slides...),
		stop:   make(chan struct{}),
	}
}

// SetSlides replaces the featured shortlist, resetting the rotation.
func (s *Showcase) SetSlides(slides []model.TrackView) {
	s.mu.Lock()
	s.slides = append([]model.TrackView(nil), slides...)
	s.index = 0
	s.mu.Unlock()
}

// Current returns the displayed slide, or false when there are none.
func (s *Showcase) Current() (model.TrackView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slides) == 0 {
		return model.TrackView{}, false
	}
	return s.slides[s.index], true
}

// Index returns the displayed slide position.
func (s *Showcase) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Advance moves the displayed slide forward, wrapping at the end.
func (s *Showcase) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slides) == 0 {
		return
	}
	s.index = (s.index + 1) % len(s.slides)
}

// Tick advances the rotation unless the current slide's own track is
// audibly playing right now.
func (s *Showcase) Tick() {
	if s.holding() {
		return
	}
	s.Advance()
}

// holding reports whether rotation should pause: the engine is playing
// and what it plays is this showcase's displayed slide.
func (s *Showcase) holding() bool {
	s.mu.Lock()
	if len(s.slides) == 0 {
		s.mu.Unlock()
		return false
	}
	current := s.slides[s.index]
	s.mu.Unlock()

	snap := s.engine.Snapshot()
	return snap.IsPlaying && snap.CurrentTrack != nil &&
		snap.CurrentTrack.AudioURL == current.AudioURL
}

// PlayCurrent hands the displayed slide to the engine, with the whole
// shortlist as the active playlist.
func (s *Showcase) PlayCurrent() {
	s.mu.Lock()
	if len(s.slides) == 0 {
		s.mu.Unlock()
		return
	}
	track := s.slides[s.index]
	list := append([]model.TrackView(nil), s.slides...)
	s.mu.Unlock()

	s.engine.LoadAndPlay(track, list)
}

// Start runs the rotation loop until Stop is called.
func (s *Showcase) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Tick()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the rotation loop.
func (s *Showcase) Stop() {
	s.once.Do(func() { close(s.stop) })
}
