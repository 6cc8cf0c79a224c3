package player

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
)

// SpeakerHandle is the local audio output used by the station-monitor
// CLI: it streams the cued MP3 over HTTP and plays it on the machine's
// speaker. In the web app the handle lives in the browser; this one
// lets the same engine run without a browser at all.
type SpeakerHandle struct {
	mu       sync.Mutex
	listener func(Event)
	url      string
	gen      uint64

	ctrl     *beep.Ctrl
	streamer beep.StreamSeekCloser
	body     io.Closer
	ready    bool // speaker.Init done
}

// NewSpeakerHandle creates a speaker-backed audio handle.
func NewSpeakerHandle() *SpeakerHandle {
	return &SpeakerHandle{}
}

// Cue stops whatever is playing and points the handle at a new source.
func (s *SpeakerHandle) Cue(url string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.url = url
	s.gen = gen
}

// Play starts playback of the cued source, or unpauses it if it is
// already decoded. Fetch and decode failures are returned synchronously.
func (s *SpeakerHandle) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
		s.emitLocked(Event{Kind: EventStarted, Generation: s.gen})
		return nil
	}

	if s.url == "" {
		return fmt.Errorf("no source cued")
	}

	resp, err := http.Get(s.url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, s.url)
	}

	streamer, format, err := mp3.Decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return fmt.Errorf("failed to decode mp3: %w", err)
	}

	if !s.ready {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			resp.Body.Close()
			return fmt.Errorf("failed to init speaker: %w", err)
		}
		s.ready = true
	}

	s.streamer = streamer
	s.body = resp.Body
	s.ctrl = &beep.Ctrl{Streamer: streamer, Paused: false}

	gen := s.gen
	// The callback runs on the mixer goroutine; the engine reacts to
	// "ended" by cueing the next track, which touches the speaker
	// again, so hand the event off to a fresh goroutine.
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
		go s.emit(Event{Kind: EventEnded, Generation: gen})
	})))

	s.emitLocked(Event{Kind: EventStarted, Generation: gen})
	return nil
}

// Pause stops audio output without releasing the stream.
func (s *SpeakerHandle) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.emitLocked(Event{Kind: EventPaused, Generation: s.gen})
}

// Notify installs the status callback.
func (s *SpeakerHandle) Notify(fn func(Event)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Close releases the current stream and its network body.
func (s *SpeakerHandle) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *SpeakerHandle) stopLocked() {
	if s.ctrl == nil {
		return
	}
	speaker.Clear()
	if s.streamer != nil {
		s.streamer.Close()
	}
	if s.body != nil {
		s.body.Close()
	}
	s.ctrl = nil
	s.streamer = nil
	s.body = nil
}

func (s *SpeakerHandle) emit(ev Event) {
	s.mu.Lock()
	s.emitLocked(ev)
	s.mu.Unlock()
}

// emitLocked releases the handle lock around the listener call: the
// engine re-enters the handle from its event path.
func (s *SpeakerHandle) emitLocked(ev Event) {
	fn := s.listener
	if fn == nil {
		return
	}
	s.mu.Unlock()
	fn(ev)
	s.mu.Lock()
}

var _ Handle = (*SpeakerHandle)(nil)
