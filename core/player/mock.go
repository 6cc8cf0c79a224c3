package player

import "sync"

// MockHandle is a test double for Handle. Events are emitted
// synchronously through the installed listener, stamped with the
// generation of the most recent Cue unless overridden.
type MockHandle struct {
	mu       sync.Mutex
	listener func(Event)
	source   string
	gen      uint64
	playErr  error

	cueCalls   []string
	playCalls  int
	pauseCalls int
}

// NewMockHandle creates a mock audio handle for testing.
func NewMockHandle() *MockHandle {
	return &MockHandle{}
}

func (m *MockHandle) Cue(url string, gen uint64) {
	m.mu.Lock()
	m.source = url
	m.gen = gen
	m.cueCalls = append(m.cueCalls, url)
	m.mu.Unlock()
}

func (m *MockHandle) Play() error {
	m.mu.Lock()
	m.playCalls++
	err := m.playErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.EmitStarted()
	return nil
}

func (m *MockHandle) Pause() {
	m.mu.Lock()
	m.pauseCalls++
	m.mu.Unlock()
	m.EmitPaused()
}

func (m *MockHandle) Notify(fn func(Event)) {
	m.mu.Lock()
	m.listener = fn
	m.mu.Unlock()
}

// Test helpers.

func (m *MockHandle) emit(ev Event) {
	m.mu.Lock()
	fn := m.listener
	m.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// EmitStarted reports playback start for the current source.
func (m *MockHandle) EmitStarted() {
	m.emit(Event{Kind: EventStarted, Generation: m.Generation()})
}

// EmitPaused reports a pause of the current source.
func (m *MockHandle) EmitPaused() {
	m.emit(Event{Kind: EventPaused, Generation: m.Generation()})
}

// EmitEnded reports that the current source played to completion.
func (m *MockHandle) EmitEnded() {
	m.emit(Event{Kind: EventEnded, Generation: m.Generation()})
}

// EmitError reports a playback failure of the current source.
func (m *MockHandle) EmitError(err error) {
	m.emit(Event{Kind: EventError, Generation: m.Generation(), Err: err})
}

// EmitWithGeneration sends an event stamped with an arbitrary
// generation, for exercising the stale-notification guard.
func (m *MockHandle) EmitWithGeneration(kind EventKind, gen uint64) {
	m.emit(Event{Kind: kind, Generation: gen})
}

// SetPlayError makes subsequent Play calls fail synchronously.
func (m *MockHandle) SetPlayError(err error) {
	m.mu.Lock()
	m.playErr = err
	m.mu.Unlock()
}

// Source returns the most recently cued URL.
func (m *MockHandle) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// Generation returns the generation of the most recent Cue.
func (m *MockHandle) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// CueCalls returns every URL cued so far.
func (m *MockHandle) CueCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cueCalls...)
}

// PauseCalls returns how many times Pause was requested.
func (m *MockHandle) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

var _ Handle = (*MockHandle)(nil)
