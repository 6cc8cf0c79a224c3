package player

// EventKind names a status notification from the audio handle.
type EventKind string

const (
	// EventStarted reports that playback of the cued source actually
	// began. Playback start is asynchronous; the engine never assumes
	// it succeeded.
	EventStarted EventKind = "started"
	// EventPaused reports that the handle stopped producing audio at
	// the user's request.
	EventPaused EventKind = "paused"
	// EventEnded reports that the cued source played to completion.
	EventEnded EventKind = "ended"
	// EventError reports a playback failure, either at start or
	// mid-stream.
	EventError EventKind = "error"
)

// Event is a status notification emitted by a Handle. Generation echoes
// the value passed to the most recent Cue so the engine can discard
// notifications that refer to a source it has already moved past.
type Event struct {
	Kind       EventKind
	Generation uint64
	Err        error
}

// Handle is the single audio output the engine drives. Exactly one
// handle exists per session; every playback operation goes through it.
// Cueing a new source implicitly cancels any in-flight start request
// for the previous one.
type Handle interface {
	// Cue points the handle at a new source. gen tags all subsequent
	// events for this source.
	Cue(url string, gen uint64)
	// Play requests playback start. The returned error covers only
	// synchronous rejection; asynchronous failures arrive as
	// EventError events.
	Play() error
	// Pause requests playback stop. No-op if already paused.
	Pause()
	// Notify installs the status callback, replacing any previous one.
	// Passing nil detaches the listener.
	Notify(fn func(Event))
}
