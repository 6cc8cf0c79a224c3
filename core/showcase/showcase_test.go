package showcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"massiliafm/core/player"
	"massiliafm/model"
)

func slides() []model.TrackView {
	return []model.TrackView{
		{Title: "One", Artist: "A", AudioURL: "one.mp3"},
		{Title: "Two", Artist: "B", AudioURL: "two.mp3"},
		{Title: "Three", Artist: "C", AudioURL: "three.mp3"},
	}
}

func TestAdvanceWrapsAround(t *testing.T) {
	e := player.NewEngine(player.NewMockHandle())
	sc := New(e, slides())

	sc.Advance()
	sc.Advance()
	assert.Equal(t, 2, sc.Index())
	sc.Advance()
	assert.Equal(t, 0, sc.Index())
}

func TestTickRotatesWhenEngineIdle(t *testing.T) {
	e := player.NewEngine(player.NewMockHandle())
	sc := New(e, slides())

	sc.Tick()
	assert.Equal(t, 1, sc.Index())
}

func TestTickHoldsWhileOwnSlidePlays(t *testing.T) {
	e := player.NewEngine(player.NewMockHandle())
	sc := New(e, slides())

	sc.PlayCurrent()
	require.True(t, e.Snapshot().IsPlaying)

	sc.Tick()
	assert.Equal(t, 0, sc.Index(), "rotation holds on the audible slide")
}

func TestTickRotatesWhileDifferentTrackPlays(t *testing.T) {
	e := player.NewEngine(player.NewMockHandle())
	sc := New(e, slides())

	// Something unrelated is playing; the carousel keeps rotating.
	e.LoadAndPlay(model.TrackView{Title: "X", AudioURL: "x.mp3"}, nil)
	require.True(t, e.Snapshot().IsPlaying)

	sc.Tick()
	assert.Equal(t, 1, sc.Index())
}

func TestTickRotatesWhenOwnSlidePaused(t *testing.T) {
	e := player.NewEngine(player.NewMockHandle())
	sc := New(e, slides())

	sc.PlayCurrent()
	e.Pause()
	require.False(t, e.Snapshot().IsPlaying)

	sc.Tick()
	assert.Equal(t, 1, sc.Index(), "a paused slide does not hold the rotation")
}

func TestPlayCurrentUsesShortlistAsPlaylist(t *testing.T) {
	e := player.NewEngine(player.NewMockHandle())
	sc := New(e, slides())
	sc.Advance()

	sc.PlayCurrent()

	snap := e.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "two.mp3", snap.CurrentTrack.AudioURL)
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Len(t, snap.Playlist, 3)
}

func TestEmptyShowcase(t *testing.T) {
	e := player.NewEngine(player.NewMockHandle())
	sc := New(e, nil)

	sc.Tick()
	sc.PlayCurrent()

	_, ok := sc.Current()
	assert.False(t, ok)
	assert.Nil(t, e.Snapshot().CurrentTrack)
}
