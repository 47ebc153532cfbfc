package sound

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// SourceState is the lifecycle state of a playback source.
type SourceState int32

const (
	// SourceIdle means the source sits in the pool waiting for reuse.
	SourceIdle SourceState = iota
	// SourceActive means the source is playing (or looping) right now.
	SourceActive
)

// String returns the state name.
func (s SourceState) String() string {
	switch s {
	case SourceIdle:
		return "idle"
	case SourceActive:
		return "active"
	default:
		return "unknown"
	}
}

// Source is one reusable playback unit. Sources are created in batches by
// the pool, configured fresh on each reuse and never destroyed while the
// manager lives.
type Source struct {
	id    uuid.UUID
	state atomic.Int32

	mu       sync.Mutex
	player   Player
	clip     *Clip
	request  Request
	position Position

	// watcherStop cancels the completion watcher when the source is
	// stopped before its clip ends.
	watcherStop chan struct{}
}

func newSource() *Source {
	return &Source{id: uuid.New()}
}

// ID returns the source's unique identifier.
func (s *Source) ID() uuid.UUID { return s.id }

// State returns the current lifecycle state.
func (s *Source) State() SourceState {
	return SourceState(s.state.Load())
}

// Clip returns the clip the source was last configured with.
func (s *Source) Clip() *Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}

// Looping reports whether the source was configured to loop.
func (s *Source) Looping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request.Loop
}

// Priority returns the configured priority, lower is more important.
func (s *Source) Priority() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request.Priority
}

// Request returns a copy of the request the source was configured with.
func (s *Source) Request() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request
}

// Position returns the source's world position.
func (s *Source) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// configure picks a clip at random from the request's candidates and builds
// a fresh backend player for it. The previous player, if any, is released.
func (s *Source) configure(output Output, req Request, volume float64) error {
	clip := req.Clips[rand.Intn(len(req.Clips))]

	pcm := clip.Data
	if req.Pitch != 1.0 {
		pcm = clip.resample(req.Pitch)
	}

	var reader io.Reader
	if req.Loop {
		reader = newLoopReader(pcm)
	} else {
		reader = bytes.NewReader(pcm)
	}

	player, err := output.NewPlayer(reader)
	if err != nil {
		return fmt.Errorf("configuring source %s: %w", s.id, err)
	}
	player.SetVolume(volume)

	s.mu.Lock()
	if s.player != nil {
		_ = s.player.Close()
	}
	s.player = player
	s.clip = clip
	s.request = req
	s.watcherStop = make(chan struct{})
	s.mu.Unlock()

	return nil
}

// setPosition records the world position for positional requests.
func (s *Source) setPosition(at Position) {
	s.mu.Lock()
	s.position = at
	s.mu.Unlock()
}

// start begins playback on the configured player.
func (s *Source) start() {
	s.mu.Lock()
	player := s.player
	s.mu.Unlock()
	if player != nil {
		player.Play()
	}
}

// playing reports whether the backend is still consuming the clip.
func (s *Source) playing() bool {
	s.mu.Lock()
	player := s.player
	s.mu.Unlock()
	if player == nil {
		return false
	}
	return player.IsPlaying()
}

// setVolume applies a new volume to the live player.
func (s *Source) setVolume(volume float64) {
	s.mu.Lock()
	player := s.player
	s.mu.Unlock()
	if player != nil {
		player.SetVolume(volume)
	}
}

// stopPlayback cancels the watcher and releases the backend player. Safe
// to call on an already-stopped source.
func (s *Source) stopPlayback() {
	s.mu.Lock()
	player := s.player
	stop := s.watcherStop
	s.player = nil
	s.watcherStop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if player != nil {
		_ = player.Close()
	}
}

// watcherDone returns the channel that cancels this activation's watcher.
func (s *Source) watcherDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcherStop
}
