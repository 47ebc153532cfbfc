package sound

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// MockOutput implements Output without touching audio hardware. Playback
// never finishes on its own; tests end it explicitly with Finish or
// FinishAll, which keeps completion timing deterministic.
type MockOutput struct {
	mu      sync.Mutex
	format  Format
	players []*MockPlayer
	closed  bool

	// Test helpers
	PlayersCreated int
	PlayersClosed  int
}

// NewMockOutput creates a mock output for the given format.
func NewMockOutput(format Format) *MockOutput {
	return &MockOutput{
		format:  format,
		players: make([]*MockPlayer, 0),
	}
}

// NewPlayer creates a mock player. The reader is held, never drained:
// looping sources hand over an endless reader, and the real backend
// streams it lazily too.
func (m *MockOutput) NewPlayer(r io.Reader) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrOutputClosed
	}

	p := &MockPlayer{
		output: m,
		src:    r,
		volume: 1.0,
	}
	m.players = append(m.players, p)
	m.PlayersCreated++

	log.Debug("Created mock player", "players_created", m.PlayersCreated)
	return p, nil
}

// Close closes the output and every live player.
func (m *MockOutput) Close() error {
	m.mu.Lock()
	players := m.players
	m.players = nil
	m.closed = true
	m.mu.Unlock()

	for _, p := range players {
		_ = p.Close()
	}
	return nil
}

// IsReady reports whether the output accepts new players.
func (m *MockOutput) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// SampleRate returns the configured sample rate.
func (m *MockOutput) SampleRate() int { return m.format.SampleRate }

// ChannelCount returns the configured channel count.
func (m *MockOutput) ChannelCount() int { return m.format.Channels }

// FinishAll ends playback on every live player, as if each clip had
// played to its end.
func (m *MockOutput) FinishAll() {
	m.mu.Lock()
	players := make([]*MockPlayer, len(m.players))
	copy(players, m.players)
	m.mu.Unlock()

	for _, p := range players {
		p.Finish()
	}
}

// LivePlayers returns the number of players that have not been closed.
func (m *MockOutput) LivePlayers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.players {
		if !p.closed.Load() {
			n++
		}
	}
	return n
}

func (m *MockOutput) forget(p *MockPlayer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.players {
		if q == p {
			m.players = append(m.players[:i], m.players[i+1:]...)
			break
		}
	}
	m.PlayersClosed++
}

// MockPlayer is one fake playback channel.
type MockPlayer struct {
	output *MockOutput
	src    io.Reader

	mu       sync.Mutex
	volume   float64
	playing  bool
	finished bool
	closed   atomic.Bool
}

// Play marks the player as playing, unless it already finished.
func (p *MockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.finished && !p.closed.Load() {
		p.playing = true
	}
}

// Pause suspends playback.
func (p *MockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

// IsPlaying reports whether the player is still consuming audio.
func (p *MockPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.finished
}

// SetVolume stores the volume.
func (p *MockPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(volume)
}

// Volume returns the stored volume.
func (p *MockPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Finish simulates the clip reaching its end.
func (p *MockPlayer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.finished = true
}

// Close releases the player.
func (p *MockPlayer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	p.output.forget(p)
	return nil
}
