// Package sound plays sound effects through a pool of reusable playback
// sources and music through one dedicated source.
//
// Sources are cheap handles onto an Output backend. The pool pre-creates a
// batch of them, hands one out per effect, and a per-source completion
// watcher returns it once the clip finishes. Looping sources are exempt
// from auto-return and must be stopped by the caller.
package sound

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"soundpool/internal/registry"
)

// Manager coordinates the source pool, the dedicated music source and the
// listener position used for spatial attenuation.
type Manager struct {
	mu  sync.Mutex
	cfg Config

	output Output
	pool   *sourcePool

	// music is the single dedicated source; it is never pooled and a new
	// PlayMusic call reconfigures and restarts it in place.
	music *Source

	click    *Request
	listener Position

	muted     bool
	masterVol float64
	sfxVol    float64
	musicVol  float64
	closed    bool
	metrics   *metricsLogger
	watchers  sync.WaitGroup
}

// NewManager creates a manager with its own output backend and a pool
// pre-populated with one batch of sources.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sound manager config: %w", err)
	}

	output, err := NewOutput(cfg.Output, cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("sound manager output: %w", err)
	}

	m := &Manager{
		cfg:       cfg,
		output:    output,
		pool:      newSourcePool(cfg.BatchSize),
		masterVol: cfg.MasterVolume,
		sfxVol:    cfg.SFXVolume,
		musicVol:  cfg.MusicVolume,
		metrics:   newMetricsLogger(),
	}

	log.Debug("Sound manager created",
		"batch_size", cfg.BatchSize,
		"sample_rate", cfg.Format.SampleRate)
	return m, nil
}

// NewManagerWithOutput creates a manager on a caller-supplied backend.
// Useful for tests that need direct control over playback completion.
func NewManagerWithOutput(cfg Config, output Output) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sound manager config: %w", err)
	}
	if output == nil || !output.IsReady() {
		return nil, ErrOutputNotReady
	}

	return &Manager{
		cfg:       cfg,
		output:    output,
		pool:      newSourcePool(cfg.BatchSize),
		masterVol: cfg.MasterVolume,
		sfxVol:    cfg.SFXVolume,
		musicVol:  cfg.MusicVolume,
		metrics:   newMetricsLogger(),
	}, nil
}

// registryKey binds the manager type to its singleton slot.
const registryKey = "sound.Manager"

// Get returns the process-wide manager, creating one with default config
// on first call. Prefer constructing and injecting a Manager; Get exists
// for game code that wants a global accessor.
func Get() (*Manager, error) {
	inst, err := registry.Global().Get(registryKey, func() (any, func() error, error) {
		m, err := NewManager(DefaultConfig())
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	})
	if err != nil {
		return nil, err
	}
	return inst.(*Manager), nil
}

// PlaySound acquires a pooled source, configures it from the request,
// positions it and starts playback. Non-looping sounds are returned to the
// pool automatically when they finish; looping sounds play until Stop.
func (m *Manager) PlaySound(req Request, at Position) (*Source, error) {
	if err := req.Validate(); err != nil {
		m.metrics.requestFailed(err)
		return nil, err
	}
	req = req.normalized()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	s, err := m.pool.acquire()
	if err != nil {
		return nil, err
	}

	volume := m.sfxScaleLocked() * effectiveVolume(req, at, m.listener)
	if err := s.configure(m.output, req, volume); err != nil {
		// Undo the acquire so a failed configure leaves no active source.
		_ = m.pool.release(s)
		m.metrics.requestFailed(err)
		return nil, err
	}
	s.setPosition(at)
	s.start()

	if !req.Loop {
		m.spawnWatcherLocked(s)
	}

	m.metrics.soundPlayed(s.Clip(), req.Loop)
	return s, nil
}

// PlayMusic starts music on the dedicated source. Starting new music
// immediately reconfigures and restarts that source; there is no crossfade
// and no queueing.
func (m *Manager) PlayMusic(req Request) error {
	if err := req.Validate(); err != nil {
		m.metrics.requestFailed(err)
		return err
	}
	req = req.normalized()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}

	if m.music == nil {
		m.music = newSource()
	}

	// Music ignores spatial parameters.
	volume := m.musicScaleLocked() * clampVolume(req.Volume)
	if err := m.music.configure(m.output, req, volume); err != nil {
		m.metrics.requestFailed(err)
		return err
	}
	m.music.state.Store(int32(SourceActive))
	m.music.start()

	m.metrics.musicStarted(m.music.Clip())
	return nil
}

// SetButtonClick configures the fixed UI click sound.
func (m *Manager) SetButtonClick(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	req.Volume = m.cfg.ClickVolume
	req.Loop = false
	req.SpatialBlend = 0
	normalized := req.normalized()
	m.click = &normalized
	return nil
}

// PlayButtonClick plays the preconfigured UI sound.
func (m *Manager) PlayButtonClick() error {
	m.mu.Lock()
	click := m.click
	m.mu.Unlock()

	if click == nil {
		return ErrNoClickClip
	}
	if _, err := m.PlaySound(*click, Position{}); err != nil {
		return err
	}
	m.metrics.buttonClicked()
	return nil
}

// Stop explicitly stops a pooled source and returns it to the idle queue.
// Stopping a source that already returned is a no-op reported as
// ErrNotActive. This is the only way a looping source comes back.
func (m *Manager) Stop(s *Source) error {
	if s == nil {
		return ErrInvalidRequest
	}

	if err := m.recycle(s); err != nil {
		return err
	}
	m.metrics.stopped()
	return nil
}

// recycle returns a source to the idle queue without attributing the stop.
func (m *Manager) recycle(s *Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	return m.pool.release(s)
}

// StopMusic stops the dedicated music source.
func (m *Manager) StopMusic() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if m.music == nil || m.music.State() != SourceActive {
		return ErrNoMusic
	}

	m.music.stopPlayback()
	m.music.state.Store(int32(SourceIdle))
	return nil
}

// StopAll stops every active source and the music.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.pool.activeSources() {
		_ = m.pool.release(s)
	}
	if m.music != nil && m.music.State() == SourceActive {
		m.music.stopPlayback()
		m.music.state.Store(int32(SourceIdle))
	}
}

// SetListenerPosition moves the listener and reapplies attenuation to all
// active positional sources.
func (m *Manager) SetListenerPosition(at Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listener = at
	m.reapplyVolumesLocked()
}

// ListenerPosition returns the current listener position.
func (m *Manager) ListenerPosition() Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener
}

// Mute silences all playback without stopping it.
func (m *Manager) Mute() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = true
	m.reapplyVolumesLocked()
}

// Unmute restores playback volume.
func (m *Manager) Unmute() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = false
	m.reapplyVolumesLocked()
}

// SetMasterVolume sets the overall volume scale.
func (m *Manager) SetMasterVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVol = clampVolume(v)
	m.reapplyVolumesLocked()
}

// SetSFXVolume sets the sound-effect volume scale.
func (m *Manager) SetSFXVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVol = clampVolume(v)
	m.reapplyVolumesLocked()
}

// SetMusicVolume sets the music volume scale.
func (m *Manager) SetMusicVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.musicVol = clampVolume(v)
	m.reapplyVolumesLocked()
}

// Stats returns pool counters and playback metrics.
func (m *Manager) Stats() (PoolStats, Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.stats(), m.metrics.snapshot()
}

// MusicPlaying reports whether the dedicated music source is active.
func (m *Manager) MusicPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.music != nil && m.music.State() == SourceActive
}

// Close stops everything, shuts the pool down and releases the backend.
// Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true

	for _, s := range m.pool.activeSources() {
		_ = m.pool.release(s)
	}
	m.pool.close()
	if m.music != nil {
		m.music.stopPlayback()
		m.music.state.Store(int32(SourceIdle))
	}
	err := m.output.Close()
	m.mu.Unlock()

	// Release the lock before waiting: a watcher mid-poll may be blocked
	// on it inside Stop.
	m.watchers.Wait()

	log.Debug("Sound manager closed")
	return err
}

// spawnWatcherLocked starts the completion watcher for a non-looping
// source. Caller holds m.mu; the watcher channel must be captured before
// any stop can replace it.
func (m *Manager) spawnWatcherLocked(s *Source) {
	done := s.watcherDone()
	m.watchers.Add(1)
	go m.watch(s, done)
}

// watch polls the source until its clip finishes, then returns it to the
// pool. It exits early when the source is explicitly stopped, which closes
// done. This mirrors a per-handle observer task: it sleeps between polls
// and never busy-waits.
func (m *Manager) watch(s *Source, done <-chan struct{}) {
	defer m.watchers.Done()

	ticker := time.NewTicker(m.cfg.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ticker.C:
			if s.playing() {
				continue
			}
			err := m.recycle(s)
			switch {
			case err == nil:
				m.metrics.completed()
			case errors.Is(err, ErrNotActive), errors.Is(err, ErrManagerClosed), errors.Is(err, ErrPoolClosed):
				// Already returned or shutting down.
			default:
				log.Warn("Failed to recycle finished source", "source", s.ID(), "error", err)
			}
			return
		}
	}
}

// sfxScaleLocked returns the combined non-spatial scale for effects.
func (m *Manager) sfxScaleLocked() float64 {
	if m.muted {
		return 0
	}
	return m.masterVol * m.sfxVol
}

// musicScaleLocked returns the combined scale for music.
func (m *Manager) musicScaleLocked() float64 {
	if m.muted {
		return 0
	}
	return m.masterVol * m.musicVol
}

// reapplyVolumesLocked pushes current volume scales onto live players.
func (m *Manager) reapplyVolumesLocked() {
	sfx := m.sfxScaleLocked()
	for _, s := range m.pool.activeSources() {
		s.setVolume(sfx * effectiveVolume(s.Request(), s.Position(), m.listener))
	}
	if m.music != nil && m.music.State() == SourceActive {
		m.music.setVolume(m.musicScaleLocked() * clampVolume(m.music.Request().Volume))
	}
}
