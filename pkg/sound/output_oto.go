//go:build !nocgo
// +build !nocgo

package sound

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// productionOutput implements Output on real hardware via oto.
type productionOutput struct {
	context *oto.Context
	format  Format
	mu      sync.Mutex
	ready   bool
}

// newProductionOutput opens the audio device with platform-aware retry.
// CoreAudio and freshly started PulseAudio daemons can fail the first
// attempt, so a couple of retries smooth over initialization races.
func newProductionOutput(format Format) (Output, error) {
	platform := DetectPlatform()

	maxRetries := 1
	retryDelay := 100 * time.Millisecond
	switch {
	case platform.OS == PlatformDarwin:
		maxRetries = 3
		retryDelay = 200 * time.Millisecond
	case platform.OS == PlatformWindows:
		maxRetries = 2
		retryDelay = 150 * time.Millisecond
	case platform.AudioSubsystem == AudioSubsystemPulseAudio:
		maxRetries = 2
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			log.Debug("Retrying audio device initialization", "attempt", attempt+1, "of", maxRetries)
			time.Sleep(retryDelay)
		}

		out, err := openOtoContext(format)
		if err == nil {
			return out, nil
		}
		lastErr = err
		log.Debug("Audio device initialization failed", "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("opening audio device: %w", lastErr)
}

func openOtoContext(format Format) (*productionOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}

	// The device is usable once oto signals readiness.
	select {
	case <-readyChan:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("audio device not ready after 5s")
	}

	return &productionOutput{
		context: ctx,
		format:  format,
		ready:   true,
	}, nil
}

// NewPlayer creates an oto player consuming PCM from r.
func (o *productionOutput) NewPlayer(r io.Reader) (Player, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return nil, ErrOutputClosed
	}

	p := o.context.NewPlayer(r)
	if p == nil {
		return nil, ErrOutputExhausted
	}
	return &otoPlayer{player: p}, nil
}

// Close marks the output closed. oto contexts have no Close in v3; the
// context is released when garbage collected.
func (o *productionOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = false
	o.context = nil
	return nil
}

func (o *productionOutput) IsReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready
}

func (o *productionOutput) SampleRate() int   { return o.format.SampleRate }
func (o *productionOutput) ChannelCount() int { return o.format.Channels }

// otoPlayer adapts *oto.Player to the Player interface.
type otoPlayer struct {
	player *oto.Player
	mu     sync.Mutex
	closed bool
}

func (p *otoPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.player.Play()
	}
}

func (p *otoPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.player.Pause()
	}
}

func (p *otoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	return p.player.IsPlaying()
}

func (p *otoPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.player.SetVolume(clampVolume(volume))
	}
}

func (p *otoPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	return p.player.Volume()
}

func (p *otoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.player.Pause()
	return p.player.Close()
}
