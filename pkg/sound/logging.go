package sound

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// InitializeLogging sets the log level for the sound system.
func InitializeLogging(debugMode bool) {
	if debugMode {
		log.SetLevel(log.DebugLevel)
		log.Debug("Sound logging initialized", "level", "DEBUG")
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Metrics counts playback activity for one manager.
type Metrics struct {
	SoundsPlayed   int64
	MusicStarts    int64
	ButtonClicks   int64
	RequestsFailed int64
	Completions    int64
	ExplicitStops  int64
	StartedAt      time.Time
}

// metricsLogger tracks playback counters and periodically reports them.
type metricsLogger struct {
	mu      sync.Mutex
	metrics Metrics
}

func newMetricsLogger() *metricsLogger {
	return &metricsLogger{
		metrics: Metrics{StartedAt: time.Now()},
	}
}

func (ml *metricsLogger) soundPlayed(clip *Clip, looping bool) {
	ml.mu.Lock()
	ml.metrics.SoundsPlayed++
	count := ml.metrics.SoundsPlayed
	ml.mu.Unlock()

	log.Debug("Sound started",
		"clip", clip.Name,
		"looping", looping,
		"duration", clip.Duration(),
		"total_played", count)
}

func (ml *metricsLogger) musicStarted(clip *Clip) {
	ml.mu.Lock()
	ml.metrics.MusicStarts++
	ml.mu.Unlock()

	log.Debug("Music started", "clip", clip.Name, "duration", clip.Duration())
}

func (ml *metricsLogger) buttonClicked() {
	ml.mu.Lock()
	ml.metrics.ButtonClicks++
	ml.mu.Unlock()
}

func (ml *metricsLogger) requestFailed(err error) {
	ml.mu.Lock()
	ml.metrics.RequestsFailed++
	ml.mu.Unlock()

	log.Debug("Play request rejected", "error", err)
}

func (ml *metricsLogger) completed() {
	ml.mu.Lock()
	ml.metrics.Completions++
	ml.mu.Unlock()
}

func (ml *metricsLogger) stopped() {
	ml.mu.Lock()
	ml.metrics.ExplicitStops++
	ml.mu.Unlock()
}

// snapshot returns a copy of the counters.
func (ml *metricsLogger) snapshot() Metrics {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.metrics
}
