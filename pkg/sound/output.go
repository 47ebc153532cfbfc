package sound

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Output abstracts the audio device layer so the manager can run against
// real hardware (oto) or a mock in tests and CI.
type Output interface {
	// NewPlayer creates a player that consumes PCM from r.
	NewPlayer(r io.Reader) (Player, error)

	// Close releases the device and all players created from it.
	Close() error

	// IsReady reports whether the output can create players.
	IsReady() bool

	// SampleRate returns the device sample rate.
	SampleRate() int

	// ChannelCount returns the number of output channels.
	ChannelCount() int
}

// Player is one playback channel on an Output.
type Player interface {
	// Play starts or resumes consuming the reader.
	Play()

	// Pause stops consuming without releasing the channel.
	Pause()

	// IsPlaying reports whether audio is still being consumed.
	IsPlaying() bool

	// SetVolume sets the playback volume (0.0 to 1.0).
	SetVolume(volume float64)

	// Volume returns the current volume.
	Volume() float64

	// Close releases the channel.
	Close() error
}

// OutputType selects which Output implementation the factory builds.
type OutputType int

const (
	// OutputProduction uses real audio hardware via oto.
	OutputProduction OutputType = iota
	// OutputMock uses an in-memory implementation for testing.
	OutputMock
	// OutputAuto picks mock in CI/test environments, production otherwise.
	OutputAuto
)

// IsCI detects common CI environments where no audio device exists.
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
		"DRONE",
	}
	for _, v := range ciVars {
		if val := os.Getenv(v); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", v)
			return true
		}
	}
	if os.Getenv("SOUNDPOOL_MOCK_AUDIO") == "true" {
		log.Debug("Mock audio requested via environment variable")
		return true
	}
	return false
}

// NewOutput creates an Output of the requested type for the given format.
func NewOutput(outputType OutputType, format Format) (Output, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	switch outputType {
	case OutputProduction:
		log.Debug("Creating production output", "sample_rate", format.SampleRate, "channels", format.Channels)
		return newProductionOutput(format)

	case OutputMock:
		log.Debug("Creating mock output")
		return NewMockOutput(format), nil

	case OutputAuto:
		if IsCI() {
			log.Info("No audio device expected in this environment, using mock output")
			return NewMockOutput(format), nil
		}
		out, err := newProductionOutput(format)
		if err != nil {
			log.Warn("Production output unavailable, falling back to mock", "error", err)
			return NewMockOutput(format), nil
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown output type %d", outputType)
	}
}
