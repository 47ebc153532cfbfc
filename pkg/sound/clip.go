package sound

import (
	"fmt"
	"time"
)

// Format describes raw PCM audio parameters. All clips handed to the
// manager must share the output backend's format.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the format used by the output backend unless
// configured otherwise: CD-quality stereo signed 16-bit little endian.
func DefaultFormat() Format {
	return Format{
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}
}

// BytesPerFrame returns the number of bytes per sample frame.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitDepth / 8
}

// Validate checks that the format is usable with the output backend.
func (f Format) Validate() error {
	if f.SampleRate != 44100 && f.SampleRate != 48000 {
		return fmt.Errorf("%w: sample rate must be 44100 or 48000 Hz, got %d", ErrUnsupportedAudio, f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", ErrUnsupportedAudio, f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth must be 16, got %d", ErrUnsupportedAudio, f.BitDepth)
	}
	return nil
}

// Clip is immutable decoded audio ready for playback.
type Clip struct {
	Name   string
	Data   []byte // s16le PCM
	Format Format
}

// NewClip wraps PCM data in a Clip, validating alignment against the format.
func NewClip(name string, data []byte, format Format) (*Clip, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyClip
	}
	if len(data)%format.BytesPerFrame() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not aligned to %d-byte frames",
			ErrInvalidClip, len(data), format.BytesPerFrame())
	}
	return &Clip{Name: name, Data: data, Format: format}, nil
}

// Duration returns the playback length of the clip at its native rate.
func (c *Clip) Duration() time.Duration {
	bpf := c.Format.BytesPerFrame()
	if bpf == 0 || c.Format.SampleRate == 0 {
		return 0
	}
	frames := len(c.Data) / bpf
	return time.Duration(frames) * time.Second / time.Duration(c.Format.SampleRate)
}

// Size returns the size of the PCM payload in bytes.
func (c *Clip) Size() int {
	return len(c.Data)
}

// resample returns the clip's PCM resampled by rate, used to realize pitch
// shifts. rate > 1 raises pitch (shorter output), rate < 1 lowers it.
// Nearest-frame selection keeps this cheap; the backend does no DSP.
func (c *Clip) resample(rate float64) []byte {
	if rate == 1.0 {
		return c.Data
	}

	bpf := c.Format.BytesPerFrame()
	frames := len(c.Data) / bpf
	outFrames := int(float64(frames) / rate)
	if outFrames <= 0 {
		return nil
	}

	out := make([]byte, outFrames*bpf)
	for i := 0; i < outFrames; i++ {
		src := int(float64(i) * rate)
		if src >= frames {
			src = frames - 1
		}
		copy(out[i*bpf:(i+1)*bpf], c.Data[src*bpf:(src+1)*bpf])
	}
	return out
}
