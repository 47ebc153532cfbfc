// Package clips loads WAV files into in-memory playback clips.
//
// Decoded clips are cached so repeated lookups of the same file skip the
// decode entirely. The cache expires cold entries; the underlying PCM is
// immutable so shared use is safe.
package clips

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/go-audio/wav"
	"github.com/muesli/gitcha"
	gocache "github.com/patrickmn/go-cache"

	"soundpool/pkg/sound"
)

const (
	// cacheTTL is how long a decoded clip stays cached after last use.
	cacheTTL = 30 * time.Minute
	// cleanupInterval is how often expired entries are purged.
	cleanupInterval = 5 * time.Minute
)

var (
	// ErrNotWAV is returned for files that are not valid WAV audio.
	ErrNotWAV = errors.New("not a valid WAV file")
)

// Library loads and caches decoded clips.
type Library struct {
	format sound.Format
	cache  *gocache.Cache
}

// NewLibrary creates a clip library for the given output format. Loaded
// files must match the format's sample rate and bit depth.
func NewLibrary(format sound.Format) *Library {
	return &Library{
		format: format,
		cache:  gocache.New(cacheTTL, cleanupInterval),
	}
}

// Load decodes a WAV file into a clip, serving repeats from cache.
func (l *Library) Load(path string) (*sound.Clip, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}

	if cached, ok := l.cache.Get(abs); ok {
		clip := cached.(*sound.Clip)
		log.Debug("Clip cache hit", "path", abs, "size", humanize.Bytes(uint64(clip.Size())))
		return clip, nil
	}

	clip, err := l.decode(abs)
	if err != nil {
		return nil, err
	}

	l.cache.SetDefault(abs, clip)
	log.Debug("Clip loaded",
		"path", abs,
		"size", humanize.Bytes(uint64(clip.Size())),
		"duration", clip.Duration())
	return clip, nil
}

// LoadAll loads every candidate path, failing on the first error.
func (l *Library) LoadAll(paths []string) ([]*sound.Clip, error) {
	out := make([]*sound.Clip, 0, len(paths))
	for _, p := range paths {
		clip, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, clip)
	}
	return out, nil
}

// Scan finds WAV files under dir, honoring gitignore rules the way other
// file walks in this codebase do.
func Scan(dir string) ([]string, error) {
	ch, err := gitcha.FindFiles(dir, []string{"*.wav", "*.WAV"})
	if err != nil {
		return nil, fmt.Errorf("scanning %q: %w", dir, err)
	}

	var paths []string
	for r := range ch {
		paths = append(paths, r.Path)
	}
	return paths, nil
}

// decode reads a WAV file and converts it to the library's PCM format.
func (l *Library) decode(path string) (*sound.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrNotWAV, path)
	}
	if int(decoder.BitDepth) != l.format.BitDepth {
		return nil, fmt.Errorf("%s: bit depth %d does not match output format %d",
			path, decoder.BitDepth, l.format.BitDepth)
	}
	if int(decoder.SampleRate) != l.format.SampleRate {
		return nil, fmt.Errorf("%s: sample rate %d does not match output format %d",
			path, decoder.SampleRate, l.format.SampleRate)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}

	pcm := interleave(buf.Data, int(decoder.NumChans), l.format.Channels)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return sound.NewClip(name, pcm, l.format)
}

// Stats returns cache entry count and total cached bytes, formatted.
func (l *Library) Stats() (count int, size string) {
	var total int
	for _, item := range l.cache.Items() {
		if clip, ok := item.Object.(*sound.Clip); ok {
			total += clip.Size()
		}
	}
	return l.cache.ItemCount(), humanize.Bytes(uint64(total))
}

// Purge drops all cached clips.
func (l *Library) Purge() {
	l.cache.Flush()
}

// interleave converts decoded int samples to s16le bytes, duplicating or
// averaging channels to match the output channel count.
func interleave(samples []int, srcChans, dstChans int) []byte {
	if srcChans <= 0 {
		return nil
	}
	frames := len(samples) / srcChans
	out := make([]byte, frames*dstChans*2)

	for f := 0; f < frames; f++ {
		for c := 0; c < dstChans; c++ {
			var v int
			switch {
			case srcChans == dstChans:
				v = samples[f*srcChans+c]
			case srcChans == 1:
				// Mono to stereo: duplicate.
				v = samples[f]
			default:
				// Stereo to mono: average.
				sum := 0
				for sc := 0; sc < srcChans; sc++ {
					sum += samples[f*srcChans+sc]
				}
				v = sum / srcChans
			}
			binary.LittleEndian.PutUint16(out[(f*dstChans+c)*2:], uint16(int16(v)))
		}
	}
	return out
}
