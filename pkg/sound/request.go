package sound

import "math"

// Pitch bounds. Pitch is realized by resampling at configure time.
var (
	MinPitch = 0.5
	MaxPitch = 2.0
)

// Rolloff selects how volume attenuates with distance for spatial sounds.
type Rolloff int

const (
	// RolloffLinear fades volume linearly between MinDistance and MaxDistance.
	RolloffLinear Rolloff = iota
	// RolloffLogarithmic halves volume for each doubling of distance past
	// MinDistance, dropping to zero at MaxDistance.
	RolloffLogarithmic
)

// String returns the rolloff mode name.
func (r Rolloff) String() string {
	switch r {
	case RolloffLinear:
		return "linear"
	case RolloffLogarithmic:
		return "logarithmic"
	default:
		return "unknown"
	}
}

// Position is a point in world space.
type Position struct {
	X, Y, Z float64
}

// DistanceTo returns the euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Request bundles the settings for one play call. One clip is picked
// uniformly at random from Clips each time the request is played.
type Request struct {
	Clips []*Clip

	Volume float64 // 0.0 to 1.0
	Pitch  float64 // MinPitch to MaxPitch; 0 means 1.0
	Loop   bool

	// Spatial parameters. SpatialBlend 0 is fully 2D (no attenuation),
	// 1 is fully positional.
	SpatialBlend float64
	MinDistance  float64
	MaxDistance  float64
	Rolloff      Rolloff

	// Priority of the source, lower values are more important. Purely
	// informational for callers inspecting active sources.
	Priority int
}

// normalized returns a copy with defaults applied.
func (r Request) normalized() Request {
	if r.Pitch == 0 {
		r.Pitch = 1.0
	}
	if r.MaxDistance == 0 {
		r.MaxDistance = defaultMaxDistance
	}
	if r.MinDistance == 0 {
		r.MinDistance = defaultMinDistance
	}
	return r
}

// Validate reports whether the request can be played.
func (r Request) Validate() error {
	if len(r.Clips) == 0 {
		return ErrNoClips
	}
	for _, c := range r.Clips {
		if c == nil || len(c.Data) == 0 {
			return ErrEmptyClip
		}
	}
	if r.Volume < 0 || r.Volume > 1 {
		return ErrInvalidVolume
	}
	if r.Pitch != 0 && (r.Pitch < MinPitch || r.Pitch > MaxPitch) {
		return ErrInvalidPitch
	}
	if r.SpatialBlend < 0 || r.SpatialBlend > 1 {
		return ErrInvalidRequest
	}
	if r.MinDistance < 0 || r.MaxDistance < 0 || (r.MaxDistance != 0 && r.MinDistance > r.MaxDistance) {
		return ErrInvalidRequest
	}
	return nil
}

const (
	defaultMinDistance = 1.0
	defaultMaxDistance = 50.0
)
