package sound

import "math"

// attenuation returns the distance-based volume factor in [0, 1] for a
// source at the given distance from the listener.
func attenuation(distance, minDist, maxDist float64, rolloff Rolloff) float64 {
	if maxDist <= minDist {
		return 1.0
	}
	if distance <= minDist {
		return 1.0
	}
	if distance >= maxDist {
		return 0.0
	}

	switch rolloff {
	case RolloffLogarithmic:
		// Halve per doubling of distance, scaled so the factor reaches
		// zero exactly at maxDist.
		factor := minDist / distance
		fade := 1.0 - (distance-minDist)/(maxDist-minDist)
		return factor * fade * 2 / (factor + 1)
	default:
		return 1.0 - (distance-minDist)/(maxDist-minDist)
	}
}

// effectiveVolume computes the volume a source should play at, blending
// the flat request volume with positional attenuation.
func effectiveVolume(req Request, at, listener Position) float64 {
	base := req.Volume
	if req.SpatialBlend <= 0 {
		return clampVolume(base)
	}

	dist := at.DistanceTo(listener)
	att := attenuation(dist, req.MinDistance, req.MaxDistance, req.Rolloff)

	// Blend: 0 ignores position entirely, 1 applies full attenuation.
	v := base * ((1.0-req.SpatialBlend)*1.0 + req.SpatialBlend*att)
	return clampVolume(v)
}

func clampVolume(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
