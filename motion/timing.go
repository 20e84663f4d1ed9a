package motion

import (
	"time"

	"planchette/vmath"
)

// Timing holds the per-symbol durations of the move/pause cycle
type Timing struct {
	BaseMove time.Duration
	MinMove  time.Duration
	MaxMove  time.Duration
	Pause    time.Duration
	// DistanceNormalizer is the hop length, in normalized units, that takes
	// exactly BaseMove
	DistanceNormalizer float64
}

// DefaultTiming returns the reference durations
func DefaultTiming() Timing {
	return Timing{
		BaseMove:           1200 * time.Millisecond,
		MinMove:            800 * time.Millisecond,
		MaxMove:            2000 * time.Millisecond,
		Pause:              500 * time.Millisecond,
		DistanceNormalizer: 30,
	}
}

// MoveDuration scales the move time with hop length, sub-proportionally
// beyond twice the normalizer, and clamps it into [MinMove, MaxMove].
func MoveDuration(start, end vmath.Vec2, tm Timing) time.Duration {
	scale := 0.0
	if tm.DistanceNormalizer > 0 {
		scale = min(vmath.Dist(start, end)/tm.DistanceNormalizer, 2)
	}
	d := time.Duration(float64(tm.BaseMove) * scale)
	return max(tm.MinMove, min(d, tm.MaxMove))
}

// DefaultTipOffset points from the planchette's viewing window to its tip
// when the planchette faces up, in normalized units.
var DefaultTipOffset = vmath.V(0, -6)

// TipCorrect shifts a path point so that the planchette's tip, rather than
// its window, sits on it when the planchette is rotated by angle degrees.
func TipCorrect(pos vmath.Vec2, angle float64, tipOffset vmath.Vec2) vmath.Vec2 {
	return pos.Sub(tipOffset.Rotate(angle))
}
