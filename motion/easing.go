package motion

import "math"

// EasingFunc maps linear progress in [0,1] to eased progress in [0,1]
type EasingFunc func(t float64) float64

var (
	// Linear - no easing
	Linear EasingFunc = func(t float64) float64 { return t }

	// EaseOutCubic - fast start, slow finish. Drives position.
	EaseOutCubic EasingFunc = func(t float64) float64 {
		return 1 - math.Pow(1-t, 3)
	}

	// EaseInOutCubic - symmetric acceleration. Drives rotation.
	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - math.Pow(-2*t+2, 3)/2
	}
)
