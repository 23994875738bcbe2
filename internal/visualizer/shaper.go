package visualizer

import (
	"math"
	"math/rand/v2"
)

const (
	// DefaultBars is the number of visualized bars. Only the leading bands of
	// the analyser output are drawn.
	DefaultBars = 128

	bandOffset       = 160
	smoothingAlpha   = 0.3
	boostCeiling     = 40.0
	boostGain        = 1.2
	sigmoidSteepness = 12.0
	sigmoidMidpoint  = 0.5
	idleMin          = 4.0
	idleMax          = 7.0
	initialHeight    = 2.0
)

// SmoothingState holds the previous smoothed height of every bar.
type SmoothingState struct {
	prev []float64
}

// NewSmoothingState returns state for n bars, each seeded with a small
// positive height so silent bars shimmer instead of collapsing.
func NewSmoothingState(n int) *SmoothingState {
	prev := make([]float64, n)
	for i := range prev {
		prev[i] = initialHeight
	}
	return &SmoothingState{prev: prev}
}

// Len returns the number of bars tracked.
func (s *SmoothingState) Len() int { return len(s.prev) }

// Prev returns the stored smoothed value for bar i.
func (s *SmoothingState) Prev(i int) float64 { return s.prev[i] }

// Shaper turns raw analyser bytes into signed bar heights.
type Shaper struct {
	rng *rand.Rand
}

// NewShaper creates a Shaper drawing idle shimmer from rng.
// A nil rng uses the global source.
func NewShaper(rng *rand.Rand) *Shaper {
	return &Shaper{rng: rng}
}

// Shape smooths freq[0:numBars] into state and writes one height per bar to
// dst, growing it if needed. Heights are negative: bars grow upward from the
// bottom edge. Active bars get the sigmoid boost, idle bars a random height
// in [4, 7).
func (sh *Shaper) Shape(freq []byte, state *SmoothingState, numBars int, dst []float64) []float64 {
	if cap(dst) < numBars {
		dst = make([]float64, numBars)
	}
	dst = dst[:numBars]

	for i := range numBars {
		raw := float64(freq[i]) - bandOffset
		smoothed := smoothingAlpha*raw + (1-smoothingAlpha)*state.prev[i]
		state.prev[i] = smoothed

		if smoothed > 0 {
			dst[i] = -BoostedHeight(smoothed)
		} else {
			dst[i] = -sh.idle()
		}
	}
	return dst
}

func (sh *Shaper) idle() float64 {
	var u float64
	if sh.rng != nil {
		u = sh.rng.Float64()
	} else {
		u = rand.Float64()
	}
	return u*(idleMax-idleMin) + idleMin
}

// BoostedHeight applies the dynamic range boost to an active smoothed value.
// The ceiling only limits the boost curve; the magnitude itself is unclamped.
func BoostedHeight(smoothed float64) float64 {
	return smoothed * (1 + boostGain*sigmoid(math.Min(smoothed, boostCeiling)/boostCeiling))
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(sigmoidSteepness*(sigmoidMidpoint-x)))
}
