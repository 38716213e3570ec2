package state

import (
	"image"
	"math"
)

// LowPass is a set of exponential smoothers addressed by name.
type LowPass struct {
	values map[string]float64
}

// NewLowPass returns an empty filter set.
func NewLowPass() *LowPass {
	return &LowPass{values: make(map[string]float64)}
}

// Smooth moves the stored value for key toward v by rate (0 keeps the
// history, 1 takes v) and returns the result. The first sample for a key is
// returned unchanged.
func (f *LowPass) Smooth(key string, v, rate float64) float64 {
	prev, ok := f.values[key]
	if !ok {
		f.values[key] = v
		return v
	}
	out := prev + (v-prev)*rate
	f.values[key] = out
	return out
}

// SmoothPoint smooths both coordinates of p under key.
func (f *LowPass) SmoothPoint(key string, p image.Point, rate float64) image.Point {
	return image.Point{
		X: int(math.Round(f.Smooth(key+".x", float64(p.X), rate))),
		Y: int(math.Round(f.Smooth(key+".y", float64(p.Y), rate))),
	}
}

// Reset drops the history of every key.
func (f *LowPass) Reset() {
	clear(f.values)
}

// Len returns the number of keys with history.
func (f *LowPass) Len() int {
	return len(f.values)
}

// DefaultBaselineRate is the decay rate of an Accumulator with no Rate set.
const DefaultBaselineRate = 0.1

// Accumulator follows the peak of a series and otherwise decays toward the
// latest sample.
type Accumulator struct {
	Rate float64

	value  float64
	primed bool
}

// Update folds v into the baseline and returns the new baseline.
func (a *Accumulator) Update(v float64) float64 {
	if !a.primed || v >= a.value {
		a.value = v
		a.primed = true
		return a.value
	}
	rate := a.Rate
	if rate <= 0 {
		rate = DefaultBaselineRate
	}
	a.value += (v - a.value) * rate
	return a.value
}

// Value returns the current baseline, 0 before the first Update.
func (a *Accumulator) Value() float64 {
	return a.value
}

// Reset forgets the baseline.
func (a *Accumulator) Reset() {
	a.value = 0
	a.primed = false
}
