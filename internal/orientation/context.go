package orientation

import (
	"errors"
	"sync"
)

// ErrPrimaryPending is returned when a dependent channel asks for a shared
// value before the primary channel has started the current frame.
var ErrPrimaryPending = errors.New("primary channel has not run in this frame")

// FrameContext hands the primary channel's palm radius and hand angle to
// the other channels processed in the same frame. Create one per frame and
// run the primary channel first.
//
// A nil *FrameContext treats every channel as primary.
type FrameContext struct {
	primary string

	mu        sync.Mutex
	started   bool
	radius    float64
	angle     float64
	hasRadius bool
	hasAngle  bool
}

// NewFrameContext creates a context whose primary channel is primary.
func NewFrameContext(primary string) *FrameContext {
	return &FrameContext{primary: primary}
}

// Primary returns the name of the primary channel.
func (fc *FrameContext) Primary() string {
	if fc == nil {
		return ""
	}
	return fc.primary
}

// IsPrimary reports whether channel computes its own values.
func (fc *FrameContext) IsPrimary(channel string) bool {
	return fc == nil || channel == fc.primary
}

// Begin marks the start of channel's computation for this frame.
func (fc *FrameContext) Begin(channel string) {
	if fc == nil || channel != fc.primary {
		return
	}
	fc.mu.Lock()
	fc.started = true
	fc.mu.Unlock()
}

// Ready returns ErrPrimaryPending when channel depends on a primary that
// has not begun this frame.
func (fc *FrameContext) Ready(channel string) error {
	if fc == nil || channel == fc.primary {
		return nil
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if !fc.started {
		return ErrPrimaryPending
	}
	return nil
}

// Radius publishes r when channel is primary and returns it. Other channels
// get the published value, or r itself when the primary ran but resolved
// no radius.
func (fc *FrameContext) Radius(channel string, r float64) (float64, error) {
	if fc == nil {
		return r, nil
	}
	return fc.share(channel, r, &fc.radius, &fc.hasRadius)
}

// Angle is Radius for the hand angle.
func (fc *FrameContext) Angle(channel string, a float64) (float64, error) {
	if fc == nil {
		return a, nil
	}
	return fc.share(channel, a, &fc.angle, &fc.hasAngle)
}

func (fc *FrameContext) share(channel string, v float64, slot *float64, set *bool) (float64, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if channel == fc.primary {
		fc.started = true
		*slot, *set = v, true
		return v, nil
	}
	if !fc.started {
		return 0, ErrPrimaryPending
	}
	if !*set {
		return v, nil
	}
	return *slot, nil
}
