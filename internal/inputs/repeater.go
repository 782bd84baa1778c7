package inputs

import "time"

// Repeater turns a held control into auto-repeat fires: nothing until
// the hold crosses the threshold, then one fire per interval.
type Repeater struct {
	threshold time.Duration
	interval  time.Duration

	heldSince time.Time
	nextFire  time.Time
	held      bool
}

// NewRepeater builds a repeater with the given hold threshold and repeat
// interval.
func NewRepeater(threshold, interval time.Duration) *Repeater {
	return &Repeater{threshold: threshold, interval: interval}
}

// Press marks the control down.
func (r *Repeater) Press(now time.Time) {
	if r.held {
		return
	}
	r.held = true
	r.heldSince = now
	r.nextFire = now.Add(r.threshold)
}

// Release marks the control up and reports whether any repeats fired
// during the hold. Callers use that to suppress the release action when
// the hold already acted.
func (r *Repeater) Release() bool {
	repeated := r.held && !r.nextFire.Equal(r.heldSince.Add(r.threshold))
	r.held = false
	return repeated
}

// Fire reports whether a repeat is due, advancing the schedule when it
// is.
func (r *Repeater) Fire(now time.Time) bool {
	if !r.held || now.Before(r.nextFire) {
		return false
	}
	r.nextFire = r.nextFire.Add(r.interval)
	return true
}
