package realtime

import "time"

// Animation holds the timing state of one fixed-length animation. It does not
// know what is being animated; the owner composes it and maps Progress onto its
// own state every frame.
type Animation struct {
	Duration time.Duration
	Started  time.Time
	active   bool
}

// DefaultFrameInterval is roughly 30 frames per second.
const DefaultFrameInterval = 33 * time.Millisecond

// Start begins the animation at now.
// Any instant is a valid start, including the zero time.
func (a *Animation) Start(now time.Time) {
	a.Started = now
	a.active = true
}

// Stop makes the animation inactive.
func (a *Animation) Stop() {
	a.Started = time.Time{}
	a.active = false
}

// Active reports whether the animation has been started and not stopped.
func (a *Animation) Active() bool {
	return a.active
}

// Elapsed returns the time since start, never negative.
func (a *Animation) Elapsed(now time.Time) time.Duration {
	if !a.Active() {
		return 0
	}
	d := now.Sub(a.Started)
	if d < 0 {
		return 0
	}
	return d
}

// Progress returns elapsed/duration clamped to [0, 1]. A zero duration is
// complete immediately.
func (a *Animation) Progress(now time.Time) float64 {
	if !a.Active() {
		return 0
	}
	if a.Duration <= 0 {
		return 1
	}
	p := float64(a.Elapsed(now)) / float64(a.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// Done reports whether elapsed time has reached the duration.
func (a *Animation) Done(now time.Time) bool {
	return a.Active() && a.Elapsed(now) >= a.Duration
}

// NextFrame returns when the next frame should be computed: one interval from
// now, but never later than the end of the animation. It returns false when
// the animation is not active.
func (a *Animation) NextFrame(now time.Time, interval time.Duration) (time.Time, bool) {
	if !a.Active() {
		return time.Time{}, false
	}
	end := a.Started.Add(a.Duration)
	next := now.Add(interval)
	if next.After(end) {
		if now.After(end) {
			return now, true
		}
		return end, true
	}
	return next, true
}
