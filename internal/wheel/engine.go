package wheel

import (
	"math"
	"time"

	"spinwheel/pkg/realtime"
)

const (
	DefaultTurns    = 5
	DefaultDuration = 4000 * time.Millisecond
	// DefaultPointer is the top of the wheel: angles run counter-clockwise
	// with y pointing up.
	DefaultPointer = math.Pi / 2
)

// Config tunes the spin animation.
type Config struct {
	Turns    int
	Duration time.Duration
	Pointer  float64
}

// DefaultConfig returns the 5 turn, 4 second, pointer-at-top configuration.
func DefaultConfig() Config {
	return Config{
		Turns:    DefaultTurns,
		Duration: DefaultDuration,
		Pointer:  DefaultPointer,
	}
}

// State is the engine's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSpinning
)

func (s State) String() string {
	if s == StateSpinning {
		return "spinning"
	}
	return "idle"
}

// Session is the transient state of one spin.
type Session struct {
	Index       int
	StartAngle  float64
	TargetAngle float64
	StartedAt   time.Time
}

// Frame is the result of advancing the engine by one tick.
type Frame struct {
	Rotation float64
	Progress float64
	Done     bool
	// Outcome is set only on the frame that completes the spin.
	Outcome Outcome
}

// Engine owns the wheel's rotation and at most one spin session. It is not
// safe for concurrent use; callers serialize Spin, Tick and reads.
type Engine struct {
	wheel    *Wheel
	source   Source
	cues     CuePlayer
	cfg      Config
	state    State
	rotation float64
	session  Session
	anim     realtime.Animation
}

// NewEngine builds an idle engine at rotation 0. cues may be nil.
func NewEngine(w *Wheel, src Source, cfg Config, cues CuePlayer) *Engine {
	if cues == nil {
		cues = noCues{}
	}
	if cfg.Duration < 0 {
		cfg.Duration = 0
	}
	if cfg.Turns < 0 {
		cfg.Turns = 0
	}
	return &Engine{
		wheel:  w,
		source: src,
		cues:   cues,
		cfg:    cfg,
		anim:   realtime.Animation{Duration: cfg.Duration},
	}
}

// TargetAngle is the absolute rotation that brings the centre of sector index
// under the pointer after the given number of full turns.
func TargetAngle(index, sectors, turns int, pointer float64) float64 {
	arc := FullTurn / float64(sectors)
	return float64(turns)*FullTurn + (pointer - float64(index)*arc - arc/2)
}

// Wheel returns the sector model the engine spins.
func (e *Engine) Wheel() *Wheel { return e.wheel }

// Config returns the animation configuration.
func (e *Engine) Config() Config { return e.cfg }

// State returns Idle or Spinning.
func (e *Engine) State() State { return e.state }

// Rotation returns the current angle in [0, 2π).
func (e *Engine) Rotation() float64 { return e.rotation }

// Spinning reports whether a session is active.
func (e *Engine) Spinning() bool { return e.state == StateSpinning }

// Session returns the active session, if any.
func (e *Engine) Session() (Session, bool) {
	if e.state != StateSpinning {
		return Session{}, false
	}
	return e.session, true
}

// Spin starts a new session from the current resting angle. While a session
// is active the request is ignored and ok is false.
func (e *Engine) Spin(now time.Time) (Session, bool) {
	if e.state == StateSpinning {
		return Session{}, false
	}
	index := e.wheel.Select(e.source)
	e.session = Session{
		Index:       index,
		StartAngle:  e.rotation,
		TargetAngle: TargetAngle(index, e.wheel.Len(), e.cfg.Turns, e.cfg.Pointer),
		StartedAt:   now,
	}
	e.anim.Start(now)
	e.state = StateSpinning
	e.cues.Play(CueSpin)
	return e.session, true
}

// Tick advances the active session to now. It returns false when idle. The
// frame that reaches the duration snaps the rotation to the target, reports
// the outcome and returns the engine to idle.
func (e *Engine) Tick(now time.Time) (Frame, bool) {
	if e.state != StateSpinning {
		return Frame{}, false
	}
	s := e.session
	if e.anim.Done(now) {
		e.rotation = Normalize(s.TargetAngle)
		outcome := e.wheel.Outcome(s.Index)
		e.anim.Stop()
		e.state = StateIdle
		e.session = Session{}
		e.cues.Play(outcome.Cue())
		return Frame{Rotation: e.rotation, Progress: 1, Done: true, Outcome: outcome}, true
	}
	p := e.anim.Progress(now)
	e.rotation = Normalize(s.StartAngle + EaseOutCubic(p)*(s.TargetAngle-s.StartAngle))
	return Frame{Rotation: e.rotation, Progress: p}, true
}

// NextFrame returns when the next tick is due at the given frame interval.
func (e *Engine) NextFrame(now time.Time, interval time.Duration) (time.Time, bool) {
	if e.state != StateSpinning {
		return time.Time{}, false
	}
	return e.anim.NextFrame(now, interval)
}
