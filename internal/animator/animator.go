// Package animator runs the strip's background routines on a cooperative
// tick. Callers drive it from a single loop; nothing here spawns
// goroutines or blocks.
package animator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/stripd/internal/color"
	"github.com/smazurov/stripd/internal/frames"
	"github.com/smazurov/stripd/internal/index"
	"github.com/smazurov/stripd/internal/presets"
	"github.com/smazurov/stripd/internal/strip"
	"github.com/smazurov/stripd/internal/types"
)

// ErrInsufficientData reports a routine that cannot start because its
// source material is missing (e.g. a preset loop with fewer than two
// saved slots).
var ErrInsufficientData = errors.New("not enough data for routine")

// Kind identifies a routine.
type Kind int

const (
	WheelLoop Kind = iota
	RedLoop
	GreenLoop
	BlueLoop
	MarqueeLoop
	Rando
	PresetLoop
	numKinds
)

var kindNames = [...]string{"wheel_loop", "red_loop", "green_loop", "blue_loop", "marquee_loop", "rando", "preset_loop"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// animation is one running routine. due uses the additive schedule:
// after every frame it advances by the interval rather than resetting to
// now, so a late tick does not stretch the overall animation.
type animation struct {
	kind   Kind
	frames frames.BufferProducer
	coeff  int
	due    time.Time
}

// Config carries the tunables the animator reads.
type Config struct {
	// Speeds is the frame-interval table, slowest first.
	Speeds []time.Duration
	// InitialSpeed indexes Speeds.
	InitialSpeed int
	// InitialKind starts when a routine is launched with no explicit choice.
	InitialKind Kind
	// TransitionSteps is the sample count of each color transition.
	TransitionSteps int
	// FillChance is the per-pixel lit probability of the rando routine.
	FillChance float64
}

// Animator owns the current routine, speed and kind selection.
type Animator struct {
	strip  strip.Strip
	store  *presets.Store
	cfg    Config
	logger *slog.Logger

	current *animation
	speed   int
	kind    Kind
}

func New(s strip.Strip, store *presets.Store, cfg Config, logger *slog.Logger) *Animator {
	if cfg.InitialSpeed < 0 || cfg.InitialSpeed >= len(cfg.Speeds) {
		cfg.InitialSpeed = len(cfg.Speeds) / 2
	}
	return &Animator{
		strip:  s,
		store:  store,
		cfg:    cfg,
		logger: logger,
		speed:  cfg.InitialSpeed,
		kind:   cfg.InitialKind,
	}
}

// Retune replaces the speed table and transition settings, keeping the
// current speed index clamped into the new table. A running routine
// keeps its frames; the next one picks up the new steps and chance.
func (a *Animator) Retune(speeds []time.Duration, steps int, chance float64) {
	if len(speeds) == 0 {
		return
	}
	a.cfg.Speeds = speeds
	if a.cfg.InitialSpeed >= len(speeds) {
		a.cfg.InitialSpeed = len(speeds) / 2
	}
	if a.speed >= len(speeds) {
		a.speed = len(speeds) - 1
	}
	if steps > 0 {
		a.cfg.TransitionSteps = steps
	}
	if chance > 0 {
		a.cfg.FillChance = chance
	}
}

// Active reports whether a routine is running.
func (a *Animator) Active() bool { return a.current != nil }

// Kind returns the current routine selection.
func (a *Animator) Kind() Kind { return a.kind }

// Speed returns the current speed index.
func (a *Animator) Speed() int { return a.speed }

// Interval returns the frame interval at the current speed.
func (a *Animator) Interval() time.Duration { return a.cfg.Speeds[a.speed] }

// Stop cancels the running routine, leaving the strip as the last frame
// drew it.
func (a *Animator) Stop() {
	a.current = nil
}

// Start launches the selected routine, replacing any running one. A nil
// quantity keeps the current speed; otherwise it sets the speed index
// first (clamped).
func (a *Animator) Start(kind Kind, quantity *int, now time.Time) error {
	if kind < 0 || kind >= numKinds {
		return fmt.Errorf("%w: routine %d", index.ErrOutOfRange, int(kind))
	}
	if quantity != nil {
		if err := a.setSpeed(*quantity); err != nil {
			return err
		}
	}
	src, coeff, err := a.build(kind)
	if err != nil {
		return err
	}
	a.kind = kind
	a.current = &animation{kind: kind, frames: src, coeff: coeff, due: now}
	a.logger.Info("Routine started", "routine", kind.String(), "speed", a.speed)
	return nil
}

// StartSelected launches whatever kind the routine selection points at.
func (a *Animator) StartSelected(now time.Time) error {
	return a.Start(a.kind, nil, now)
}

// Tick advances the running routine if its frame is due. At most one
// frame is produced per call. An exhausted producer or a failed flush
// clears the routine to idle.
func (a *Animator) Tick(now time.Time) error {
	cur := a.current
	if cur == nil || now.Before(cur.due) {
		return nil
	}
	buf, ok := cur.frames.NextBuffer()
	if !ok {
		a.current = nil
		return nil
	}
	changed := false
	for p := 0; p < a.strip.Len() && p < len(buf); p++ {
		if a.strip.At(p) != buf[p] {
			a.strip.Set(p, buf[p])
			changed = true
		}
	}
	if changed {
		if err := a.strip.Show(); err != nil {
			// Stop rather than replay the failing frame every interval.
			a.current = nil
			return err
		}
	}
	cur.due = cur.due.Add(a.Interval() * time.Duration(cur.coeff))
	return nil
}

// SpeedChange applies a verb to the speed index. Speed saturates at its
// ends rather than wrapping. Clear restores the initial speed.
func (a *Animator) SpeedChange(verb types.Verb, quantity *int) error {
	cur := a.speed
	next, err := index.Resolve(verb, quantity, &cur, len(a.cfg.Speeds), false)
	if err != nil {
		return err
	}
	old := a.Interval()
	if next == nil {
		a.speed = a.cfg.InitialSpeed
	} else {
		a.speed = *next
	}
	// Retime the pending frame so the new speed takes effect immediately
	// instead of after the old interval elapses.
	if c := a.current; c != nil {
		c.due = c.due.Add((a.Interval() - old) * time.Duration(c.coeff))
	}
	a.logger.Debug("Speed changed", "index", a.speed, "interval", a.Interval())
	return nil
}

// RoutineChange applies a verb to the routine selection and restarts the
// animation when one is running. The selection wraps. Clear restores the
// initial routine.
func (a *Animator) RoutineChange(verb types.Verb, quantity *int, now time.Time) error {
	cur := int(a.kind)
	next, err := index.Resolve(verb, quantity, &cur, int(numKinds), true)
	if err != nil {
		return err
	}
	if next == nil {
		a.kind = a.cfg.InitialKind
	} else {
		a.kind = Kind(*next)
	}
	if a.current != nil {
		return a.Start(a.kind, nil, now)
	}
	return nil
}

func (a *Animator) setSpeed(idx int) error {
	if len(a.cfg.Speeds) == 0 {
		return index.ErrOutOfRange
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(a.cfg.Speeds) {
		idx = len(a.cfg.Speeds) - 1
	}
	a.speed = idx
	return nil
}

// build assembles the frame source for a routine kind. The returned
// coefficient multiplies the speed interval; rando runs an order of
// magnitude slower than the transitions.
func (a *Animator) build(kind Kind) (frames.BufferProducer, int, error) {
	steps := a.cfg.TransitionSteps
	n := a.strip.Len()
	switch kind {
	case WheelLoop:
		return a.fillLoop([]color.Color{0xff0000, 0x00ff00, 0x0000ff}, steps, n)
	case RedLoop:
		return a.fillLoop([]color.Color{0xff0000, 0xff00ff}, steps, n)
	case GreenLoop:
		return a.fillLoop([]color.Color{0x00ff00, 0x00ffff}, steps, n)
	case BlueLoop:
		return a.fillLoop([]color.Color{0x0000ff, 0xff00ff}, steps, n)
	case MarqueeLoop:
		buf := make([]color.Color, n)
		for p := range buf {
			buf[p] = a.strip.At(p)
		}
		return frames.NewMarquee(buf), 1, nil
	case Rando:
		return frames.NewRandom(n, a.cfg.FillChance, nil), 10, nil
	case PresetLoop:
		bufs := a.store.Buffers()
		if len(bufs) < 2 {
			return nil, 0, fmt.Errorf("%w: preset loop needs 2 slots, have %d", ErrInsufficientData, len(bufs))
		}
		bp, err := frames.NewBufferPath(bufs, steps, true)
		if err != nil {
			return nil, 0, err
		}
		return bp, 1, nil
	default:
		return nil, 0, fmt.Errorf("%w: routine %d", index.ErrOutOfRange, int(kind))
	}
}

func (a *Animator) fillLoop(keys []color.Color, steps, n int) (frames.BufferProducer, int, error) {
	p, err := frames.NewPath(keys, steps, true)
	if err != nil {
		return nil, 0, err
	}
	return frames.NewFill(p, n), 1, nil
}
