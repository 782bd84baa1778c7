// Package router executes decoded commands against the strip's engines.
// It is the error boundary: every fault a command can raise comes back
// from Dispatch, so callers decide how to surface it (error LED, log,
// exit code) in one place.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/stripd/internal/animator"
	"github.com/smazurov/stripd/internal/changer"
	"github.com/smazurov/stripd/internal/events"
	"github.com/smazurov/stripd/internal/presets"
	"github.com/smazurov/stripd/internal/storage"
	"github.com/smazurov/stripd/internal/strip"
	"github.com/smazurov/stripd/internal/types"
)

// ErrInvalidAction reports a (what, verb) pair outside the command
// surface.
var ErrInvalidAction = errors.New("invalid action")

var mutateVerbs = []types.Verb{types.VerbSet, types.VerbPlus, types.VerbMinus, types.VerbClear}
var fullVerbs = append([]types.Verb{types.VerbMin, types.VerbMax}, mutateVerbs...)

// allowed is the command surface: which verbs each target accepts.
var allowed = map[types.What][]types.Verb{
	types.WhatBrightness: fullVerbs,
	types.WhatRed:        mutateVerbs,
	types.WhatGreen:      mutateVerbs,
	types.WhatBlue:       mutateVerbs,
	types.WhatWhite:      mutateVerbs,
	types.WhatPixel:      mutateVerbs,
	types.WhatHue:        mutateVerbs,
	types.WhatSpeed:      fullVerbs,
	types.WhatRoutine:    append([]types.Verb{types.VerbRun}, fullVerbs...),
	types.WhatBuffer:     {types.VerbRestore, types.VerbSave, types.VerbClear},
	types.WhatDraw:       {types.VerbRun},
	types.WhatNoop:       {types.VerbRun},
}

// Router owns command execution order.
type Router struct {
	strip    strip.Strip
	changer  *changer.Changer
	animator *animator.Animator
	presets  *presets.Store
	bus      *events.Bus
	logger   *slog.Logger
}

func New(s strip.Strip, ch *changer.Changer, an *animator.Animator, ps *presets.Store, bus *events.Bus, logger *slog.Logger) *Router {
	return &Router{strip: s, changer: ch, animator: an, presets: ps, bus: bus, logger: logger}
}

// Dispatch executes one command at the given time. Any running animation
// stops first, except for brightness and speed adjustments (which tune a
// routine without replacing its frames) and the noop command.
func (r *Router) Dispatch(cmd types.Command, now time.Time) error {
	if !actionAllowed(cmd) {
		return fmt.Errorf("%w: %s %s", ErrInvalidAction, cmd.What, cmd.Verb)
	}

	switch cmd.What {
	case types.WhatBrightness, types.WhatSpeed, types.WhatNoop, types.WhatRoutine:
		// Brightness and speed tune a running routine in place; routine
		// commands replace or retune the animation themselves.
	default:
		if r.animator.Active() {
			r.animator.Stop()
			r.publishAnimation()
		}
	}

	if err := r.execute(cmd, now); err != nil {
		return err
	}
	r.logger.Debug("Command executed", "command", cmd.String())
	return nil
}

func (r *Router) execute(cmd types.Command, now time.Time) error {
	switch cmd.What {
	case types.WhatBrightness:
		if err := r.changer.Brightness(cmd.Verb, cmd.Quantity); err != nil {
			return err
		}
		r.bus.Publish(events.BrightnessChangedEvent{Level: r.strip.Brightness(), Timestamp: now})
		return nil

	case types.WhatRed:
		return r.changer.Channel(0, cmd.Verb, cmd.Quantity)
	case types.WhatGreen:
		return r.changer.Channel(1, cmd.Verb, cmd.Quantity)
	case types.WhatBlue:
		return r.changer.Channel(2, cmd.Verb, cmd.Quantity)
	case types.WhatWhite:
		return r.changer.White(cmd.Verb, cmd.Quantity)
	case types.WhatPixel:
		return r.changer.SelectPixel(cmd.Verb, cmd.Quantity)
	case types.WhatHue:
		return r.changer.Hue(cmd.Verb, cmd.Quantity)

	case types.WhatSpeed:
		return r.animator.SpeedChange(cmd.Verb, cmd.Quantity)

	case types.WhatRoutine:
		if cmd.Verb == types.VerbRun {
			return r.run(cmd, now)
		}
		if err := r.animator.RoutineChange(cmd.Verb, cmd.Quantity, now); err != nil {
			return err
		}
		r.publishAnimation()
		return nil

	case types.WhatBuffer:
		return r.preset(cmd, now)

	case types.WhatDraw:
		return r.strip.Show()

	case types.WhatNoop:
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrInvalidAction, cmd.What)
	}
}

func (r *Router) run(cmd types.Command, now time.Time) error {
	var err error
	if cmd.Routine != nil {
		err = r.animator.Start(animator.Kind(*cmd.Routine), cmd.Quantity, now)
	} else {
		err = r.animator.StartSelected(now)
	}
	if err != nil {
		return err
	}
	r.publishAnimation()
	return nil
}

func (r *Router) preset(cmd types.Command, now time.Time) error {
	ok, err := r.presets.Action(cmd.Verb, cmd.Quantity)
	if err != nil {
		return err
	}
	if cmd.Verb == types.VerbRestore {
		// Restored (or fallback) colors arrived outside the hue path.
		r.changer.InvalidateHue()
	}
	if !ok {
		r.bus.Publish(events.StorageErrorEvent{
			Operation: cmd.Verb.String(),
			Error:     storage.ErrUnavailable.Error(),
			Timestamp: now,
		})
		return fmt.Errorf("preset %s: %w", cmd.Verb, storage.ErrUnavailable)
	}
	switch cmd.Verb {
	case types.VerbSave:
		r.bus.Publish(events.PresetStoredEvent{Slot: *cmd.Quantity, Timestamp: now})
	case types.VerbClear:
		r.bus.Publish(events.PresetStoredEvent{Slot: *cmd.Quantity, Cleared: true, Timestamp: now})
	}
	return nil
}

func (r *Router) publishAnimation() {
	r.bus.Publish(events.AnimationChangedEvent{
		Routine:   r.animator.Kind().String(),
		Running:   r.animator.Active(),
		Speed:     r.animator.Speed(),
		Timestamp: time.Now(),
	})
}

func actionAllowed(cmd types.Command) bool {
	for _, v := range allowed[cmd.What] {
		if v == cmd.Verb {
			return true
		}
	}
	return false
}
