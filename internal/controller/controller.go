// Package controller runs the daemon's main loop. Everything that
// touches the strip happens on this single goroutine: inputs are polled,
// commands dispatched and animation frames produced in one cooperative
// cycle, so no engine needs locking.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/stripd/internal/actled"
	"github.com/smazurov/stripd/internal/animator"
	"github.com/smazurov/stripd/internal/changer"
	"github.com/smazurov/stripd/internal/config"
	"github.com/smazurov/stripd/internal/display"
	"github.com/smazurov/stripd/internal/events"
	"github.com/smazurov/stripd/internal/inputs"
	"github.com/smazurov/stripd/internal/presets"
	"github.com/smazurov/stripd/internal/protocol"
	"github.com/smazurov/stripd/internal/router"
	"github.com/smazurov/stripd/internal/strip"
	"github.com/smazurov/stripd/internal/types"
)

// mode is the parameter the panel controls adjust.
type mode int

const (
	modeBrightness mode = iota
	modeSpeed
	modeRoutine
	numModes
)

func (m mode) String() string {
	switch m {
	case modeBrightness:
		return "brightness"
	case modeSpeed:
		return "speed"
	case modeRoutine:
		return "routine"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m mode) what() types.What {
	switch m {
	case modeSpeed:
		return types.WhatSpeed
	case modeRoutine:
		return types.WhatRoutine
	default:
		return types.WhatBrightness
	}
}

// Button bank layout: decrement, mode, increment.
const (
	btnDecrement = 0
	btnMode      = 1
	btnIncrement = 2
)

// Config carries the loop's own settings; the engines arrive already
// configured.
type Config struct {
	// InitialRoutine starts at boot when true.
	AutoStart bool
	// Idle is how long the display stays awake after the last input.
	Idle time.Duration
}

// App owns the loop and every device handle it polls.
type App struct {
	strip    strip.Strip
	changer  *changer.Changer
	animator *animator.Animator
	presets  *presets.Store
	router   *router.Router
	parser   protocol.Parser
	serial   *inputs.Serial
	buttons  *inputs.Buttons
	rotary   *inputs.Rotary
	leds     *actled.Panel
	display  display.Display
	bus      *events.Bus
	logger   *slog.Logger
	cfg      Config

	mode      mode
	lastInput time.Time
	tunables  chan config.Tunables
}

// Deps bundles the engines and device handles the loop drives. Serial,
// Buttons and Rotary may be nil when the board lacks them.
type Deps struct {
	Strip    strip.Strip
	Changer  *changer.Changer
	Animator *animator.Animator
	Presets  *presets.Store
	Router   *router.Router
	Serial   *inputs.Serial
	Buttons  *inputs.Buttons
	Rotary   *inputs.Rotary
	LEDs     *actled.Panel
	Display  display.Display
	Bus      *events.Bus
	Logger   *slog.Logger
}

func New(deps Deps, cfg Config) *App {
	return &App{
		strip:    deps.Strip,
		changer:  deps.Changer,
		animator: deps.Animator,
		presets:  deps.Presets,
		router:   deps.Router,
		serial:   deps.Serial,
		buttons:  deps.Buttons,
		rotary:   deps.Rotary,
		leds:     deps.LEDs,
		display:  deps.Display,
		bus:      deps.Bus,
		logger:   deps.Logger,
		cfg:      cfg,
		tunables: make(chan config.Tunables, 1),
	}
}

// ApplyTunables hands a reloaded settings snapshot to the loop. Safe to
// call from any goroutine; only the latest snapshot is kept.
func (a *App) ApplyTunables(t config.Tunables) {
	select {
	case <-a.tunables:
	default:
	}
	a.tunables <- t
}

// Run executes the loop until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	now := time.Now()
	a.lastInput = now
	a.startup(now)

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.teardown()
			return ctx.Err()
		case t := <-a.tunables:
			a.applyTunables(t)
		case <-ticker.C:
			now = time.Now()
			a.pollSerial(now)
			a.pollButtons(now)
			a.pollRotary(now)
			if err := a.animator.Tick(now); err != nil {
				a.logger.Warn("Animation frame failed", "error", err)
			}
			a.leds.Tick(now)
			a.updateDisplay(now)
		}
	}
}

// startup restores the boot preset and kicks off the initial routine.
// Both are best-effort: a blank strip with working inputs beats not
// starting.
func (a *App) startup(now time.Time) {
	if ok, err := a.presets.Restore(0); err != nil {
		a.logger.Warn("Boot preset restore failed", "error", err)
	} else if !ok {
		a.logger.Info("No boot preset, starting from fallback fill")
	}
	if a.cfg.AutoStart {
		if err := a.animator.StartSelected(now); err != nil {
			a.logger.Warn("Initial routine failed to start", "error", err)
		}
	}
}

func (a *App) teardown() {
	a.animator.Stop()
	a.leds.Off()
	if a.serial != nil {
		a.serial.Close()
	}
	if a.buttons != nil {
		a.buttons.Close()
	}
	if a.rotary != nil {
		a.rotary.Close()
	}
	a.display.Close()
	if err := a.strip.Close(); err != nil {
		a.logger.Warn("Strip close failed", "error", err)
	}
	a.logger.Info("Controller stopped")
}

func (a *App) applyTunables(t config.Tunables) {
	speeds := make([]time.Duration, len(t.SpeedsMs))
	for i, ms := range t.SpeedsMs {
		speeds[i] = time.Duration(ms) * time.Millisecond
	}
	a.animator.Retune(speeds, t.TransitionSteps, t.FillChance)
	a.cfg.Idle = time.Duration(t.IdleMs) * time.Millisecond
	a.logger.Info("Tunables reloaded", "speeds", len(speeds), "steps", t.TransitionSteps)
}

// pollSerial drains complete wire lines and dispatches them.
func (a *App) pollSerial(now time.Time) {
	if a.serial == nil {
		return
	}
	lines, err := a.serial.Poll()
	if err != nil {
		a.logger.Warn("Serial poll failed", "error", err)
		return
	}
	for _, line := range lines {
		a.lastInput = now
		cmd, fresh, err := a.parser.ParseLine(line)
		if err != nil {
			a.fail(now, line, "serial", err)
			continue
		}
		if !fresh {
			continue
		}
		a.execute(now, cmd, "serial")
	}
}

// pollButtons applies the three-button bank: short presses step the
// selected mode, long presses jump to its extreme, and the mode button
// cycles the selection (long press toggles the routine).
func (a *App) pollButtons(now time.Time) {
	if a.buttons == nil {
		return
	}
	for _, ev := range a.buttons.Poll(now) {
		a.lastInput = now
		detail := fmt.Sprintf("button %d", ev.Button)
		if ev.Long {
			detail += " long"
		}
		a.bus.Publish(events.InputEvent{Source: "buttons", Detail: detail, Timestamp: now})
		switch ev.Button {
		case btnMode:
			if ev.Long {
				a.toggleRoutine(now)
			} else {
				a.mode = (a.mode + 1) % numModes
				a.logger.Debug("Mode changed", "mode", a.mode.String())
			}
		case btnIncrement:
			a.adjust(now, types.VerbPlus, types.VerbMax, ev.Long)
		case btnDecrement:
			a.adjust(now, types.VerbMinus, types.VerbMin, ev.Long)
		}
	}
}

func (a *App) pollRotary(now time.Time) {
	if a.rotary == nil {
		return
	}
	steps := a.rotary.Poll(now)
	if steps == 0 {
		return
	}
	a.lastInput = now
	a.bus.Publish(events.InputEvent{
		Source:    "rotary",
		Detail:    fmt.Sprintf("steps %d", steps),
		Timestamp: now,
	})
	verb := types.VerbPlus
	if steps < 0 {
		verb = types.VerbMinus
		steps = -steps
	}
	a.execute(now, types.Command{What: a.mode.what(), Verb: verb, Quantity: types.Int(steps)}, "panel")
}

func (a *App) adjust(now time.Time, step, jump types.Verb, long bool) {
	verb := step
	if long {
		verb = jump
	}
	cmd := types.Command{What: a.mode.what(), Verb: verb}
	if !long {
		cmd.Quantity = types.Int(1)
	}
	a.execute(now, cmd, "panel")
}

func (a *App) toggleRoutine(now time.Time) {
	if a.animator.Active() {
		a.animator.Stop()
		a.logger.Info("Routine stopped from panel")
		return
	}
	a.execute(now, types.Command{What: types.WhatRoutine, Verb: types.VerbRun}, "panel")
}

// execute dispatches one command and surfaces the outcome on the status
// LEDs.
func (a *App) execute(now time.Time, cmd types.Command, source string) {
	if err := a.router.Dispatch(cmd, now); err != nil {
		a.fail(now, cmd.String(), source, err)
		return
	}
	a.leds.Activity(now)
	a.bus.Publish(events.CommandReceivedEvent{Command: cmd.String(), Source: source, Timestamp: now})
}

func (a *App) fail(now time.Time, cmd, source string, err error) {
	a.leds.Error(now)
	a.logger.Warn("Command rejected", "command", cmd, "source", source, "error", err)
	a.bus.Publish(events.CommandFailedEvent{Command: cmd, Source: source, Error: err.Error(), Timestamp: now})
}

// updateDisplay refreshes the status panel and sleeps it when idle.
func (a *App) updateDisplay(now time.Time) {
	if now.Sub(a.lastInput) >= a.cfg.Idle {
		if err := a.display.Sleep(); err != nil {
			a.logger.Warn("Display sleep failed", "error", err)
		}
		return
	}
	a.display.SetHeader(a.mode.String())
	a.display.SetBody(a.status())
	if err := a.display.Tick(now); err != nil {
		a.logger.Warn("Display draw failed", "error", err)
	}
}

func (a *App) status() string {
	switch a.mode {
	case modeSpeed:
		return fmt.Sprintf("speed %d (%s)", a.animator.Speed(), a.animator.Interval())
	case modeRoutine:
		state := "stopped"
		if a.animator.Active() {
			state = "running"
		}
		return fmt.Sprintf("%s %s", a.animator.Kind(), state)
	default:
		return fmt.Sprintf("brightness %.0f%%", a.strip.Brightness()*100)
	}
}
