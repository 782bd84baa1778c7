package controller

import (
	"log/slog"
	"testing"
	"time"

	"github.com/smazurov/stripd/internal/actled"
	"github.com/smazurov/stripd/internal/animator"
	"github.com/smazurov/stripd/internal/changer"
	"github.com/smazurov/stripd/internal/config"
	"github.com/smazurov/stripd/internal/display"
	"github.com/smazurov/stripd/internal/events"
	"github.com/smazurov/stripd/internal/inputs"
	"github.com/smazurov/stripd/internal/presets"
	"github.com/smazurov/stripd/internal/router"
	"github.com/smazurov/stripd/internal/storage"
	"github.com/smazurov/stripd/internal/strip"
	"github.com/smazurov/stripd/internal/types"
)

// flashCounter records flashes instead of touching sysfs.
type flashCounter struct {
	flashes int
}

func (f *flashCounter) Flash(time.Duration, time.Time) { f.flashes++ }
func (f *flashCounter) Tick(time.Time)                 {}
func (f *flashCounter) Off()                           {}

type fixture struct {
	app   *App
	strip *strip.Memory
	store *presets.Store
	an    *animator.Animator
	act   *flashCounter
	errs  *flashCounter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.Default()
	mem := strip.NewMemory(4)
	ps := presets.NewStore(mem, storage.NewDir(t.TempDir()), presets.Config{Slots: 4, Fallback: 0xffffff}, logger)
	an := animator.New(mem, ps, animator.Config{
		Speeds:          []time.Duration{40 * time.Millisecond, 20 * time.Millisecond},
		InitialSpeed:    0,
		InitialKind:     animator.WheelLoop,
		TransitionSteps: 4,
		FillChance:      0.2,
	}, logger)
	ch := changer.New(mem, changer.Config{BrightnessScale: 0x20, InitialBrightness: 6, InitialColor: 0xffffff}, logger)
	bus := events.New()
	rt := router.New(mem, ch, an, ps, bus, logger)
	act, errs := &flashCounter{}, &flashCounter{}
	app := New(Deps{
		Strip:    mem,
		Changer:  ch,
		Animator: an,
		Presets:  ps,
		Router:   rt,
		LEDs:     &actled.Panel{Act: act, Err: errs},
		Display:  display.Noop{},
		Bus:      bus,
		Logger:   logger,
	}, Config{AutoStart: false, Idle: 10 * time.Second})
	return &fixture{app: app, strip: mem, store: ps, an: an, act: act, errs: errs}
}

func TestExecuteFlashesActivity(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(0, 0)
	f.app.execute(now, types.Command{What: types.WhatBrightness, Verb: types.VerbPlus, Quantity: types.Int(1)}, "serial")
	if f.act.flashes != 1 || f.errs.flashes != 0 {
		t.Errorf("flashes = act %d err %d, want 1/0", f.act.flashes, f.errs.flashes)
	}
}

func TestExecuteFlashesErrorOnRejection(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(0, 0)
	f.app.execute(now, types.Command{What: types.WhatPixel, Verb: types.VerbSet, Quantity: types.Int(99)}, "serial")
	if f.errs.flashes != 1 || f.act.flashes != 0 {
		t.Errorf("flashes = act %d err %d, want 0/1", f.act.flashes, f.errs.flashes)
	}
}

func TestStartupRestoresBootPreset(t *testing.T) {
	f := newFixture(t)
	f.strip.Fill(0x123456)
	if ok, err := f.store.Save(0); err != nil || !ok {
		t.Fatalf("seed preset: %v, %v", ok, err)
	}
	f.strip.Fill(0)

	f.app.startup(time.Unix(0, 0))
	if f.strip.At(0) != 0x123456 {
		t.Errorf("pixel = %#06x after startup, want boot preset", uint32(f.strip.At(0)))
	}
}

func TestStartupWithoutPresetFallsBack(t *testing.T) {
	f := newFixture(t)
	f.app.startup(time.Unix(0, 0))
	if f.strip.At(0) != 0xffffff {
		t.Errorf("pixel = %#06x, want fallback fill", uint32(f.strip.At(0)))
	}
}

func TestStartupAutoStart(t *testing.T) {
	f := newFixture(t)
	f.app.cfg.AutoStart = true
	f.app.startup(time.Unix(0, 0))
	if !f.an.Active() {
		t.Error("initial routine did not start")
	}
}

func TestModeButtonCycles(t *testing.T) {
	f := newFixture(t)
	f.app.buttons = buttonsWith(t, 3)
	now := time.Unix(0, 0)

	press(f.app.buttons, btnMode, 100*time.Millisecond, now)
	f.app.pollButtons(now)
	if f.app.mode != modeSpeed {
		t.Fatalf("mode = %s, want speed", f.app.mode)
	}
	press(f.app.buttons, btnMode, 100*time.Millisecond, now)
	press(f.app.buttons, btnMode, 100*time.Millisecond, now)
	f.app.pollButtons(now)
	if f.app.mode != modeBrightness {
		t.Errorf("mode = %s after full cycle, want brightness", f.app.mode)
	}
}

func TestIncrementButtonStepsMode(t *testing.T) {
	f := newFixture(t)
	f.app.buttons = buttonsWith(t, 3)
	f.app.mode = modeSpeed
	now := time.Unix(0, 0)

	press(f.app.buttons, btnIncrement, 100*time.Millisecond, now)
	f.app.pollButtons(now)
	if f.an.Speed() != 1 {
		t.Errorf("speed = %d, want 1", f.an.Speed())
	}

	// Long press on decrement jumps to the minimum.
	press(f.app.buttons, btnDecrement, 2*time.Second, now)
	f.app.pollButtons(now)
	if f.an.Speed() != 0 {
		t.Errorf("speed = %d after long decrement, want 0", f.an.Speed())
	}
}

func TestModeButtonLongTogglesRoutine(t *testing.T) {
	f := newFixture(t)
	f.app.buttons = buttonsWith(t, 3)
	now := time.Unix(0, 0)

	press(f.app.buttons, btnMode, 2*time.Second, now)
	f.app.pollButtons(now)
	if !f.an.Active() {
		t.Fatal("long mode press did not start the routine")
	}
	press(f.app.buttons, btnMode, 2*time.Second, now)
	f.app.pollButtons(now)
	if f.an.Active() {
		t.Error("second long press did not stop the routine")
	}
}

func TestApplyTunablesKeepsLatest(t *testing.T) {
	f := newFixture(t)
	if err := f.an.SpeedChange(types.VerbMax, nil); err != nil {
		t.Fatal(err)
	}
	f.app.ApplyTunables(config.Tunables{SpeedsMs: []int{50, 25}, TransitionSteps: 16, FillChance: 0.3, IdleMs: 500})
	f.app.ApplyTunables(config.Tunables{SpeedsMs: []int{100}, TransitionSteps: 8, FillChance: 0.1, IdleMs: 700})

	select {
	case tun := <-f.app.tunables:
		if len(tun.SpeedsMs) != 1 {
			t.Errorf("kept snapshot has %d speeds, want the latest 1", len(tun.SpeedsMs))
		}
		f.app.applyTunables(tun)
	default:
		t.Fatal("no snapshot queued")
	}
	if f.app.cfg.Idle != 700*time.Millisecond {
		t.Errorf("idle = %v, want 700ms", f.app.cfg.Idle)
	}
	// The speed index sat past the end of the one-entry table and must
	// clamp onto it.
	if f.an.Interval() != 100*time.Millisecond {
		t.Errorf("interval = %v after retune, want the single remaining entry", f.an.Interval())
	}
}

// buttonsWith builds a Buttons bank with no hardware lines behind it.
func buttonsWith(t *testing.T, n int) *inputs.Buttons {
	t.Helper()
	return inputs.NewTestButtons(n, time.Second)
}

// press queues a full press/release pair.
func press(b *inputs.Buttons, button int, hold time.Duration, now time.Time) {
	b.Inject(button, true, now.Add(-hold))
	b.Inject(button, false, now)
}
