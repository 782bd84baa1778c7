package router

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/smazurov/stripd/internal/animator"
	"github.com/smazurov/stripd/internal/changer"
	"github.com/smazurov/stripd/internal/events"
	"github.com/smazurov/stripd/internal/index"
	"github.com/smazurov/stripd/internal/presets"
	"github.com/smazurov/stripd/internal/storage"
	"github.com/smazurov/stripd/internal/strip"
	"github.com/smazurov/stripd/internal/types"
)

type fixture struct {
	router   *Router
	strip    *strip.Memory
	animator *animator.Animator
	changer  *changer.Changer
	presets  *presets.Store
}

func newFixture(t *testing.T, pixels int) *fixture {
	t.Helper()
	logger := slog.Default()
	mem := strip.NewMemory(pixels)
	ps := presets.NewStore(mem, storage.NewDir(t.TempDir()), presets.Config{Slots: 8, Fallback: 0xffffff}, logger)
	an := animator.New(mem, ps, animator.Config{
		Speeds:          []time.Duration{40 * time.Millisecond, 20 * time.Millisecond, 10 * time.Millisecond},
		InitialSpeed:    1,
		InitialKind:     animator.WheelLoop,
		TransitionSteps: 4,
		FillChance:      0.2,
	}, logger)
	ch := changer.New(mem, changer.Config{BrightnessScale: 0x20, InitialBrightness: 6, InitialColor: 0xffffff}, logger)
	return &fixture{
		router:   New(mem, ch, an, ps, events.New(), logger),
		strip:    mem,
		animator: an,
		changer:  ch,
		presets:  ps,
	}
}

func (f *fixture) dispatch(t *testing.T, what types.What, verb types.Verb, q *int) {
	t.Helper()
	if err := f.router.Dispatch(types.Command{What: what, Verb: verb, Quantity: q}, time.Unix(0, 0)); err != nil {
		t.Fatalf("%s %s: %v", what, verb, err)
	}
}

func TestDispatchRejectsInvalidActions(t *testing.T) {
	f := newFixture(t, 4)
	cases := []types.Command{
		{What: types.WhatDraw, Verb: types.VerbSet},
		{What: types.WhatHue, Verb: types.VerbMax},
		{What: types.WhatBuffer, Verb: types.VerbPlus},
		{What: types.WhatNoop, Verb: types.VerbClear},
		{What: types.What(99), Verb: types.VerbSet},
	}
	for _, cmd := range cases {
		err := f.router.Dispatch(cmd, time.Unix(0, 0))
		if !errors.Is(err, ErrInvalidAction) {
			t.Errorf("Dispatch(%s %s) = %v, want ErrInvalidAction", cmd.What, cmd.Verb, err)
		}
	}
}

func TestColorCommandsStopAnimation(t *testing.T) {
	f := newFixture(t, 4)
	now := time.Unix(0, 0)
	if err := f.router.Dispatch(types.Command{What: types.WhatRoutine, Verb: types.VerbRun}, now); err != nil {
		t.Fatal(err)
	}
	if !f.animator.Active() {
		t.Fatal("routine did not start")
	}
	f.dispatch(t, types.WhatRed, types.VerbSet, types.Int(255))
	if f.animator.Active() {
		t.Error("color write left the animation running")
	}
}

func TestBrightnessAndSpeedKeepAnimation(t *testing.T) {
	f := newFixture(t, 4)
	now := time.Unix(0, 0)
	if err := f.router.Dispatch(types.Command{What: types.WhatRoutine, Verb: types.VerbRun}, now); err != nil {
		t.Fatal(err)
	}
	f.dispatch(t, types.WhatBrightness, types.VerbPlus, types.Int(1))
	f.dispatch(t, types.WhatSpeed, types.VerbMinus, types.Int(1))
	f.dispatch(t, types.WhatNoop, types.VerbRun, nil)
	if !f.animator.Active() {
		t.Error("tuning command stopped the animation")
	}
	if f.animator.Speed() != 0 {
		t.Errorf("speed = %d, want 0", f.animator.Speed())
	}
}

func TestRunExplicitRoutine(t *testing.T) {
	f := newFixture(t, 2)
	kind := int(animator.RedLoop)
	cmd := types.Command{What: types.WhatRoutine, Verb: types.VerbRun, Routine: &kind, Quantity: types.Int(2)}
	if err := f.router.Dispatch(cmd, time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}
	if f.animator.Kind() != animator.RedLoop {
		t.Errorf("kind = %s, want red_loop", f.animator.Kind())
	}
	if f.animator.Speed() != 2 {
		t.Errorf("speed = %d, want 2", f.animator.Speed())
	}
}

func TestRoutineSelectionChange(t *testing.T) {
	f := newFixture(t, 2)
	f.dispatch(t, types.WhatRoutine, types.VerbPlus, types.Int(1))
	if f.animator.Kind() != animator.RedLoop {
		t.Errorf("kind = %s after plus, want red_loop", f.animator.Kind())
	}
	if f.animator.Active() {
		t.Error("selection change started an animation")
	}
}

func TestPresetRoundTripThroughRouter(t *testing.T) {
	f := newFixture(t, 3)
	f.dispatch(t, types.WhatWhite, types.VerbSet, types.Int(128))
	f.dispatch(t, types.WhatBuffer, types.VerbSave, types.Int(1))
	f.dispatch(t, types.WhatWhite, types.VerbSet, types.Int(0))
	f.dispatch(t, types.WhatBuffer, types.VerbRestore, types.Int(1))
	if f.strip.At(0) != 0x808080 {
		t.Errorf("pixel = %#06x after restore, want 0x808080", uint32(f.strip.At(0)))
	}
}

func TestRestoreMissingSlotSurfacesStorageError(t *testing.T) {
	f := newFixture(t, 3)
	err := f.router.Dispatch(types.Command{What: types.WhatBuffer, Verb: types.VerbRestore, Quantity: types.Int(5)}, time.Unix(0, 0))
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("restore of empty slot = %v, want ErrUnavailable", err)
	}
	// The fallback fill still happened.
	if f.strip.At(0) != 0xffffff {
		t.Errorf("pixel = %#06x, want fallback fill", uint32(f.strip.At(0)))
	}
}

func TestPresetSlotOutOfRange(t *testing.T) {
	f := newFixture(t, 3)
	err := f.router.Dispatch(types.Command{What: types.WhatBuffer, Verb: types.VerbSave, Quantity: types.Int(8)}, time.Unix(0, 0))
	if !errors.Is(err, presets.ErrSlotOutOfRange) {
		t.Errorf("save slot 8 = %v, want ErrSlotOutOfRange", err)
	}
}

func TestPixelOutOfRangePropagates(t *testing.T) {
	f := newFixture(t, 4)
	err := f.router.Dispatch(types.Command{What: types.WhatPixel, Verb: types.VerbSet, Quantity: types.Int(4)}, time.Unix(0, 0))
	if !errors.Is(err, index.ErrOutOfRange) {
		t.Errorf("pixel set 4 on length 4 = %v, want ErrOutOfRange", err)
	}
}

func TestDrawFlushes(t *testing.T) {
	f := newFixture(t, 2)
	shows := f.strip.Shows()
	f.dispatch(t, types.WhatDraw, types.VerbRun, nil)
	if f.strip.Shows() != shows+1 {
		t.Error("draw did not flush the strip")
	}
}

func TestRestoreInvalidatesHueWalk(t *testing.T) {
	f := newFixture(t, 2)
	f.dispatch(t, types.WhatHue, types.VerbSet, types.Int(85))
	f.dispatch(t, types.WhatBuffer, types.VerbSave, types.Int(0))
	f.dispatch(t, types.WhatHue, types.VerbSet, types.Int(200))
	f.dispatch(t, types.WhatBuffer, types.VerbRestore, types.Int(0))

	// The next relative hue step re-seeds from the restored color (wheel
	// position 85), not the last commanded position 200.
	f.dispatch(t, types.WhatHue, types.VerbPlus, types.Int(1))
	if f.strip.At(0).Channel(0) != 0 {
		t.Errorf("pixel = %#06x, want a green-side wheel color", uint32(f.strip.At(0)))
	}
	if got := f.strip.At(0).Channel(1); got != 255-3 {
		t.Errorf("green = %d, want wheel step from restored color", got)
	}
}
