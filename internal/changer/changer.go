// Package changer applies direct, single-shot adjustments to the strip:
// brightness, color channels, pixel selection and the hue wheel. It owns
// the cross-command selection state those verbs share.
package changer

import (
	"log/slog"
	"math"

	"github.com/smazurov/stripd/internal/color"
	"github.com/smazurov/stripd/internal/index"
	"github.com/smazurov/stripd/internal/strip"
	"github.com/smazurov/stripd/internal/types"
)

// wheelSize is the period of the hue wheel.
const wheelSize = 0x100

// Config carries the tunables and reset targets.
type Config struct {
	// BrightnessScale is the number of integer brightness units.
	BrightnessScale int
	// InitialBrightness (in scale units) is the clear-verb target.
	InitialBrightness int
	// InitialColor supplies per-channel clear-verb targets.
	InitialColor color.Color
}

// Changer mutates the strip in place. Not safe for concurrent use.
type Changer struct {
	strip  strip.Strip
	cfg    Config
	logger *slog.Logger

	// pixel narrows channel writes to one index when set.
	pixel *int
	// hue is the wheel position of the last hue command. It survives
	// only until something writes colors by another route.
	hue *int
}

func New(s strip.Strip, cfg Config, logger *slog.Logger) *Changer {
	return &Changer{strip: s, cfg: cfg, logger: logger}
}

// Pixel returns the current pixel selection, nil for whole-strip.
func (c *Changer) Pixel() *int { return c.pixel }

// InvalidateHue drops the remembered wheel position. Call it whenever
// pixel colors change outside the hue path.
func (c *Changer) InvalidateHue() { c.hue = nil }

// SelectPixel applies a verb to the pixel selection. Relative moves wrap
// around the strip. Changing the selection invalidates the hue memory.
func (c *Changer) SelectPixel(verb types.Verb, quantity *int) error {
	next, err := index.Resolve(verb, quantity, c.pixel, c.strip.Len(), true)
	if err != nil {
		return err
	}
	c.pixel = next
	c.hue = nil
	return nil
}

// Hue applies a verb to the wheel position and paints the result over
// the selection. With no remembered position, the current color of the
// first selected pixel seeds it. Clear paints wheel position zero and
// forgets the position, so the next relative step re-seeds.
func (c *Changer) Hue(verb types.Verb, quantity *int) error {
	cur := c.hue
	if cur == nil && quantity != nil {
		first := 0
		if c.pixel != nil {
			first = *c.pixel
		}
		pos := color.Unwheel(c.strip.At(first))
		cur = &pos
	}
	next, err := index.Resolve(verb, quantity, cur, wheelSize, true)
	if err != nil {
		return err
	}
	pos := 0
	if next != nil {
		pos = *next
	}
	c.paint(color.Wheel(pos))
	c.hue = next
	return c.strip.Show()
}

// Brightness applies a verb in integer scale units. Minus rounds the
// current level up to a unit before subtracting and plus truncates, so
// a fractional level always moves on the first step. The strip flushes
// only when the level actually changes.
func (c *Changer) Brightness(verb types.Verb, quantity *int) error {
	scale := float64(c.cfg.BrightnessScale)
	q := 1
	if quantity != nil {
		q = *quantity
	}

	var units int
	switch verb {
	case types.VerbSet:
		units = q
	case types.VerbPlus:
		units = int(c.strip.Brightness()*scale) + q
	case types.VerbMinus:
		units = int(math.Ceil(c.strip.Brightness()*scale)) - q
	case types.VerbClear:
		units = c.cfg.InitialBrightness
	case types.VerbMin:
		units = 0
	case types.VerbMax:
		units = c.cfg.BrightnessScale
	default:
		return index.ErrOutOfRange
	}
	if units < 0 {
		units = 0
	}
	if units > c.cfg.BrightnessScale {
		units = c.cfg.BrightnessScale
	}

	level := float64(units) / scale
	if level == c.strip.Brightness() {
		return nil
	}
	c.strip.SetBrightness(level)
	c.logger.Debug("Brightness changed", "level", level)
	return c.strip.Show()
}

// Channel applies a verb to one RGB channel (0=red, 1=green, 2=blue)
// over the selection. Writing a channel invalidates the hue memory.
func (c *Changer) Channel(ch int, verb types.Verb, quantity *int) error {
	return c.adjust(verb, quantity, []int{ch})
}

// White applies a verb to all three channels at once.
func (c *Changer) White(verb types.Verb, quantity *int) error {
	return c.adjust(verb, quantity, []int{0, 1, 2})
}

// adjust resolves the verb against each selected pixel's own channel
// values, clamping every byte into [0, 0xff]. The strip flushes only
// when some pixel actually changed.
func (c *Changer) adjust(verb types.Verb, quantity *int, channels []int) error {
	switch verb {
	case types.VerbSet, types.VerbPlus, types.VerbMinus, types.VerbClear, types.VerbMin, types.VerbMax:
	default:
		return index.ErrOutOfRange
	}
	q := 0
	if quantity != nil {
		q = *quantity
		if verb == types.VerbMinus {
			q = -q
		}
	}

	changed := false
	c.each(func(p int) {
		px := c.strip.At(p)
		next := px
		for _, ch := range channels {
			var v int
			switch {
			case verb == types.VerbMin:
				v = 0
			case verb == types.VerbMax:
				v = 0xff
			case verb == types.VerbClear || quantity == nil:
				v = c.cfg.InitialColor.Channel(ch)
			case verb == types.VerbSet:
				v = q
			default:
				v = px.Channel(ch) + q
			}
			if v < 0 {
				v = 0
			}
			if v > 0xff {
				v = 0xff
			}
			next = next.WithChannel(ch, v)
		}
		if next != px {
			c.strip.Set(p, next)
			changed = true
		}
	})
	c.hue = nil
	if !changed {
		return nil
	}
	return c.strip.Show()
}

// paint writes one color across the selection without touching the hue
// memory.
func (c *Changer) paint(v color.Color) {
	c.each(func(p int) { c.strip.Set(p, v) })
}

func (c *Changer) each(f func(p int)) {
	if c.pixel != nil {
		f(*c.pixel)
		return
	}
	for p := 0; p < c.strip.Len(); p++ {
		f(p)
	}
}
