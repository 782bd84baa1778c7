//go:build linux && cgo

package strip

import (
	"fmt"
	"math"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"

	"github.com/smazurov/stripd/internal/color"
)

// ws281x drives a WS281x strip through the rpi-ws281x PWM/DMA engine.
// The engine keeps its own frame buffer; Set/Fill write into it directly
// and Render commits.
type ws281x struct {
	dev        *ws2811.WS2811
	count      int
	brightness float64
}

// NewWS281x opens the strip on the given GPIO pin. brightness is the
// initial fraction in [0, 1].
func NewWS281x(gpioPin, count int, brightness float64) (Strip, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = gpioPin
	opt.Channels[0].LedCount = count
	opt.Channels[0].Brightness = scaleBrightness(brightness)

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("ws281x setup: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("ws281x init: %w", err)
	}
	return &ws281x{dev: dev, count: count, brightness: brightness}, nil
}

func (w *ws281x) Len() int { return w.count }

func (w *ws281x) At(i int) color.Color {
	return color.Color(w.dev.Leds(0)[i])
}

func (w *ws281x) Set(i int, c color.Color) {
	w.dev.Leds(0)[i] = uint32(c)
}

func (w *ws281x) Fill(c color.Color) {
	leds := w.dev.Leds(0)
	for i := range leds {
		leds[i] = uint32(c)
	}
}

func (w *ws281x) Brightness() float64 { return w.brightness }

func (w *ws281x) SetBrightness(b float64) {
	w.brightness = b
	w.dev.SetBrightness(0, scaleBrightness(b))
}

func (w *ws281x) Show() error {
	if err := w.dev.Render(); err != nil {
		return fmt.Errorf("ws281x render: %w", err)
	}
	return w.dev.Wait()
}

func (w *ws281x) Close() error {
	w.Fill(0)
	if err := w.dev.Render(); err == nil {
		w.dev.Wait()
	}
	w.dev.Fini()
	return nil
}

// scaleBrightness maps a [0, 1] fraction onto the engine's 0..255 scale.
func scaleBrightness(b float64) int {
	if b < 0 {
		b = 0
	}
	if b > 1 {
		b = 1
	}
	return int(math.Round(b * 255))
}
