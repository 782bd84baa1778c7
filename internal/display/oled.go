package display

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// OLED drives an ssd1306 panel over I²C.
type OLED struct {
	bus    i2c.BusCloser
	dev    *ssd1306.Dev
	logger *slog.Logger

	header string
	body   string
	dirty  bool
	asleep bool
}

// OLEDConfig locates the panel.
type OLEDConfig struct {
	// Bus is the i2creg bus name, e.g. "1".
	Bus string
	// Address is the panel's I²C address, usually 0x3c.
	Address uint16
	Width   int
	Height  int
}

// NewOLED opens the panel. host.Init is safe to call more than once.
func NewOLED(cfg OLEDConfig, logger *slog.Logger) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph host: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %s: %w", cfg.Bus, err)
	}
	opts := ssd1306.DefaultOpts
	if cfg.Width > 0 {
		opts.W = cfg.Width
	}
	if cfg.Height > 0 {
		opts.H = cfg.Height
	}
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to open ssd1306: %w", err)
	}
	return &OLED{bus: bus, dev: dev, logger: logger, dirty: true}, nil
}

func (o *OLED) SetHeader(text string) {
	if o.header != text {
		o.header = text
		o.dirty = true
	}
}

func (o *OLED) SetBody(text string) {
	if o.body != text {
		o.body = text
		o.dirty = true
	}
}

// Tick redraws a dirty frame. A content change while asleep wakes the
// panel first.
func (o *OLED) Tick(now time.Time) error {
	if !o.dirty {
		return nil
	}
	if o.asleep {
		if err := o.Wake(); err != nil {
			return err
		}
	}
	img := image1bit.NewVerticalLSB(o.dev.Bounds())
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, 13),
	}
	drawer.DrawString(o.header)
	drawer.Dot = fixed.P(0, 30)
	drawer.DrawString(o.body)
	if err := o.dev.Draw(o.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("failed to draw display frame: %w", err)
	}
	o.dirty = false
	return nil
}

// Sleep blanks the panel by drawing an empty frame at zero contrast.
func (o *OLED) Sleep() error {
	if o.asleep {
		return nil
	}
	blank := image1bit.NewVerticalLSB(o.dev.Bounds())
	if err := o.dev.Draw(o.dev.Bounds(), blank, image.Point{}); err != nil {
		return fmt.Errorf("failed to blank display: %w", err)
	}
	if err := o.dev.SetContrast(0); err != nil {
		return fmt.Errorf("failed to dim display: %w", err)
	}
	o.asleep = true
	return nil
}

// Wake restores contrast and forces a redraw.
func (o *OLED) Wake() error {
	if !o.asleep {
		return nil
	}
	if err := o.dev.SetContrast(0xff); err != nil {
		return fmt.Errorf("failed to wake display: %w", err)
	}
	o.asleep = false
	o.dirty = true
	return nil
}

// Close blanks the panel and releases the bus.
func (o *OLED) Close() error {
	o.dev.Halt()
	return o.bus.Close()
}
