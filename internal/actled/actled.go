// Package actled drives the board's status LEDs through the Linux sysfs
// LED interface: a short activity flash per accepted command and an
// error flash per rejected one. Flashes are timed from the controller
// loop's tick, never from timers.
package actled

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const sysfsLEDPath = "/sys/class/leds"

// Flasher is one status LED.
type Flasher interface {
	// Flash turns the LED on until the given duration elapses. A flash
	// issued while one is pending extends it.
	Flash(d time.Duration, now time.Time)
	// Tick turns the LED off once its flash expires.
	Tick(now time.Time)
	// Off forces the LED off.
	Off()
}

// sysfsLED implements Flasher over /sys/class/leds/<name>.
type sysfsLED struct {
	path   string
	logger *slog.Logger
	lit    bool
	offAt  time.Time
}

// New opens a sysfs LED by name, claiming manual control by clearing its
// trigger. A missing or unwritable LED degrades to a no-op.
func New(name string, logger *slog.Logger) Flasher {
	return newAt(sysfsLEDPath, name, logger)
}

func newAt(root, name string, logger *slog.Logger) Flasher {
	if name == "" {
		return noop{}
	}
	path := filepath.Join(root, name)
	if _, err := os.Stat(path); err != nil {
		logger.Info("Status LED not found, disabling", "led", name)
		return noop{}
	}
	led := &sysfsLED{path: path, logger: logger}
	if err := led.write("trigger", "none"); err != nil {
		logger.Warn("Status LED trigger not writable, disabling", "led", name, "error", err)
		return noop{}
	}
	led.set(false)
	return led
}

func (l *sysfsLED) Flash(d time.Duration, now time.Time) {
	l.set(true)
	if end := now.Add(d); end.After(l.offAt) {
		l.offAt = end
	}
}

func (l *sysfsLED) Tick(now time.Time) {
	if l.lit && !now.Before(l.offAt) {
		l.set(false)
	}
}

func (l *sysfsLED) Off() {
	l.set(false)
	l.offAt = time.Time{}
}

func (l *sysfsLED) set(on bool) {
	if l.lit == on {
		return
	}
	value := "0"
	if on {
		value = "1"
	}
	if err := l.write("brightness", value); err != nil {
		l.logger.Warn("Status LED write failed", "error", err)
		return
	}
	l.lit = on
}

func (l *sysfsLED) write(file, value string) error {
	if err := os.WriteFile(filepath.Join(l.path, file), []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write LED %s: %w", file, err)
	}
	return nil
}

// noop satisfies Flasher on boards with no status LEDs.
type noop struct{}

func (noop) Flash(time.Duration, time.Time) {}
func (noop) Tick(time.Time)                 {}
func (noop) Off()                           {}

// Panel pairs the activity and error LEDs.
type Panel struct {
	Act Flasher
	Err Flasher
}

// Durations of the two flash kinds.
const (
	ActFlash = 30 * time.Millisecond
	ErrFlash = 250 * time.Millisecond
)

// NewPanel opens both status LEDs by name. Either name may be empty.
func NewPanel(actName, errName string, logger *slog.Logger) *Panel {
	return &Panel{
		Act: New(actName, logger),
		Err: New(errName, logger),
	}
}

// Activity flashes the activity LED.
func (p *Panel) Activity(now time.Time) { p.Act.Flash(ActFlash, now) }

// Error flashes the error LED.
func (p *Panel) Error(now time.Time) { p.Err.Flash(ErrFlash, now) }

// Tick expires pending flashes.
func (p *Panel) Tick(now time.Time) {
	p.Act.Tick(now)
	p.Err.Tick(now)
}

// Off forces both LEDs off.
func (p *Panel) Off() {
	p.Act.Off()
	p.Err.Off()
}
