package strip

import "log/slog"

// Config selects and sizes the strip hardware.
type Config struct {
	Driver     string // "ws281x", "memory"
	GPIOPin    int
	Pixels     int
	Brightness float64 // initial fraction in [0, 1]
}

// New creates the configured strip, falling back to a memory strip when
// the hardware driver is unavailable so the controller stays usable for
// development off-device.
func New(cfg Config, logger *slog.Logger) Strip {
	switch cfg.Driver {
	case "ws281x":
		s, err := NewWS281x(cfg.GPIOPin, cfg.Pixels, cfg.Brightness)
		if err == nil {
			logger.Info("Using ws281x strip", "gpio_pin", cfg.GPIOPin, "pixels", cfg.Pixels)
			return s
		}
		logger.Warn("ws281x strip unavailable, falling back to memory strip", "error", err)
	case "memory":
	default:
		logger.Warn("Unknown strip driver, using memory strip", "driver", cfg.Driver)
	}
	m := NewMemory(cfg.Pixels)
	m.SetBrightness(cfg.Brightness)
	return m
}
