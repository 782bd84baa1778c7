package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Tunables are the animation settings a running daemon picks up from the
// config file without a restart.
type Tunables struct {
	// SpeedsMs is the frame-interval table in milliseconds, slowest
	// first.
	SpeedsMs []int `toml:"speeds_ms"`
	// TransitionSteps is the sample count of each color transition.
	TransitionSteps int `toml:"transition_steps"`
	// FillChance is the per-pixel lit probability of the rando routine.
	FillChance float64 `toml:"fill_chance"`
	// IdleMs is how long the display stays awake after the last input.
	IdleMs int `toml:"idle_ms"`
}

// DefaultTunables returns the built-in animation settings: a descending
// 8ms-step interval table from 256ms down, 128-step transitions, a 20%
// sparkle chance and a 10s display timeout.
func DefaultTunables() Tunables {
	speeds := make([]int, 0, 32)
	for ms := 0x100; ms > 0; ms -= 0x8 {
		speeds = append(speeds, ms)
	}
	return Tunables{
		SpeedsMs:        speeds,
		TransitionSteps: 0x80,
		FillChance:      0.2,
		IdleMs:          10000,
	}
}

// LoadTunables reads the [tunables] section of the config file, filling
// gaps with defaults. A missing file yields the defaults.
func LoadTunables(configPath string) (Tunables, error) {
	cfg := DefaultTunables()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw struct {
		Tunables Tunables `toml:"tunables"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(raw.Tunables.SpeedsMs) > 0 {
		cfg.SpeedsMs = raw.Tunables.SpeedsMs
	}
	if raw.Tunables.TransitionSteps > 0 {
		cfg.TransitionSteps = raw.Tunables.TransitionSteps
	}
	if raw.Tunables.FillChance > 0 {
		cfg.FillChance = raw.Tunables.FillChance
	}
	if raw.Tunables.IdleMs > 0 {
		cfg.IdleMs = raw.Tunables.IdleMs
	}
	return cfg, nil
}
