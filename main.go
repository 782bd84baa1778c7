package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/stripd/cmd"
	"github.com/smazurov/stripd/internal/actled"
	"github.com/smazurov/stripd/internal/animator"
	"github.com/smazurov/stripd/internal/changer"
	"github.com/smazurov/stripd/internal/color"
	"github.com/smazurov/stripd/internal/config"
	"github.com/smazurov/stripd/internal/controller"
	"github.com/smazurov/stripd/internal/display"
	"github.com/smazurov/stripd/internal/events"
	"github.com/smazurov/stripd/internal/inputs"
	"github.com/smazurov/stripd/internal/logging"
	"github.com/smazurov/stripd/internal/presets"
	"github.com/smazurov/stripd/internal/router"
	"github.com/smazurov/stripd/internal/storage"
	"github.com/smazurov/stripd/internal/strip"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Strip settings
	StripDriver  string `help:"Strip driver (ws281x, memory)" default:"ws281x" toml:"strip.driver" env:"STRIP_DRIVER"`
	StripPixels  int    `help:"Number of pixels on the strip" default:"50" toml:"strip.pixels" env:"STRIP_PIXELS"`
	StripGPIOPin int    `help:"Data GPIO pin (BCM numbering)" default:"18" toml:"strip.gpio_pin" env:"STRIP_GPIO_PIN"`

	// Brightness and color settings
	BrightnessScale   int    `help:"Integer brightness units per full scale" default:"32" toml:"strip.brightness_scale" env:"STRIP_BRIGHTNESS_SCALE"`
	BrightnessInitial int    `help:"Boot brightness in scale units" default:"6" toml:"strip.brightness_initial" env:"STRIP_BRIGHTNESS_INITIAL"`
	InitialColor      string `help:"Color the clear verb restores, hex RRGGBB" default:"ffffff" toml:"strip.initial_color" env:"STRIP_INITIAL_COLOR"`

	// Animation settings
	InitialRoutine int  `help:"Routine selected at boot (0-6)" default:"0" toml:"animation.initial_routine" env:"ANIMATION_INITIAL_ROUTINE"`
	InitialSpeed   int  `help:"Speed table index at boot (-1 for middle)" default:"-1" toml:"animation.initial_speed" env:"ANIMATION_INITIAL_SPEED"`
	AutoStart      bool `help:"Start the selected routine at boot" default:"false" toml:"animation.auto_start" env:"ANIMATION_AUTO_START"`

	// Preset settings
	PresetSlots int `help:"Number of preset slots" default:"8" toml:"presets.slots" env:"PRESETS_SLOTS"`

	// Storage settings
	StorageDir       string `help:"Preset directory when the SD card is disabled" default:"." toml:"storage.dir" env:"STORAGE_DIR"`
	SDEnabled        bool   `help:"Store presets on a removable SD card" default:"false" toml:"storage.sd_enabled" env:"STORAGE_SD_ENABLED"`
	SDDevice         string `help:"SD block device node" default:"/dev/mmcblk0p1" toml:"storage.sd_device" env:"STORAGE_SD_DEVICE"`
	SDMountPoint     string `help:"SD mount point" default:"/media/sd" toml:"storage.sd_mount_point" env:"STORAGE_SD_MOUNT_POINT"`
	SDMountTimeoutMs int    `help:"Mount command timeout in milliseconds" default:"10000" toml:"storage.sd_mount_timeout_ms" env:"STORAGE_SD_MOUNT_TIMEOUT_MS"`

	// Serial settings
	SerialEnabled bool   `help:"Listen for wire commands on a serial port" default:"true" toml:"serial.enabled" env:"SERIAL_ENABLED"`
	SerialDevice  string `help:"Serial device to listen on" default:"/dev/ttyAMA0" toml:"serial.device" env:"SERIAL_DEVICE"`
	SerialBaud    int    `help:"Serial baud rate" default:"115200" toml:"serial.baud" env:"SERIAL_BAUD"`

	// Panel input settings
	ButtonsEnabled bool   `help:"Poll local panel buttons" default:"false" toml:"inputs.buttons_enabled" env:"INPUTS_BUTTONS_ENABLED"`
	ButtonsChip    string `help:"GPIO chip for panel inputs" default:"gpiochip0" toml:"inputs.chip" env:"INPUTS_CHIP"`
	ButtonOffsets  string `help:"Button line offsets: decrement,mode,increment" default:"17,27,22" toml:"inputs.button_offsets" env:"INPUTS_BUTTON_OFFSETS"`
	LongPressMs    int    `help:"Long press threshold in milliseconds" default:"600" toml:"inputs.long_press_ms" env:"INPUTS_LONG_PRESS_MS"`
	DebounceMs     int    `help:"Button debounce period in milliseconds" default:"5" toml:"inputs.debounce_ms" env:"INPUTS_DEBOUNCE_MS"`
	RotaryEnabled  bool   `help:"Poll a rotary encoder" default:"false" toml:"inputs.rotary_enabled" env:"INPUTS_ROTARY_ENABLED"`
	RotaryA        int    `help:"Rotary encoder line A offset" default:"23" toml:"inputs.rotary_a" env:"INPUTS_ROTARY_A"`
	RotaryB        int    `help:"Rotary encoder line B offset" default:"24" toml:"inputs.rotary_b" env:"INPUTS_ROTARY_B"`

	// Display settings
	DisplayEnabled bool   `help:"Drive a status OLED over I2C" default:"false" toml:"display.enabled" env:"DISPLAY_ENABLED"`
	DisplayBus     string `help:"I2C bus name" default:"1" toml:"display.bus" env:"DISPLAY_BUS"`
	DisplayAddress int    `help:"I2C address of the panel" default:"60" toml:"display.address" env:"DISPLAY_ADDRESS"`
	DisplayWidth   int    `help:"Panel width in pixels" default:"128" toml:"display.width" env:"DISPLAY_WIDTH"`
	DisplayHeight  int    `help:"Panel height in pixels" default:"32" toml:"display.height" env:"DISPLAY_HEIGHT"`

	// Status LED settings
	ActLEDName string `help:"sysfs LED flashed on accepted commands" default:"" toml:"leds.act" env:"LEDS_ACT"`
	ErrLEDName string `help:"sysfs LED flashed on failed commands" default:"" toml:"leds.err" env:"LEDS_ERR"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingController string `help:"Controller logging level" default:"info" toml:"logging.controller" env:"LOGGING_CONTROLLER"`
	LoggingAnimator   string `help:"Animator logging level" default:"info" toml:"logging.animator" env:"LOGGING_ANIMATOR"`
	LoggingPresets    string `help:"Presets logging level" default:"info" toml:"logging.presets" env:"LOGGING_PRESETS"`
	LoggingStorage    string `help:"Storage logging level" default:"info" toml:"logging.storage" env:"LOGGING_STORAGE"`
	LoggingInputs     string `help:"Inputs logging level" default:"info" toml:"logging.inputs" env:"LOGGING_INPUTS"`
	LoggingDisplay    string `help:"Display logging level" default:"info" toml:"logging.display" env:"LOGGING_DISPLAY"`
}

// reloadable is the slice of the TOML file the daemon re-reads while
// running.
type reloadable struct {
	logging  logging.Config
	tunables config.Tunables
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"controller": opts.LoggingController,
				"animator":   opts.LoggingAnimator,
				"presets":    opts.LoggingPresets,
				"storage":    opts.LoggingStorage,
				"inputs":     opts.LoggingInputs,
				"display":    opts.LoggingDisplay,
			},
		}
		logging.Initialize(loggingConfig)
		logger := logging.GetLogger("main")

		tunables, err := config.LoadTunables(opts.Config)
		if err != nil {
			logger.Warn("Bad tunables section, using defaults", "error", err)
			tunables = config.DefaultTunables()
		}

		scale := opts.BrightnessScale
		if scale <= 0 {
			scale = 32
		}
		initialBrightness := clamp(opts.BrightnessInitial, 0, scale)

		ledStrip := strip.New(strip.Config{
			Driver:     opts.StripDriver,
			GPIOPin:    opts.StripGPIOPin,
			Pixels:     opts.StripPixels,
			Brightness: float64(initialBrightness) / float64(scale),
		}, logging.GetLogger("strip"))

		var device storage.Device
		if opts.SDEnabled {
			device = storage.NewSD(storage.SDConfig{
				DeviceNode:   opts.SDDevice,
				MountPoint:   opts.SDMountPoint,
				Enabled:      true,
				MountTimeout: time.Duration(opts.SDMountTimeoutMs) * time.Millisecond,
			}, logging.GetLogger("storage"))
		} else {
			device = storage.NewDir(opts.StorageDir)
		}

		initialColor := parseHexColor(opts.InitialColor, 0xffffff)

		store := presets.NewStore(ledStrip, device, presets.Config{
			Slots:    opts.PresetSlots,
			Fallback: initialColor,
		}, logging.GetLogger("presets"))

		ch := changer.New(ledStrip, changer.Config{
			BrightnessScale:   scale,
			InitialBrightness: initialBrightness,
			InitialColor:      initialColor,
		}, logging.GetLogger("changer"))

		an := animator.New(ledStrip, store, animator.Config{
			Speeds:          speedTable(tunables.SpeedsMs),
			InitialSpeed:    opts.InitialSpeed,
			InitialKind:     animator.Kind(opts.InitialRoutine),
			TransitionSteps: tunables.TransitionSteps,
			FillChance:      tunables.FillChance,
		}, logging.GetLogger("animator"))

		bus := events.New()
		rt := router.New(ledStrip, ch, an, store, bus, logging.GetLogger("router"))

		inputLogger := logging.GetLogger("inputs")
		var serial *inputs.Serial
		if opts.SerialEnabled {
			serial, err = inputs.OpenSerial(inputs.SerialConfig{
				Device: opts.SerialDevice,
				Baud:   opts.SerialBaud,
			}, inputLogger)
			if err != nil {
				logger.Warn("Serial port unavailable", "device", opts.SerialDevice, "error", err)
			}
		}

		var buttons *inputs.Buttons
		if opts.ButtonsEnabled {
			buttons, err = inputs.NewButtons(inputs.ButtonsConfig{
				Chip:      opts.ButtonsChip,
				Offsets:   parseOffsets(opts.ButtonOffsets),
				LongPress: time.Duration(opts.LongPressMs) * time.Millisecond,
				Debounce:  time.Duration(opts.DebounceMs) * time.Millisecond,
			}, inputLogger)
			if err != nil {
				logger.Warn("Panel buttons unavailable", "chip", opts.ButtonsChip, "error", err)
			}
		}

		var rotary *inputs.Rotary
		if opts.RotaryEnabled {
			rotary, err = inputs.NewRotary(inputs.RotaryConfig{
				Chip: opts.ButtonsChip,
				A:    opts.RotaryA,
				B:    opts.RotaryB,
			}, inputLogger)
			if err != nil {
				logger.Warn("Rotary encoder unavailable", "chip", opts.ButtonsChip, "error", err)
			}
		}

		var disp display.Display = display.Noop{}
		if opts.DisplayEnabled {
			oled, oledErr := display.NewOLED(display.OLEDConfig{
				Bus:     opts.DisplayBus,
				Address: uint16(opts.DisplayAddress),
				Width:   opts.DisplayWidth,
				Height:  opts.DisplayHeight,
			}, logging.GetLogger("display"))
			if oledErr != nil {
				logger.Warn("Display unavailable", "bus", opts.DisplayBus, "error", oledErr)
			} else {
				disp = oled
			}
		}

		leds := actled.NewPanel(opts.ActLEDName, opts.ErrLEDName, logging.GetLogger("leds"))

		app := controller.New(controller.Deps{
			Strip:    ledStrip,
			Changer:  ch,
			Animator: an,
			Presets:  store,
			Router:   rt,
			Serial:   serial,
			Buttons:  buttons,
			Rotary:   rotary,
			LEDs:     leds,
			Display:  disp,
			Bus:      bus,
			Logger:   logging.GetLogger("controller"),
		}, controller.Config{
			AutoStart: opts.AutoStart,
			Idle:      time.Duration(tunables.IdleMs) * time.Millisecond,
		})

		// Storage trouble is worth surfacing even when no command source
		// is watching the error LED.
		bus.Subscribe(func(e events.StorageErrorEvent) {
			logger.Warn("Storage error", "operation", e.Operation, "error", e.Error)
		})

		watcher := config.NewConfigWatcher(
			opts.Config,
			1500*time.Millisecond,
			func(path string) (reloadable, error) {
				t, loadErr := config.LoadTunables(path)
				if loadErr != nil {
					return reloadable{}, loadErr
				}
				return reloadable{
					logging:  config.LoadLoggingConfig(path),
					tunables: t,
				}, nil
			},
			func(r reloadable) {
				logging.UpdateLevels(r.logging)
				app.ApplyTunables(r.tunables)
			},
			logger,
		)

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config watcher failed, hot-reload disabled", "error", watchErr)
			}
			if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Debug("sd_notify not available", "error", notifyErr)
			}

			logger.Info("Controller starting",
				"pixels", opts.StripPixels,
				"driver", opts.StripDriver,
				"serial", serial != nil,
				"buttons", buttons != nil,
				"rotary", rotary != nil)
			if runErr := app.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("Controller stopped", "error", runErr)
				for _, entry := range logging.GetBuffer().Tail(50) {
					fmt.Fprintln(os.Stderr, logging.FormatLogLine(entry))
				}
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			_ = watcher.Stop()
			cancel()
		})
	})

	cli.Root().Use = "stripd"
	cli.Root().Short = "Addressable LED strip controller"
	cli.Root().AddCommand(cmd.CreatePanelCmd())
	cli.Root().AddCommand(cmd.CreateSendCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// parseHexColor reads an RRGGBB string, with or without a 0x prefix.
func parseHexColor(s string, fallback color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || v > 0xffffff {
		return fallback
	}
	return color.Color(v)
}

// parseOffsets reads the comma-separated button offset list.
func parseOffsets(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// speedTable converts the millisecond table into frame intervals.
func speedTable(ms []int) []time.Duration {
	out := make([]time.Duration, len(ms))
	for i, v := range ms {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}
