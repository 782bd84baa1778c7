package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/stripd/internal/inputs"
	"github.com/smazurov/stripd/internal/logging"
	"github.com/smazurov/stripd/internal/protocol"
	"github.com/smazurov/stripd/internal/types"
	"github.com/spf13/cobra"
)

// panelMode is the parameter the panel's step buttons currently adjust.
type panelMode int

const (
	panelBrightness panelMode = iota
	panelSpeed
	panelRoutine
	panelModes
)

func (m panelMode) what() types.What {
	switch m {
	case panelSpeed:
		return types.WhatSpeed
	case panelRoutine:
		return types.WhatRoutine
	default:
		return types.WhatBrightness
	}
}

func (m panelMode) String() string {
	return m.what().String()
}

// CreatePanelCmd creates the panel command: the remote-sender deployment.
// It polls GPIO buttons and a rotary encoder and writes wire commands to
// the serial port the controller listens on.
func CreatePanelCmd() *cobra.Command {
	var device string
	var baud int
	var chip string
	var offsets []int
	var rotaryA, rotaryB int
	var longPressMs int
	var debounceMs int
	var repeatThresholdMs int
	var repeatIntervalMs int
	var retransmit int
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Run the remote control panel",
		Long: `Polls panel buttons and a rotary encoder and sends wire commands over ` +
			`the serial link. Each command line is stamped with a rotating id character and ` +
			`retransmitted so the controller can collapse duplicates.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("panel")

			port, err := inputs.OpenSerial(inputs.SerialConfig{Device: device, Baud: baud}, logger)
			if err != nil {
				logger.Error("Failed to open serial port", "device", device, "error", err)
				os.Exit(1)
			}
			defer func() { _ = port.Close() }()

			buttons, err := inputs.NewButtons(inputs.ButtonsConfig{
				Chip:      chip,
				Offsets:   offsets,
				LongPress: time.Duration(longPressMs) * time.Millisecond,
				Debounce:  time.Duration(debounceMs) * time.Millisecond,
			}, logger)
			if err != nil {
				logger.Error("Failed to request button lines", "chip", chip, "error", err)
				os.Exit(1)
			}
			defer buttons.Close()

			rotary, err := inputs.NewRotary(inputs.RotaryConfig{Chip: chip, A: rotaryA, B: rotaryB}, logger)
			if err != nil {
				logger.Error("Failed to request rotary lines", "chip", chip, "error", err)
				os.Exit(1)
			}
			defer rotary.Close()

			sender := &panelSender{
				port:       port,
				retransmit: retransmit,
				logger:     logger,
			}

			threshold := time.Duration(repeatThresholdMs) * time.Millisecond
			interval := time.Duration(repeatIntervalMs) * time.Millisecond
			repeaters := [2]*inputs.Repeater{
				inputs.NewRepeater(threshold, interval),
				inputs.NewRepeater(threshold, interval),
			}

			logger.Info("Panel running", "device", device, "chip", chip)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			ticker := time.NewTicker(5 * time.Millisecond)
			defer ticker.Stop()

			mode := panelBrightness
			for {
				select {
				case <-sig:
					logger.Info("Panel exiting")
					return
				case now := <-ticker.C:
					// Hold auto-repeat on the step buttons. Release
					// only sends the single step when no repeats fired.
					for i, rep := range repeaters {
						if buttons.HeldFor(panelStepButton(i), now) > 0 {
							rep.Press(now)
							if rep.Fire(now) {
								sender.send(stepCommand(mode, i == 1, 1))
							}
						}
					}
					for _, ev := range buttons.Poll(now) {
						switch ev.Button {
						case btnPanelDecrement:
							if !repeaters[0].Release() {
								sender.send(stepCommand(mode, false, 1))
							}
						case btnPanelIncrement:
							if !repeaters[1].Release() {
								sender.send(stepCommand(mode, true, 1))
							}
						case btnPanelMode:
							if ev.Long {
								sender.send(types.Command{What: mode.what(), Verb: types.VerbClear})
							} else {
								mode = (mode + 1) % panelModes
								logger.Info("Mode changed", "mode", mode.String())
							}
						}
					}
					if steps := rotary.Poll(now); steps != 0 {
						q := steps
						if q < 0 {
							q = -q
						}
						sender.send(stepCommand(mode, steps > 0, q))
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&device, "device", "/dev/ttyAMA0", "Serial device to send commands on")
	cmd.Flags().IntVar(&baud, "baud", 115200, "Serial baud rate")
	cmd.Flags().StringVar(&chip, "chip", "gpiochip0", "GPIO chip for panel inputs")
	cmd.Flags().IntSliceVar(&offsets, "buttons", []int{17, 27, 22},
		"Button line offsets: decrement, mode, increment")
	cmd.Flags().IntVar(&rotaryA, "rotary-a", 23, "Rotary encoder line A offset")
	cmd.Flags().IntVar(&rotaryB, "rotary-b", 24, "Rotary encoder line B offset")
	cmd.Flags().IntVar(&longPressMs, "long-press-ms", 600, "Long press threshold in milliseconds")
	cmd.Flags().IntVar(&debounceMs, "debounce-ms", 5, "Button debounce period in milliseconds")
	cmd.Flags().IntVar(&repeatThresholdMs, "repeat-threshold-ms", 1000,
		"Hold time before auto-repeat starts")
	cmd.Flags().IntVar(&repeatIntervalMs, "repeat-interval-ms", 50, "Auto-repeat interval")
	cmd.Flags().IntVar(&retransmit, "retransmit", 2, "Times each command line is written")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// Panel button positions within the offsets flag.
const (
	btnPanelDecrement = 0
	btnPanelMode      = 1
	btnPanelIncrement = 2
)

func panelStepButton(i int) int {
	if i == 0 {
		return btnPanelDecrement
	}
	return btnPanelIncrement
}

// stepCommand builds the plus or minus command for the current mode.
func stepCommand(mode panelMode, up bool, quantity int) types.Command {
	verb := types.VerbMinus
	if up {
		verb = types.VerbPlus
	}
	return types.Command{What: mode.what(), Verb: verb, Quantity: types.Int(quantity)}
}

// panelSender stamps commands with the rotating id and writes them to
// the serial port, retransmitting each line.
type panelSender struct {
	port       *inputs.Serial
	seq        protocol.IDSequence
	retransmit int
	logger     *slog.Logger
}

func (s *panelSender) send(cmd types.Command) {
	line, err := protocol.Encode(s.seq.Next(), cmd)
	if err != nil {
		s.logger.Warn("Cannot encode command", "command", cmd.String(), "error", err)
		return
	}
	n := s.retransmit
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if err := s.port.Write(line); err != nil {
			s.logger.Warn("Serial write failed", "error", err)
			return
		}
	}
	s.logger.Debug("Sent", "command", cmd.String())
}
