package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/smazurov/stripd/internal/inputs"
	"github.com/smazurov/stripd/internal/logging"
	"github.com/smazurov/stripd/internal/protocol"
	"github.com/smazurov/stripd/internal/types"
	"github.com/spf13/cobra"
)

var sendWhats = map[string]types.What{
	"brightness": types.WhatBrightness,
	"red":        types.WhatRed,
	"green":      types.WhatGreen,
	"blue":       types.WhatBlue,
	"white":      types.WhatWhite,
	"pixel":      types.WhatPixel,
	"hue":        types.WhatHue,
	"speed":      types.WhatSpeed,
	"routine":    types.WhatRoutine,
	"buffer":     types.WhatBuffer,
	"draw":       types.WhatDraw,
	"noop":       types.WhatNoop,
}

var sendVerbs = map[string]types.Verb{
	"set":     types.VerbSet,
	"plus":    types.VerbPlus,
	"minus":   types.VerbMinus,
	"clear":   types.VerbClear,
	"run":     types.VerbRun,
	"restore": types.VerbRestore,
	"save":    types.VerbSave,
}

// parseSendCommand turns command words into a wire command. Forms:
//
//	<what>                          draw, noop
//	<what> <verb> [quantity]        brightness plus 2, buffer restore 1
//	routine run <kind> [speed]      routine run 4 2
func parseSendCommand(words []string) (types.Command, error) {
	if len(words) == 0 {
		return types.Command{}, fmt.Errorf("%w: empty command", protocol.ErrProtocol)
	}
	what, ok := sendWhats[words[0]]
	if !ok {
		return types.Command{}, fmt.Errorf("%w: %q", protocol.ErrUnknownCommand, words[0])
	}
	cmd := types.Command{What: what, Verb: types.VerbRun}
	rest := words[1:]
	if len(rest) > 0 {
		verb, ok := sendVerbs[rest[0]]
		if !ok {
			return types.Command{}, fmt.Errorf("%w: verb %q", protocol.ErrUnknownCommand, rest[0])
		}
		cmd.Verb = verb
		rest = rest[1:]
	}
	if what == types.WhatRoutine && cmd.Verb == types.VerbRun && len(rest) > 0 {
		kind, err := strconv.Atoi(rest[0])
		if err != nil {
			return types.Command{}, fmt.Errorf("%w: routine %q", protocol.ErrProtocol, rest[0])
		}
		cmd.Routine = types.Int(kind)
		rest = rest[1:]
	}
	if len(rest) > 1 {
		return types.Command{}, fmt.Errorf("%w: trailing words %q", protocol.ErrProtocol, rest[1:])
	}
	if len(rest) == 1 {
		q, err := strconv.Atoi(rest[0])
		if err != nil {
			return types.Command{}, fmt.Errorf("%w: quantity %q", protocol.ErrProtocol, rest[0])
		}
		cmd.Quantity = types.Int(q)
	}
	return cmd, nil
}

// CreateSendCmd creates the send command: a one-shot or scripted sender
// for driving the controller from a host machine.
func CreateSendCmd() *cobra.Command {
	var device string
	var baud int
	var file string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "send [command words]",
		Short: "Send a command over serial",
		Long: `Maps command words onto the wire protocol and writes the framed line to ` +
			`the serial port. With --file, sends each non-blank line of the script instead. ` +
			`Examples: "send brightness plus 2", "send routine run 4", "send buffer save 1".`,
		Args: cobra.ArbitraryArgs,
		Run: func(_ *cobra.Command, args []string) {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})
			logger := logging.GetLogger("send")

			var scripts [][]string
			switch {
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					logger.Error("Cannot open script", "file", file, "error", err)
					os.Exit(1)
				}
				defer func() { _ = f.Close() }()
				scanner := bufio.NewScanner(f)
				for scanner.Scan() {
					line := strings.TrimSpace(scanner.Text())
					if line == "" || strings.HasPrefix(line, "#") {
						continue
					}
					scripts = append(scripts, strings.Fields(line))
				}
				if err := scanner.Err(); err != nil {
					logger.Error("Cannot read script", "file", file, "error", err)
					os.Exit(1)
				}
			case len(args) > 0:
				scripts = [][]string{args}
			default:
				logger.Error("Nothing to send: give command words or --file")
				os.Exit(1)
			}

			var lines []string
			var seq protocol.IDSequence
			for _, words := range scripts {
				parsed, err := parseSendCommand(words)
				if err != nil {
					logger.Error("Bad command", "words", strings.Join(words, " "), "error", err)
					os.Exit(1)
				}
				line, err := protocol.Encode(seq.Next(), parsed)
				if err != nil {
					logger.Error("Cannot encode command", "command", parsed.String(), "error", err)
					os.Exit(1)
				}
				lines = append(lines, line)
			}

			if dryRun {
				for _, line := range lines {
					fmt.Print(line)
				}
				return
			}

			port, err := inputs.OpenSerial(inputs.SerialConfig{Device: device, Baud: baud}, logger)
			if err != nil {
				logger.Error("Failed to open serial port", "device", device, "error", err)
				os.Exit(1)
			}
			defer func() { _ = port.Close() }()
			for _, line := range lines {
				if err := port.Write(line); err != nil {
					logger.Error("Serial write failed", "error", err)
					os.Exit(1)
				}
			}
			logger.Info("Sent", "commands", len(lines))
		},
	}

	cmd.Flags().StringVar(&device, "device", "/dev/ttyAMA0", "Serial device to send commands on")
	cmd.Flags().IntVar(&baud, "baud", 115200, "Serial baud rate")
	cmd.Flags().StringVar(&file, "file", "", "Script file with one command per line")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print wire lines instead of sending")

	return cmd
}
