// Package protocol implements the serial wire format. A command is one
// line: an id character, an action character, and an optional signed
// decimal quantity. Consecutive lines with the same id character are
// retransmissions of one command and collapse to a single execution.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/smazurov/stripd/internal/types"
)

var (
	// ErrProtocol reports a line that is not well-formed wire input.
	ErrProtocol = errors.New("malformed line")
	// ErrUnknownCommand reports an action character with no meaning.
	ErrUnknownCommand = errors.New("unknown command")
)

// routine kinds by wire digit, matching the animator's ordering.
const (
	routineWheel = iota
	routineRed
	routineGreen
	routineBlue
	routineMarquee
	routineRando
	routinePreset
)

// entry is one row of the action table.
type entry struct {
	action  types.Action
	routine *int
}

func verbRow(base byte, what types.What, m map[byte]entry) {
	verbs := []types.Verb{types.VerbSet, types.VerbPlus, types.VerbMinus, types.VerbClear}
	for i, v := range verbs {
		m[base+byte(i)] = entry{action: types.Action{What: what, Verb: v}}
	}
}

func routineRow(m map[byte]entry) {
	for i := 0; i <= routinePreset; i++ {
		kind := i
		m['0'+byte(i)] = entry{
			action:  types.Action{What: types.WhatRoutine, Verb: types.VerbRun},
			routine: &kind,
		}
	}
}

var actions = func() map[byte]entry {
	m := make(map[byte]entry)
	verbRow('a', types.WhatBrightness, m)
	verbRow('e', types.WhatRed, m)
	verbRow('i', types.WhatGreen, m)
	verbRow('m', types.WhatBlue, m)
	verbRow('q', types.WhatWhite, m)
	verbRow('u', types.WhatPixel, m)
	verbRow('A', types.WhatHue, m)
	verbRow('E', types.WhatSpeed, m)
	verbRow('I', types.WhatRoutine, m)
	m['y'] = entry{action: types.Action{What: types.WhatDraw, Verb: types.VerbRun}}
	m['z'] = entry{action: types.Action{What: types.WhatNoop, Verb: types.VerbRun}}
	m['M'] = entry{action: types.Action{What: types.WhatBuffer, Verb: types.VerbRestore}}
	m['N'] = entry{action: types.Action{What: types.WhatBuffer, Verb: types.VerbSave}}
	m['O'] = entry{action: types.Action{What: types.WhatBuffer, Verb: types.VerbClear}}
	routineRow(m)
	return m
}()

// chars is the reverse table, for encoding.
var chars = func() map[types.Action]byte {
	m := make(map[types.Action]byte)
	for c, e := range actions {
		if e.routine != nil {
			continue
		}
		m[e.action] = c
	}
	return m
}()

// Parser decodes lines and suppresses retransmissions. The zero value is
// ready to use.
type Parser struct {
	lastID byte
	seen   bool
}

// ParseLine decodes one wire line (without the trailing newline). The
// second return is false when the line is a suppressed retransmission.
func (p *Parser) ParseLine(line string) (types.Command, bool, error) {
	line = strings.TrimRight(line, "\x00 \r")
	if !utf8.ValidString(line) {
		return types.Command{}, false, fmt.Errorf("%w: invalid encoding", ErrProtocol)
	}
	if len(line) < 2 {
		return types.Command{}, false, fmt.Errorf("%w: %q too short", ErrProtocol, line)
	}
	id := line[0]
	if p.seen && id == p.lastID {
		return types.Command{}, false, nil
	}

	e, ok := actions[line[1]]
	if !ok {
		return types.Command{}, false, fmt.Errorf("%w: %q", ErrUnknownCommand, line[1])
	}
	cmd := types.Command{What: e.action.What, Verb: e.action.Verb, Routine: e.routine}
	if rest := line[2:]; rest != "" {
		q, err := strconv.Atoi(rest)
		if err != nil {
			return types.Command{}, false, fmt.Errorf("%w: bad quantity %q", ErrProtocol, rest)
		}
		cmd.Quantity = &q
	}

	p.lastID = id
	p.seen = true
	return cmd, true, nil
}

// Encode renders a command as a wire line, newline included.
func Encode(id byte, cmd types.Command) (string, error) {
	var c byte
	if cmd.Routine != nil {
		if *cmd.Routine < 0 || *cmd.Routine > routinePreset {
			return "", fmt.Errorf("%w: routine %d", ErrUnknownCommand, *cmd.Routine)
		}
		c = '0' + byte(*cmd.Routine)
	} else {
		var ok bool
		c, ok = chars[cmd.Action()]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Action().What)
		}
	}
	if cmd.Quantity == nil {
		return fmt.Sprintf("%c%c\n", id, c), nil
	}
	return fmt.Sprintf("%c%c%d\n", id, c, *cmd.Quantity), nil
}

// IDSequence yields the rotating id alphabet senders stamp on outgoing
// commands: digits, then lowercase, then uppercase.
type IDSequence struct {
	pos int
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Next returns the next id character, wrapping at the end of the
// alphabet.
func (s *IDSequence) Next() byte {
	c := idAlphabet[s.pos]
	s.pos = (s.pos + 1) % len(idAlphabet)
	return c
}
