package types

import "fmt"

// Verb is the operation kind carried by a command.
type Verb int

const (
	VerbSet Verb = iota
	VerbPlus
	VerbMinus
	VerbClear
	VerbMin
	VerbMax
	VerbRun
	VerbRestore
	VerbSave
)

var verbNames = map[Verb]string{
	VerbSet:     "set",
	VerbPlus:    "plus",
	VerbMinus:   "minus",
	VerbClear:   "clear",
	VerbMin:     "min",
	VerbMax:     "max",
	VerbRun:     "run",
	VerbRestore: "restore",
	VerbSave:    "save",
}

func (v Verb) String() string {
	if name, ok := verbNames[v]; ok {
		return name
	}
	return fmt.Sprintf("verb(%d)", int(v))
}

// What identifies the stateful parameter a command targets.
type What int

const (
	WhatBrightness What = iota
	WhatRed
	WhatGreen
	WhatBlue
	WhatWhite
	WhatPixel
	WhatHue
	WhatSpeed
	WhatRoutine
	WhatBuffer
	WhatDraw
	WhatNoop
)

var whatNames = map[What]string{
	WhatBrightness: "brightness",
	WhatRed:        "red",
	WhatGreen:      "green",
	WhatBlue:       "blue",
	WhatWhite:      "white",
	WhatPixel:      "pixel",
	WhatHue:        "hue",
	WhatSpeed:      "speed",
	WhatRoutine:    "routine",
	WhatBuffer:     "buffer",
	WhatDraw:       "draw",
	WhatNoop:       "noop",
}

func (w What) String() string {
	if name, ok := whatNames[w]; ok {
		return name
	}
	return fmt.Sprintf("what(%d)", int(w))
}

// Action is a (what, verb) pair, the decoded meaning of one wire action
// character.
type Action struct {
	What What
	Verb Verb
}

// Command is one decoded instruction for the controller. Quantity is nil
// when the wire command carried no numeric suffix. Routine names an
// explicit routine for run commands; when nil the current selection
// runs.
type Command struct {
	What     What
	Verb     Verb
	Quantity *int
	Routine  *int
}

// Action returns the command's (what, verb) pair.
func (c Command) Action() Action {
	return Action{What: c.What, Verb: c.Verb}
}

func (c Command) String() string {
	if c.Quantity == nil {
		return fmt.Sprintf("%s %s", c.What, c.Verb)
	}
	return fmt.Sprintf("%s %s %d", c.What, c.Verb, *c.Quantity)
}

// Int is a convenience for building optional quantities.
func Int(v int) *int {
	return &v
}
