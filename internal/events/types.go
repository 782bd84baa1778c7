package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeCommandReceived uint32 = iota + 1
	TypeCommandFailed
	TypeAnimationChanged
	TypeBrightnessChanged
	TypePresetStored
	TypeStorageError
	TypeInput
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CommandReceivedEvent fires after a command executes successfully.
type CommandReceivedEvent struct {
	Command   string
	Source    string
	Timestamp time.Time
}

// Type returns the event type identifier for CommandReceivedEvent.
func (e CommandReceivedEvent) Type() uint32 { return TypeCommandReceived }

// CommandFailedEvent fires when a command is rejected at any stage.
type CommandFailedEvent struct {
	Command   string
	Source    string
	Error     string
	Timestamp time.Time
}

// Type returns the event type identifier for CommandFailedEvent.
func (e CommandFailedEvent) Type() uint32 { return TypeCommandFailed }

// AnimationChangedEvent fires when a routine starts, stops or switches.
type AnimationChangedEvent struct {
	Routine   string
	Running   bool
	Speed     int
	Timestamp time.Time
}

// Type returns the event type identifier for AnimationChangedEvent.
func (e AnimationChangedEvent) Type() uint32 { return TypeAnimationChanged }

// BrightnessChangedEvent fires when the strip brightness moves.
type BrightnessChangedEvent struct {
	Level     float64
	Timestamp time.Time
}

// Type returns the event type identifier for BrightnessChangedEvent.
func (e BrightnessChangedEvent) Type() uint32 { return TypeBrightnessChanged }

// PresetStoredEvent fires after a preset slot is written or cleared.
type PresetStoredEvent struct {
	Slot      int
	Cleared   bool
	Timestamp time.Time
}

// Type returns the event type identifier for PresetStoredEvent.
func (e PresetStoredEvent) Type() uint32 { return TypePresetStored }

// StorageErrorEvent fires when the preset device becomes unreachable.
type StorageErrorEvent struct {
	Operation string
	Error     string
	Timestamp time.Time
}

// Type returns the event type identifier for StorageErrorEvent.
func (e StorageErrorEvent) Type() uint32 { return TypeStorageError }

// InputEvent fires on raw panel activity: a button release or a rotary
// detent, before command resolution.
type InputEvent struct {
	Source    string
	Detail    string
	Timestamp time.Time
}

// Type returns the event type identifier for InputEvent.
func (e InputEvent) Type() uint32 { return TypeInput }
