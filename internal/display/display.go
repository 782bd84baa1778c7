// Package display renders controller status on a small OLED. The
// controller treats it as optional: a board without one gets the no-op
// implementation and everything else behaves the same.
package display

import "time"

// Display shows two lines of status text and sleeps when idle.
type Display interface {
	// SetHeader replaces the top line.
	SetHeader(text string)
	// SetBody replaces the bottom line.
	SetBody(text string)
	// Tick redraws when the content is dirty and handles idle timing.
	Tick(now time.Time) error
	// Sleep blanks the panel until the next content change.
	Sleep() error
	// Wake turns the panel back on.
	Wake() error
	// Close releases the hardware.
	Close() error
}

// Noop satisfies Display on boards without a panel.
type Noop struct{}

func (Noop) SetHeader(string)     {}
func (Noop) SetBody(string)       {}
func (Noop) Tick(time.Time) error { return nil }
func (Noop) Sleep() error         { return nil }
func (Noop) Wake() error          { return nil }
func (Noop) Close() error         { return nil }
