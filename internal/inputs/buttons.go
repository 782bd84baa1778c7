// Package inputs gathers the physical controls: panel buttons, the
// rotary encoder and the serial command feed. All of them expose poll
// methods driven from the controller loop; GPIO edge callbacks only
// enqueue raw events.
package inputs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// ButtonEvent is one completed button release.
type ButtonEvent struct {
	// Button is the index into the configured offsets.
	Button int
	// Long reports a hold at or past the long-press threshold.
	Long bool
}

// edge is a raw level change queued by the GPIO event handler.
type edge struct {
	line    int
	pressed bool
	at      time.Time
}

// Buttons tracks a bank of active-low push buttons.
type Buttons struct {
	lines     []*gpiocdev.Line
	edges     chan edge
	downAt    []time.Time
	longPress time.Duration
	logger    *slog.Logger
}

// ButtonsConfig locates the buttons on a GPIO chip.
type ButtonsConfig struct {
	Chip    string
	Offsets []int
	// LongPress separates short and long releases.
	LongPress time.Duration
	// Debounce is applied in the kernel per line.
	Debounce time.Duration
}

// NewButtons requests the configured lines with pull-ups and both-edge
// events.
func NewButtons(cfg ButtonsConfig, logger *slog.Logger) (*Buttons, error) {
	b := NewTestButtons(len(cfg.Offsets), cfg.LongPress)
	b.logger = logger
	for i, offset := range cfg.Offsets {
		i := i
		line, err := gpiocdev.RequestLine(cfg.Chip, offset,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithDebounce(cfg.Debounce),
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				// Active low: a falling edge is a press.
				b.Inject(i, evt.Type == gpiocdev.LineEventFallingEdge, time.Now())
			}))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to request button line %d: %w", offset, err)
		}
		b.lines = append(b.lines, line)
	}
	return b, nil
}

// NewTestButtons builds a bank with no GPIO lines behind it; edges
// arrive through Inject. Production callers use NewButtons.
func NewTestButtons(n int, longPress time.Duration) *Buttons {
	return &Buttons{
		edges:     make(chan edge, 64),
		downAt:    make([]time.Time, n),
		longPress: longPress,
		logger:    slog.Default(),
	}
}

// Inject queues one raw level change. The GPIO event handlers call this;
// tests may too.
func (b *Buttons) Inject(button int, pressed bool, at time.Time) {
	select {
	case b.edges <- edge{line: button, pressed: pressed, at: at}:
	default:
		b.logger.Warn("Button event dropped", "line", button)
	}
}

// Poll drains queued edges and returns the releases they complete.
func (b *Buttons) Poll(now time.Time) []ButtonEvent {
	var out []ButtonEvent
	for {
		select {
		case e := <-b.edges:
			if e.pressed {
				b.downAt[e.line] = e.at
				continue
			}
			down := b.downAt[e.line]
			if down.IsZero() {
				continue
			}
			b.downAt[e.line] = time.Time{}
			out = append(out, ButtonEvent{Button: e.line, Long: e.at.Sub(down) >= b.longPress})
		default:
			return out
		}
	}
}

// HeldFor returns how long a button has been held, zero when it is up.
func (b *Buttons) HeldFor(button int, now time.Time) time.Duration {
	if button < 0 || button >= len(b.downAt) || b.downAt[button].IsZero() {
		return 0
	}
	return now.Sub(b.downAt[button])
}

// Close releases the GPIO lines.
func (b *Buttons) Close() {
	for _, line := range b.lines {
		if line != nil {
			line.Close()
		}
	}
	b.lines = nil
}
