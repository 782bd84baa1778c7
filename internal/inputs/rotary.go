package inputs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// quarter maps (old state << 2 | new state) of the two quadrature lines
// to a quarter-step direction. Invalid transitions (bounce, missed
// edges) map to zero.
var quarter = [16]int{
	0b0001: +1, 0b0111: +1, 0b1110: +1, 0b1000: +1,
	0b0010: -1, 0b1011: -1, 0b1101: -1, 0b0100: -1,
}

// Rotary decodes a quadrature encoder into signed detent steps.
type Rotary struct {
	lineA  *gpiocdev.Line
	lineB  *gpiocdev.Line
	edges  chan rotaryEdge
	logger *slog.Logger

	state    uint8 // a<<1 | b
	quarters int
}

type rotaryEdge struct {
	lineB bool
	high  bool
}

// RotaryConfig locates the encoder's data lines.
type RotaryConfig struct {
	Chip string
	A, B int
}

// NewRotary requests both data lines with both-edge events.
func NewRotary(cfg RotaryConfig, logger *slog.Logger) (*Rotary, error) {
	r := &Rotary{
		edges:  make(chan rotaryEdge, 128),
		logger: logger,
		state:  0b11, // detent rest position with pull-ups
	}
	request := func(offset int, isB bool) (*gpiocdev.Line, error) {
		return gpiocdev.RequestLine(cfg.Chip, offset,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				r.enqueue(rotaryEdge{lineB: isB, high: evt.Type == gpiocdev.LineEventRisingEdge})
			}))
	}
	var err error
	if r.lineA, err = request(cfg.A, false); err != nil {
		return nil, fmt.Errorf("failed to request encoder line %d: %w", cfg.A, err)
	}
	if r.lineB, err = request(cfg.B, true); err != nil {
		r.lineA.Close()
		return nil, fmt.Errorf("failed to request encoder line %d: %w", cfg.B, err)
	}
	return r, nil
}

// Poll drains queued edges and returns the net detent steps they
// complete: positive clockwise, negative counter-clockwise.
func (r *Rotary) Poll(now time.Time) int {
	steps := 0
	for {
		select {
		case e := <-r.edges:
			steps += r.feed(e)
		default:
			return steps
		}
	}
}

// feed advances the decoder one edge. A detent is four consistent
// quarter steps.
func (r *Rotary) feed(e rotaryEdge) int {
	next := r.state
	if e.lineB {
		next = (next &^ 0b01)
		if e.high {
			next |= 0b01
		}
	} else {
		next = (next &^ 0b10)
		if e.high {
			next |= 0b10
		}
	}
	if next == r.state {
		return 0
	}
	d := quarter[r.state<<2|next]
	r.state = next
	if d == 0 {
		// Invalid transition: resynchronize at the next detent.
		r.quarters = 0
		return 0
	}
	r.quarters += d
	if r.state == 0b11 {
		defer func() { r.quarters = 0 }()
		if r.quarters >= 4 {
			return 1
		}
		if r.quarters <= -4 {
			return -1
		}
	}
	return 0
}

func (r *Rotary) enqueue(e rotaryEdge) {
	select {
	case r.edges <- e:
	default:
		r.logger.Warn("Encoder event dropped")
	}
}

// Close releases the GPIO lines.
func (r *Rotary) Close() {
	if r.lineA != nil {
		r.lineA.Close()
	}
	if r.lineB != nil {
		r.lineB.Close()
	}
}
