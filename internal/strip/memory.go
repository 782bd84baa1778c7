package strip

import "github.com/smazurov/stripd/internal/color"

// Memory is an in-process Strip used by tests and the simulation path. It
// counts Show calls so tests can assert on flush behavior.
type Memory struct {
	pixels     []color.Color
	brightness float64
	shows      int
	closed     bool

	// ShowErr, when set, is returned by every Show call.
	ShowErr error
}

// NewMemory creates a memory strip of n pixels at full brightness.
func NewMemory(n int) *Memory {
	return &Memory{pixels: make([]color.Color, n), brightness: 1}
}

func (m *Memory) Len() int                 { return len(m.pixels) }
func (m *Memory) At(i int) color.Color     { return m.pixels[i] }
func (m *Memory) Set(i int, c color.Color) { m.pixels[i] = c }

func (m *Memory) Fill(c color.Color) {
	for i := range m.pixels {
		m.pixels[i] = c
	}
}

func (m *Memory) Brightness() float64     { return m.brightness }
func (m *Memory) SetBrightness(b float64) { m.brightness = b }

func (m *Memory) Show() error {
	if m.ShowErr != nil {
		return m.ShowErr
	}
	m.shows++
	return nil
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

// Shows returns how many times Show has been called.
func (m *Memory) Shows() int { return m.shows }

// Pixels returns the live pixel buffer.
func (m *Memory) Pixels() []color.Color { return m.pixels }

// Closed reports whether Close was called.
func (m *Memory) Closed() bool { return m.closed }
