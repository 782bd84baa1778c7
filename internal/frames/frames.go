// Package frames produces lazy sequences of interpolated colors and pixel
// buffers. Producers are plain stateful iterators: Next returns the next
// value and false once the sequence is exhausted. Loop-mode producers
// never exhaust.
package frames

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/smazurov/stripd/internal/color"
)

// ErrInvalidArgument reports a malformed transition request, caught at
// construction time.
var ErrInvalidArgument = errors.New("invalid transition")

// Producer yields single colors.
type Producer interface {
	Next() (color.Color, bool)
}

// BufferProducer yields whole-strip frames. The returned slice is only
// valid until the next call.
type BufferProducer interface {
	NextBuffer() ([]color.Color, bool)
}

// Gradient interpolates each channel of start toward end over a fixed
// number of samples. Sample 0 is exactly start and sample steps-1 is
// exactly end; intermediate samples are round(start + i*(end-start)/steps)
// per channel, with math.Round (half away from zero). A one-step gradient
// emits only the start keyframe.
type Gradient struct {
	start, end color.Color
	steps      int
	step       int
}

// NewGradient builds a gradient of exactly steps samples.
func NewGradient(start, end color.Color, steps int) (*Gradient, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps %d", ErrInvalidArgument, steps)
	}
	return &Gradient{start: start, end: end, steps: steps}, nil
}

// Next returns the next sample.
func (g *Gradient) Next() (color.Color, bool) {
	if g.step >= g.steps {
		return 0, false
	}
	i := g.step
	g.step++
	switch i {
	case 0:
		return g.start, true
	case g.steps - 1:
		return g.end, true
	}
	var out color.Color
	for ch := 0; ch < 3; ch++ {
		a := g.start.Channel(ch)
		b := g.end.Channel(ch)
		v := math.Round(float64(a) + float64(i)*float64(b-a)/float64(g.steps))
		out = out.WithChannel(ch, int(v))
	}
	return out, true
}

// Path walks a sequence of color keyframes, interpolating between
// consecutive pairs without duplicating the shared endpoints. In loop mode
// a final transition leads from the last keyframe back to the first and
// the walk repeats forever.
type Path struct {
	keys  []color.Color
	steps int
	loop  bool
	seg   int
	grad  *Gradient
	done  bool
}

// NewPath builds a path over at least two keyframes.
func NewPath(keys []color.Color, steps int, loop bool) (*Path, error) {
	if len(keys) < 2 {
		return nil, fmt.Errorf("%w: %d keyframes", ErrInvalidArgument, len(keys))
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps %d", ErrInvalidArgument, steps)
	}
	p := &Path{keys: append([]color.Color(nil), keys...), steps: steps, loop: loop}
	p.grad, _ = NewGradient(p.keys[0], p.keys[1], steps)
	return p, nil
}

// Next returns the next sample along the path.
func (p *Path) Next() (color.Color, bool) {
	for {
		if p.done {
			return 0, false
		}
		if c, ok := p.grad.Next(); ok {
			return c, true
		}
		if !p.advance() {
			p.done = true
			return 0, false
		}
		// The new segment starts on the color the previous one ended
		// on; drop it to avoid emitting the shared keyframe twice.
		// One-step segments consist only of their start keyframe, so
		// there is nothing to drop.
		if p.steps > 1 {
			p.grad.Next()
		}
	}
}

// advance moves to the next segment, wrapping in loop mode.
func (p *Path) advance() bool {
	last := len(p.keys) - 1
	p.seg++
	var start, end color.Color
	switch {
	case p.seg < last:
		start, end = p.keys[p.seg], p.keys[p.seg+1]
	case p.loop && p.seg == last:
		start, end = p.keys[last], p.keys[0]
	case p.loop:
		p.seg = 0
		start, end = p.keys[0], p.keys[1]
	default:
		return false
	}
	p.grad, _ = NewGradient(start, end, p.steps)
	return true
}

// Fill adapts a single-color producer to whole-buffer frames by repeating
// the color across every pixel.
type Fill struct {
	src Producer
	buf []color.Color
}

// NewFill wraps src, producing frames of n pixels.
func NewFill(src Producer, n int) *Fill {
	return &Fill{src: src, buf: make([]color.Color, n)}
}

// NextBuffer returns the next frame.
func (f *Fill) NextBuffer() ([]color.Color, bool) {
	c, ok := f.src.Next()
	if !ok {
		return nil, false
	}
	for i := range f.buf {
		f.buf[i] = c
	}
	return f.buf, true
}

// BufferPath morphs between whole-buffer keyframes, interpolating every
// pixel index independently.
type BufferPath struct {
	paths []*Path
	buf   []color.Color
}

// NewBufferPath builds a buffer morph over at least two buffers of equal
// length.
func NewBufferPath(bufs [][]color.Color, steps int, loop bool) (*BufferPath, error) {
	if len(bufs) < 2 {
		return nil, fmt.Errorf("%w: %d buffers", ErrInvalidArgument, len(bufs))
	}
	n := len(bufs[0])
	for _, b := range bufs[1:] {
		if len(b) != n {
			return nil, fmt.Errorf("%w: buffer lengths %d and %d", ErrInvalidArgument, n, len(b))
		}
	}
	bp := &BufferPath{paths: make([]*Path, n), buf: make([]color.Color, n)}
	for p := 0; p < n; p++ {
		keys := make([]color.Color, len(bufs))
		for i, b := range bufs {
			keys[i] = b[p]
		}
		path, err := NewPath(keys, steps, loop)
		if err != nil {
			return nil, err
		}
		bp.paths[p] = path
	}
	return bp, nil
}

// NextBuffer returns the next frame; exhausted when any pixel path ends.
func (bp *BufferPath) NextBuffer() ([]color.Color, bool) {
	for p, path := range bp.paths {
		c, ok := path.Next()
		if !ok {
			return nil, false
		}
		bp.buf[p] = c
	}
	return bp.buf, true
}

// Marquee rotates a fixed buffer by one pixel per frame, forever.
type Marquee struct {
	src    []color.Color
	buf    []color.Color
	offset int
}

// NewMarquee snapshots buf as the rotation source.
func NewMarquee(buf []color.Color) *Marquee {
	return &Marquee{
		src: append([]color.Color(nil), buf...),
		buf: make([]color.Color, len(buf)),
	}
}

// NextBuffer returns the next rotation.
func (m *Marquee) NextBuffer() ([]color.Color, bool) {
	n := len(m.src)
	if n == 0 {
		return m.buf, true
	}
	for i := range m.buf {
		m.buf[i] = m.src[(i+m.offset)%n]
	}
	m.offset = (m.offset + 1) % n
	return m.buf, true
}

// Random emits frames where each pixel independently lights up with a
// random color at the configured chance, and is dark otherwise.
type Random struct {
	buf    []color.Color
	chance float64
	rng    *rand.Rand
}

// NewRandom builds a sparkle producer for n pixels. rng may be nil, in
// which case the shared source is used.
func NewRandom(n int, chance float64, rng *rand.Rand) *Random {
	return &Random{buf: make([]color.Color, n), chance: chance, rng: rng}
}

// NextBuffer returns the next frame.
func (r *Random) NextBuffer() ([]color.Color, bool) {
	for i := range r.buf {
		if r.float64() <= r.chance {
			r.buf[i] = color.Color(r.intN(0x1000000))
		} else {
			r.buf[i] = 0
		}
	}
	return r.buf, true
}

func (r *Random) float64() float64 {
	if r.rng != nil {
		return r.rng.Float64()
	}
	return rand.Float64()
}

func (r *Random) intN(n int) int {
	if r.rng != nil {
		return r.rng.Intn(n)
	}
	return rand.Intn(n)
}
