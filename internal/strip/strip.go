package strip

import "github.com/smazurov/stripd/internal/color"

// Strip abstracts the addressable-LED hardware. Writes are buffered;
// nothing reaches the wire until Show. Implementations are not safe for
// concurrent use; the controller owns the strip from a single loop.
type Strip interface {
	// Len returns the fixed pixel count.
	Len() int

	// At returns the buffered color of pixel i.
	At(i int) color.Color

	// Set buffers a color for pixel i.
	Set(i int, c color.Color)

	// Fill buffers the same color for every pixel.
	Fill(c color.Color)

	// Brightness returns the current brightness fraction in [0, 1].
	Brightness() float64

	// SetBrightness buffers a new brightness fraction in [0, 1].
	SetBrightness(b float64)

	// Show commits the buffered pixels and brightness to the hardware.
	Show() error

	// Close releases the hardware handle, blanking the strip.
	Close() error
}
