//go:build !linux || !cgo

package strip

import "errors"

// NewWS281x is unavailable without the Linux PWM/DMA engine; callers fall
// back to the memory strip via the factory.
func NewWS281x(gpioPin, count int, brightness float64) (Strip, error) {
	return nil, errors.New("ws281x strip requires linux with cgo")
}
