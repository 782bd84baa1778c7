// Package index resolves verb+quantity commands against bounded index
// spaces (pixel selection, hue position, speed step, routine slot).
package index

import (
	"errors"
	"fmt"

	"github.com/smazurov/stripd/internal/types"
)

// ErrOutOfRange reports a set quantity outside the index space, or a zero
// length space.
var ErrOutOfRange = errors.New("index out of range")

// Resolve maps (verb, quantity) onto a new index within [0, length).
// A nil result means "no selection".
//
// Relative verbs start from current; when current is nil the baseline is 0
// and a positive step is shortened by one, so the first "plus 1" from an
// empty selection lands on index 0. With wrap the result is reduced by
// floored modulo into [0, length); without it the result saturates at the
// bounds.
func Resolve(verb types.Verb, quantity, current *int, length int, wrap bool) (*int, error) {
	switch verb {
	case types.VerbMin, types.VerbMax:
		if length < 1 {
			return nil, fmt.Errorf("%w: length %d", ErrOutOfRange, length)
		}
		if verb == types.VerbMin {
			return types.Int(0), nil
		}
		return types.Int(length - 1), nil
	}
	if verb == types.VerbClear || quantity == nil {
		return nil, nil
	}
	if verb == types.VerbSet {
		q := *quantity
		if q < 0 {
			q += length
		}
		if q < 0 || q >= length {
			return nil, fmt.Errorf("%w: %d (length %d)", ErrOutOfRange, *quantity, length)
		}
		return types.Int(q), nil
	}
	if length < 1 {
		return nil, fmt.Errorf("%w: length %d", ErrOutOfRange, length)
	}
	q := *quantity
	if verb == types.VerbMinus {
		q = -q
	}
	value := 0
	if current != nil {
		value = *current
	} else if q > 0 {
		q--
	}
	value += q
	if wrap {
		v, err := absIndex(value, length)
		if err != nil {
			return nil, err
		}
		return types.Int(v), nil
	}
	if value < 0 {
		value = 0
	}
	if value > length-1 {
		value = length - 1
	}
	return types.Int(value), nil
}

// absIndex reduces i into [0, length) by floored modulo.
func absIndex(i, length int) (int, error) {
	if length < 1 {
		return 0, fmt.Errorf("%w: length %d", ErrOutOfRange, length)
	}
	m := i % length
	if m < 0 {
		m += length
	}
	return m, nil
}
