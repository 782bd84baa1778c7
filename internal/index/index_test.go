package index

import (
	"errors"
	"testing"

	"github.com/smazurov/stripd/internal/types"
)

func want(t *testing.T, got *int, err error, expect int) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatalf("got nil, want %d", expect)
	}
	if *got != expect {
		t.Fatalf("got %d, want %d", *got, expect)
	}
}

func TestSetWithinRange(t *testing.T) {
	const length = 7
	for q := -length; q < length; q++ {
		got, err := Resolve(types.VerbSet, types.Int(q), nil, length, true)
		expect := ((q % length) + length) % length
		want(t, got, err, expect)
	}
}

func TestSetOutOfRange(t *testing.T) {
	for _, q := range []int{7, 8, -8, 100, -100} {
		_, err := Resolve(types.VerbSet, types.Int(q), nil, 7, true)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("set %d: err = %v, want ErrOutOfRange", q, err)
		}
	}
}

func TestSetNegativeIndexing(t *testing.T) {
	got, err := Resolve(types.VerbSet, types.Int(-1), nil, 7, true)
	want(t, got, err, 6)
}

func TestClearAndNilQuantity(t *testing.T) {
	got, err := Resolve(types.VerbClear, types.Int(3), types.Int(2), 7, true)
	if err != nil || got != nil {
		t.Errorf("clear: got %v, %v; want nil, nil", got, err)
	}
	got, err = Resolve(types.VerbPlus, nil, types.Int(2), 7, true)
	if err != nil || got != nil {
		t.Errorf("plus nil quantity: got %v, %v; want nil, nil", got, err)
	}
}

func TestMinMax(t *testing.T) {
	got, err := Resolve(types.VerbMin, nil, nil, 7, true)
	want(t, got, err, 0)
	got, err = Resolve(types.VerbMax, nil, nil, 7, false)
	want(t, got, err, 6)
}

func TestFirstPlusFromNoneLandsOnZero(t *testing.T) {
	for _, length := range []int{1, 2, 7, 256} {
		got, err := Resolve(types.VerbPlus, types.Int(1), nil, length, true)
		want(t, got, err, 0)
	}
}

func TestPlusWraps(t *testing.T) {
	const length = 7
	for c := 0; c < length; c++ {
		for k := 0; k < 3*length; k++ {
			got, err := Resolve(types.VerbPlus, types.Int(k), types.Int(c), length, true)
			want(t, got, err, (c+k)%length)
		}
	}
}

func TestMinusWrapsNegative(t *testing.T) {
	got, err := Resolve(types.VerbMinus, types.Int(3), types.Int(1), 7, true)
	want(t, got, err, 5)
	got, err = Resolve(types.VerbMinus, types.Int(15), types.Int(0), 7, true)
	want(t, got, err, 6)
}

func TestClampSaturates(t *testing.T) {
	got, err := Resolve(types.VerbPlus, types.Int(100), types.Int(3), 7, false)
	want(t, got, err, 6)
	got, err = Resolve(types.VerbMinus, types.Int(100), types.Int(3), 7, false)
	want(t, got, err, 0)
}

func TestMinusFromNone(t *testing.T) {
	// Negative steps from an empty selection keep the full magnitude.
	got, err := Resolve(types.VerbMinus, types.Int(1), nil, 7, true)
	want(t, got, err, 6)
}

func TestZeroLength(t *testing.T) {
	for _, verb := range []types.Verb{types.VerbPlus, types.VerbMinus, types.VerbSet, types.VerbMin, types.VerbMax} {
		_, err := Resolve(verb, types.Int(1), nil, 0, true)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s on empty space: err = %v, want ErrOutOfRange", verb, err)
		}
	}
}
