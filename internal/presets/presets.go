// Package presets persists whole-strip color snapshots to named slots on
// removable storage. There is no in-memory cache; every operation
// round-trips through the device so a swapped card is always
// authoritative.
package presets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/smazurov/stripd/internal/color"
	"github.com/smazurov/stripd/internal/storage"
	"github.com/smazurov/stripd/internal/strip"
	"github.com/smazurov/stripd/internal/types"
)

// ErrSlotOutOfRange reports a slot index outside [0, Slots).
var ErrSlotOutOfRange = errors.New("preset slot out of range")

const subdir = "buffers"

// Store reads and writes preset slots.
type Store struct {
	strip    strip.Strip
	dev      storage.Device
	slots    int
	fallback color.Color
	logger   *slog.Logger
}

// Config sizes the store.
type Config struct {
	// Slots is the number of addressable preset slots.
	Slots int
	// Fallback fills the strip when a restore finds nothing.
	Fallback color.Color
}

// NewStore creates a store over the given strip and device.
func NewStore(s strip.Strip, dev storage.Device, cfg Config, logger *slog.Logger) *Store {
	return &Store{strip: s, dev: dev, slots: cfg.Slots, fallback: cfg.Fallback, logger: logger}
}

// Slots returns the slot count.
func (s *Store) Slots() int { return s.slots }

// Action dispatches a restore/save/clear verb against a slot. The bool is
// false on recoverable failure (storage gone, slot missing); hard faults
// (bad verb, slot out of range) return an error.
func (s *Store) Action(verb types.Verb, index *int) (bool, error) {
	if index == nil {
		return false, fmt.Errorf("%w: no slot", ErrSlotOutOfRange)
	}
	switch verb {
	case types.VerbRestore:
		return s.Restore(*index)
	case types.VerbSave:
		return s.Save(*index)
	case types.VerbClear:
		return s.Clear(*index)
	default:
		return false, fmt.Errorf("preset store cannot %s", verb)
	}
}

// Restore loads a slot into the strip. A missing or unreadable slot fills
// the strip with the fallback color, flushes, and reports false. Stored
// records shorter than the strip repeat cyclically.
func (s *Store) Restore(index int) (bool, error) {
	values, err := s.read(index)
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		s.strip.Fill(s.fallback)
		s.strip.Show()
		return false, nil
	}
	changed := false
	for p := 0; p < s.strip.Len(); p++ {
		v := values[p%len(values)]
		if changed || s.strip.At(p) != v {
			changed = true
			s.strip.Set(p, v)
		}
	}
	if changed {
		s.strip.Show()
	}
	return true, nil
}

// Save writes the strip's current buffer to a slot, one hex color per
// line. The record is written to a temp name and renamed into place so a
// failed write never corrupts an existing slot.
func (s *Store) Save(index int) (bool, error) {
	file, err := s.file(index)
	if err != nil {
		return false, err
	}
	if err := s.dev.MkdirAll(subdir); err != nil {
		s.logger.Warn("Preset dir create failed", "error", err)
		return false, nil
	}
	var b strings.Builder
	for p := 0; p < s.strip.Len(); p++ {
		if p > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "0x%06x", uint32(s.strip.At(p)))
	}
	tmp := file + ".tmp"
	if err := s.dev.WriteFile(tmp, []byte(b.String())); err != nil {
		s.logger.Warn("Preset write failed", "slot", index, "error", err)
		return false, nil
	}
	if err := s.dev.Rename(tmp, file); err != nil {
		s.logger.Warn("Preset rename failed", "slot", index, "error", err)
		return false, nil
	}
	return true, nil
}

// Clear deletes a slot. A slot that never existed clears successfully.
func (s *Store) Clear(index int) (bool, error) {
	file, err := s.file(index)
	if err != nil {
		return false, err
	}
	if !s.dev.Available() {
		return false, nil
	}
	if err := s.dev.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Preset remove failed", "slot", index, "error", err)
		return false, nil
	}
	return true, nil
}

// Has probes a slot with a non-destructive read of its first value.
func (s *Store) Has(index int) bool {
	if index < 0 || index >= s.slots {
		return false
	}
	values, err := s.read(index)
	return err == nil && len(values) > 0
}

// Buffer returns a slot's colors expanded to strip length, or nil when
// the slot is empty or unreadable.
func (s *Store) Buffer(index int) []color.Color {
	values, err := s.read(index)
	if err != nil || len(values) == 0 {
		return nil
	}
	buf := make([]color.Color, s.strip.Len())
	for p := range buf {
		buf[p] = values[p%len(values)]
	}
	return buf
}

// Buffers returns the expanded contents of every populated slot in slot
// order.
func (s *Store) Buffers() [][]color.Color {
	var bufs [][]color.Color
	for i := 0; i < s.slots; i++ {
		if buf := s.Buffer(i); buf != nil {
			bufs = append(bufs, buf)
		}
	}
	return bufs
}

// read returns up to strip-length values from a slot. An absent slot
// returns (nil, nil); unexpected I/O or parse faults are logged and also
// resolve to empty, since the caller's recovery (fallback fill) is the
// same.
func (s *Store) read(index int) ([]color.Color, error) {
	file, err := s.file(index)
	if err != nil {
		return nil, err
	}
	if !s.dev.Available() || !s.dev.Exists(file) {
		return nil, nil
	}
	data, err := s.dev.ReadFile(file)
	if err != nil {
		s.logger.Warn("Preset read failed", "slot", index, "error", err)
		return nil, nil
	}
	var values []color.Color
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := parseColor(line)
		if err != nil {
			s.logger.Warn("Preset record corrupt", "slot", index, "line", line, "error", err)
			return nil, nil
		}
		values = append(values, v)
		if len(values) == s.strip.Len() {
			break
		}
	}
	return values, nil
}

// parseColor accepts 0xRRGGBB hex, bare decimal, or R,G,B decimal-comma
// records.
func parseColor(line string) (color.Color, error) {
	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return 0, fmt.Errorf("expected 3 channels, got %d", len(parts))
		}
		var rgb [3]uint8
		for i, part := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return 0, err
			}
			rgb[i] = uint8(v)
		}
		return color.FromRGB(rgb[0], rgb[1], rgb[2]), nil
	}
	v, err := strconv.ParseUint(line, 0, 32)
	if err != nil {
		return 0, err
	}
	if v > 0xffffff {
		return 0, fmt.Errorf("color %#x out of range", v)
	}
	return color.Color(v), nil
}

func (s *Store) file(index int) (string, error) {
	if index < 0 || index >= s.slots {
		return "", fmt.Errorf("%w: %d (slots %d)", ErrSlotOutOfRange, index, s.slots)
	}
	return path.Join(subdir, fmt.Sprintf("s%03d", index)), nil
}
