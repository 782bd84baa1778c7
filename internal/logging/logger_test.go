package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		bad  bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "Error", want: slog.LevelError},
		{in: "trace", bad: true},
		{in: "", bad: true},
	}
	for _, tc := range cases {
		got := parseLevel(tc.in)
		if tc.bad {
			if got != nil {
				t.Errorf("parseLevel(%q) = %v, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestGetLoggerCachesPerModule(t *testing.T) {
	a := GetLogger("animator")
	b := GetLogger("animator")
	if a != b {
		t.Error("GetLogger returned distinct loggers for one module")
	}
	if GetLogger("storage") == a {
		t.Error("distinct modules share a logger")
	}
}

func TestInitializeAppliesModuleLevels(t *testing.T) {
	GetLogger("quiet")
	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"quiet": "error"},
	})

	if moduleLevelVars["quiet"].Level() != slog.LevelError {
		t.Errorf("quiet module level = %v, want error", moduleLevelVars["quiet"].Level())
	}
	if globalLevelVar.Level() != slog.LevelInfo {
		t.Errorf("global level = %v, want info", globalLevelVar.Level())
	}
}

func TestUpdateLevels(t *testing.T) {
	GetLogger("controller")
	Initialize(Config{Level: "info", Format: "text"})

	UpdateLevels(Config{
		Level:   "warn",
		Modules: map[string]string{"controller": "debug"},
	})
	if globalLevelVar.Level() != slog.LevelWarn {
		t.Errorf("global level = %v after update, want warn", globalLevelVar.Level())
	}
	if moduleLevelVars["controller"].Level() != slog.LevelDebug {
		t.Errorf("controller level = %v after update, want debug", moduleLevelVars["controller"].Level())
	}
}

func TestBufferCapturesBelowConfiguredLevel(t *testing.T) {
	Initialize(Config{Level: "error", Format: "text"})
	logger := GetLogger("buffered")
	moduleLevelVars["buffered"].Set(slog.LevelError)

	// The stdout/journal handlers drop this record; the buffer keeps it.
	logger.Debug("suppressed detail", "code", 7)

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("buffer captured nothing")
	}
	last := entries[len(entries)-1]
	if last.Message != "suppressed detail" || last.Module != "buffered" {
		t.Errorf("last entry = %+v", last)
	}
	if last.Attributes["code"] != int64(7) {
		t.Errorf("code attribute = %v (%T)", last.Attributes["code"], last.Attributes["code"])
	}
}

func TestBufferHandlerFlattensGroups(t *testing.T) {
	Initialize(Config{Level: "info", Format: "text"})
	h := NewBufferHandler(slog.LevelDebug).WithGroup("serial")

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "line received", 0)
	r.AddAttrs(slog.String("port", "/dev/ttyUSB0"))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatal(err)
	}

	entries := GetBuffer().ReadAll()
	last := entries[len(entries)-1]
	if last.Attributes["serial.port"] != "/dev/ttyUSB0" {
		t.Errorf("attributes = %v, want serial.port set", last.Attributes)
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}
	if rb.Count() != 3 {
		t.Fatalf("Count = %d, want 3", rb.Count())
	}
	got := rb.ReadAll()
	want := []string{"c", "d", "e"}
	for i, w := range want {
		if got[i].Message != w {
			t.Errorf("entry %d = %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestRingBufferTail(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}
	got := rb.Tail(2)
	if len(got) != 2 || got[0].Message != "e" || got[1].Message != "f" {
		t.Errorf("Tail(2) = %v", got)
	}
	if tail := rb.Tail(10); len(tail) != 4 {
		t.Errorf("Tail(10) returned %d entries, want 4", len(tail))
	}

	partial := NewRingBuffer(8)
	partial.Write(LogEntry{Message: "x"})
	partial.Write(LogEntry{Message: "y"})
	got = partial.Tail(1)
	if len(got) != 1 || got[0].Message != "y" {
		t.Errorf("Tail(1) on partial buffer = %v", got)
	}
}

func TestFormatLogLine(t *testing.T) {
	entry := LogEntry{
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Level:      "warn",
		Module:     "storage",
		Message:    "Preset write failed",
		Attributes: map[string]any{"slot": 3, "error": "device gone"},
	}
	got := FormatLogLine(entry)
	want := "2025-06-01T12:00:00Z [WARN] [storage] Preset write failed error=device gone slot=3"
	if got != want {
		t.Errorf("FormatLogLine =\n%q, want\n%q", got, want)
	}
}
