package storage

import (
	"errors"
	"io/fs"
	"testing"
)

func TestDirRoundTrip(t *testing.T) {
	d := NewDir(t.TempDir())

	if !d.Available() {
		t.Fatal("Dir should always be available")
	}
	if err := d.MkdirAll("buffers"); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteFile("buffers/s000.tmp", []byte("0xff0000\n")); err != nil {
		t.Fatal(err)
	}
	if err := d.Rename("buffers/s000.tmp", "buffers/s000"); err != nil {
		t.Fatal(err)
	}
	if !d.Exists("buffers/s000") {
		t.Error("renamed file should exist")
	}
	if d.Exists("buffers/s000.tmp") {
		t.Error("temp file should be gone after rename")
	}

	data, err := d.ReadFile("buffers/s000")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0xff0000\n" {
		t.Errorf("read %q", data)
	}

	if err := d.Remove("buffers/s000"); err != nil {
		t.Fatal(err)
	}
	if d.Exists("buffers/s000") {
		t.Error("removed file should not exist")
	}
}

func TestDirRemoveMissing(t *testing.T) {
	d := NewDir(t.TempDir())
	err := d.Remove("buffers/s005")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Remove on missing path = %v, want fs.ErrNotExist", err)
	}
}
