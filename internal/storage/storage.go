// Package storage abstracts the removable device that preset files live
// on. Every access goes through a mount check with one remount retry, so
// a card that was pulled and reinserted recovers without restarting the
// daemon.
package storage

import "errors"

// ErrUnavailable reports that the device is unmounted, disabled, or
// otherwise unreachable.
var ErrUnavailable = errors.New("storage unavailable")

// Device is the removable-storage collaborator. Paths are relative to the
// device root.
type Device interface {
	// Mount makes the device available, reporting success.
	Mount() bool

	// Unmount releases the device; safe to call when not mounted.
	Unmount()

	// Available verifies the device is reachable right now, attempting
	// recovery first.
	Available() bool

	// Exists reports whether path exists. A false return never means
	// an I/O error; those surface through the read/write calls.
	Exists(path string) bool

	// MkdirAll creates path and its parents, tolerating existing
	// directories.
	MkdirAll(path string) error

	// ReadFile returns the file's contents.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the file's contents.
	WriteFile(path string, data []byte) error

	// Rename atomically replaces newpath with oldpath.
	Rename(oldpath, newpath string) error

	// Remove deletes path. Removing a missing path is an error the
	// caller can detect with errors.Is(err, fs.ErrNotExist).
	Remove(path string) error
}
