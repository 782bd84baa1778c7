package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// mountCheckFile is the sentinel probed before every access. If it cannot
// be opened the card is assumed gone and a remount is attempted.
const mountCheckFile = ".mountcheck"

// SDConfig configures a removable SD device.
type SDConfig struct {
	// DeviceNode is the block device, e.g. /dev/mmcblk0p1.
	DeviceNode string
	// MountPoint is where the filesystem is mounted, e.g. /media/sd.
	MountPoint string
	// Enabled gates all access; when false every operation fails fast
	// without touching hardware.
	Enabled bool
	// MountTimeout bounds each mount/umount invocation.
	MountTimeout time.Duration
}

// SD is a Device on a removable card, mounted through mount(8). The
// mount/umount calls are the controller's only accepted blocking points.
type SD struct {
	cfg     SDConfig
	logger  *slog.Logger
	mounted bool
}

// NewSD creates the device. No hardware is touched until the first access
// or an explicit Mount.
func NewSD(cfg SDConfig, logger *slog.Logger) *SD {
	if cfg.MountTimeout <= 0 {
		cfg.MountTimeout = 10 * time.Second
	}
	return &SD{cfg: cfg, logger: logger}
}

// Mount remounts the card from scratch: unmount, mount, rewrite the
// sentinel.
func (s *SD) Mount() bool {
	if !s.cfg.Enabled {
		return false
	}
	s.Unmount()
	if err := s.run("mount", s.cfg.DeviceNode, s.cfg.MountPoint); err != nil {
		s.logger.Warn("SD mount failed", "device", s.cfg.DeviceNode, "error", err)
		s.Unmount()
		return false
	}
	if err := os.WriteFile(s.abs(mountCheckFile), nil, 0o644); err != nil {
		s.logger.Warn("SD sentinel write failed", "error", err)
		s.Unmount()
		return false
	}
	s.mounted = true
	s.logger.Info("SD mounted", "mount_point", s.cfg.MountPoint)
	return true
}

// Unmount releases the card; errors are ignored since the card may
// already be gone.
func (s *SD) Unmount() {
	if s.mounted {
		if err := s.run("umount", s.cfg.MountPoint); err != nil {
			s.logger.Debug("SD unmount failed", "error", err)
		}
	}
	s.mounted = false
}

// Available probes the sentinel and remounts once on failure.
func (s *SD) Available() bool {
	if !s.cfg.Enabled {
		return false
	}
	if s.mounted {
		if f, err := os.Open(s.abs(mountCheckFile)); err == nil {
			f.Close()
			return true
		}
	}
	return s.Mount()
}

func (s *SD) Exists(path string) bool {
	if !s.Available() {
		return false
	}
	_, err := os.Stat(s.abs(path))
	return err == nil
}

func (s *SD) MkdirAll(path string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return os.MkdirAll(s.abs(path), 0o755)
}

func (s *SD) ReadFile(path string) ([]byte, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	return os.ReadFile(s.abs(path))
}

func (s *SD) WriteFile(path string, data []byte) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return os.WriteFile(s.abs(path), data, 0o644)
}

func (s *SD) Rename(oldpath, newpath string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return os.Rename(s.abs(oldpath), s.abs(newpath))
}

func (s *SD) Remove(path string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return os.Remove(s.abs(path))
}

func (s *SD) abs(path string) string {
	return filepath.Join(s.cfg.MountPoint, path)
}

func (s *SD) run(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MountTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
