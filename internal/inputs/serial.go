package inputs

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tarm/serial"
)

// maxLine bounds line accumulation so a noisy link cannot grow the
// buffer without end.
const maxLine = 256

// Serial reads newline-terminated command lines from a serial port
// without blocking the loop: reads time out quickly and partial lines
// accumulate across polls.
type Serial struct {
	port    io.ReadWriteCloser
	pending []byte
	logger  *slog.Logger
}

// SerialConfig names the port.
type SerialConfig struct {
	Device string
	Baud   int
}

// OpenSerial opens the port with a short read timeout.
func OpenSerial(cfg SerialConfig, logger *slog.Logger) (*Serial, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: 5 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return &Serial{port: port, logger: logger}, nil
}

// Poll reads whatever is available and returns the complete lines it
// finishes, without their terminators.
func (s *Serial) Poll() ([]string, error) {
	var chunk [64]byte
	n, err := s.port.Read(chunk[:])
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("serial read failed: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	var lines []string
	for _, c := range chunk[:n] {
		if c == '\n' {
			if len(s.pending) > 0 {
				lines = append(lines, string(s.pending))
				s.pending = s.pending[:0]
			}
			continue
		}
		if len(s.pending) >= maxLine {
			s.logger.Warn("Serial line overlong, dropping", "length", len(s.pending))
			s.pending = s.pending[:0]
		}
		s.pending = append(s.pending, c)
	}
	return lines, nil
}

// Write sends raw bytes out the port.
func (s *Serial) Write(data string) error {
	if _, err := io.WriteString(s.port, data); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// Close releases the port.
func (s *Serial) Close() error {
	return s.port.Close()
}
