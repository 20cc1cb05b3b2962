package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultPollInterval is the read timeout slice used while waiting for a
// byte. Cancellation is noticed within one slice.
const DefaultPollInterval = 50 * time.Millisecond

// Serial is a Transport backed by a local serial port.
type Serial struct {
	port serial.Port
	name string
	mode serial.Mode

	poll        time.Duration
	readTimeout time.Duration
	buf         [1]byte
}

// OpenSerial opens a serial device at the given baud rate, 8N1.
func OpenSerial(name string, baud int) (*Serial, error) {
	mode := serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, &mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	return &Serial{
		port: port,
		name: name,
		mode: mode,
		poll: DefaultPollInterval,
	}, nil
}

// Name returns the device path.
func (s *Serial) Name() string {
	return s.name
}

// Baud returns the configured baud rate.
func (s *Serial) Baud() int {
	return s.mode.BaudRate
}

// SetBaud reconfigures the line speed.
func (s *Serial) SetBaud(baud int) error {
	mode := s.mode
	mode.BaudRate = baud
	if err := s.port.SetMode(&mode); err != nil {
		return fmt.Errorf("set baud %d on %s: %w", baud, s.name, err)
	}
	s.mode = mode
	return nil
}

// ReadByte implements Transport.
func (s *Serial) ReadByte(ctx context.Context, timeout time.Duration) (byte, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		slice := s.poll
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return 0, ErrTimeout
			}
			if remaining < slice {
				slice = remaining
			}
		}

		if slice != s.readTimeout {
			if err := s.port.SetReadTimeout(slice); err != nil {
				return 0, fmt.Errorf("set read timeout: %w", err)
			}
			s.readTimeout = slice
		}

		// A read timeout is reported as zero bytes and no error.
		n, err := s.port.Read(s.buf[:])
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return s.buf[0], nil
		}
	}
}

// Write implements Transport.
func (s *Serial) Write(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.port.Write(p)
}

// ResetInput discards anything buffered by the driver but not yet read.
func (s *Serial) ResetInput() error {
	return s.port.ResetInputBuffer()
}

// Close releases the port.
func (s *Serial) Close() error {
	return s.port.Close()
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
