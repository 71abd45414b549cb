package sensor

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/sweeney/flame-sensor/internal/logic"
)

const (
	// DefaultTimeout bounds a single request/reply exchange.
	DefaultTimeout = 200 * time.Millisecond

	requestCommand = "R\n"
	maxLineLength  = 64
)

// ErrTimeout is returned when the bridge does not complete a reply in time.
var ErrTimeout = errors.New("sensor: reply timed out")

// Port is the subset of serial.Port the reader needs.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// SerialReader polls the ADC bridge: it writes "R\n" and reads back one
// "right,left,middle\n" line per sample.
type SerialReader struct {
	port    Port
	timeout time.Duration
	now     func() time.Time
}

// Open opens the serial device at path and returns a reader on it.
func Open(path string, opts PortOptions, timeout time.Duration) (*SerialReader, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	r, err := NewSerialReader(port, timeout)
	if err != nil {
		port.Close()
		return nil, err
	}
	return r, nil
}

// NewSerialReader wraps an already open port. A non-positive timeout
// selects DefaultTimeout.
func NewSerialReader(port Port, timeout time.Duration) (*SerialReader, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &SerialReader{port: port, timeout: timeout, now: time.Now}, nil
}

// Read requests and parses one sample.
func (r *SerialReader) Read() (logic.Sample, error) {
	// Drop anything left over from an earlier reply that timed out.
	if err := r.port.ResetInputBuffer(); err != nil {
		return logic.Sample{}, fmt.Errorf("reset input: %w", err)
	}
	if _, err := io.WriteString(r.port, requestCommand); err != nil {
		return logic.Sample{}, fmt.Errorf("write request: %w", err)
	}

	line, err := r.readLine()
	if err != nil {
		return logic.Sample{}, err
	}
	return ParseLine(line)
}

// readLine reads up to the next '\n'. A zero-length read means the port's
// read timeout expired.
func (r *SerialReader) readLine() (string, error) {
	deadline := r.now().Add(r.timeout)
	line := make([]byte, 0, maxLineLength)
	chunk := make([]byte, maxLineLength)

	for {
		n, err := r.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("read reply: %w", err)
		}
		for _, b := range chunk[:n] {
			if b == '\n' {
				return string(line), nil
			}
			line = append(line, b)
		}
		if len(line) > maxLineLength {
			return "", fmt.Errorf("%w: reply exceeds %d bytes", ErrMalformed, maxLineLength)
		}
		if n == 0 || r.now().After(deadline) {
			return "", ErrTimeout
		}
	}
}

// Close closes the serial port.
func (r *SerialReader) Close() error {
	return r.port.Close()
}
