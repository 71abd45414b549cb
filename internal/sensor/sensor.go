// Package sensor acquires raw flame sensor samples.
// The real implementation polls an ADC bridge over a serial port.
// The fake implementation allows testing without hardware.
package sensor

import "github.com/sweeney/flame-sensor/internal/logic"

// Reader reads one sample from the three-sensor array.
type Reader interface {
	// Read returns raw readings in right, left, middle order.
	// Values are passed through as reported, without range checks.
	Read() (logic.Sample, error)

	// Close releases the underlying device.
	Close() error
}
