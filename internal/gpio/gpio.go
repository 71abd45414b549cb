// Package gpio provides the push-button input and the actuator outputs
// with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Button reads the calibration push-button.
type Button interface {
	// Pressed returns the logical button state.
	// The button is wired active-low with a pull-up: raw 0 = pressed.
	Pressed() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Outputs drives the pump relay, the indicator LEDs and the buzzer.
type Outputs interface {
	// Write sets all outputs from logical states.
	// The pump relay is active-low: logical on = raw 0.
	Write(Levels) error

	// Close switches everything off and releases GPIO resources.
	Close() error
}

// Levels is the logical state of every output line.
type Levels struct {
	Pump   bool
	Status bool
	SirenA bool
	SirenB bool
	Buzzer bool
}

// Pins holds the BCM line offsets.
type Pins struct {
	Button int
	Pump   int
	Status int
	SirenA int
	SirenB int
	Buzzer int
}

// Pin definitions (BCM numbering)
const (
	PinButton = 17
	PinPump   = 27
	PinStatus = 22
	PinSirenA = 23
	PinSirenB = 24
	PinBuzzer = 25
)

// DefaultPins returns the reference wiring.
func DefaultPins() Pins {
	return Pins{
		Button: PinButton,
		Pump:   PinPump,
		Status: PinStatus,
		SirenA: PinSirenA,
		SirenB: PinSirenB,
		Buzzer: PinBuzzer,
	}
}

// pumpRaw converts the logical pump state to the raw active-low level.
func pumpRaw(on bool) int {
	if on {
		return 0
	}
	return 1
}

func raw(on bool) int {
	if on {
		return 1
	}
	return 0
}
