package gpio

import "errors"

// FakeButton is a test double that returns scripted button states.
type FakeButton struct {
	// Presses contains scripted states. Each call to Pressed() consumes
	// the next one; the last is repeated once they run out.
	Presses []bool

	// index tracks current position in Presses
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Pressed()
	ReadError error
}

// NewFakeButton creates a FakeButton with the given states.
func NewFakeButton(presses ...bool) *FakeButton {
	return &FakeButton{Presses: presses}
}

// Pressed returns the next scripted state. With no script the button is
// released.
func (f *FakeButton) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Presses) == 0 {
		return false, nil
	}

	p := f.Presses[f.index]
	if f.index < len(f.Presses)-1 {
		f.index++
	}
	return p, nil
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the button to the beginning of its script.
func (f *FakeButton) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutputs records every write.
type FakeOutputs struct {
	Writes []Levels

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by Write()
	WriteError error
}

// NewFakeOutputs creates an empty FakeOutputs.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// Write records the levels.
func (f *FakeOutputs) Write(l Levels) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, l)
	return nil
}

// Last returns the most recent levels written.
func (f *FakeOutputs) Last() (Levels, error) {
	if len(f.Writes) == 0 {
		return Levels{}, errors.New("no writes")
	}
	return f.Writes[len(f.Writes)-1], nil
}

// Close records an all-off write and marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Writes = append(f.Writes, Levels{})
	f.Closed = true
	return nil
}
