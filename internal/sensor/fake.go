package sensor

import (
	"errors"

	"github.com/sweeney/flame-sensor/internal/logic"
)

// FakeReader is a test double that returns scripted samples.
type FakeReader struct {
	// Samples contains scripted readings. Each call to Read consumes the
	// next one; the last is repeated once they run out.
	Samples []logic.Sample

	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Reads counts calls to Read.
	Reads int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...logic.Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (logic.Sample, error) {
	f.Reads++
	if f.ReadError != nil {
		return logic.Sample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return logic.Sample{}, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Set replaces the script with a single repeating sample.
func (f *FakeReader) Set(s logic.Sample) {
	f.Samples = []logic.Sample{s}
	f.index = 0
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
