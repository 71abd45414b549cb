//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealButton reads the button from actual hardware using Linux GPIO
// character device.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealButton requests the button line as an input with pull-up.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}

	return &RealButton{chip: chip, line: line}, nil
}

// Pressed returns true while the button pulls the line low.
func (b *RealButton) Pressed() (bool, error) {
	v, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return v == 0, nil
}

// Close releases GPIO resources.
func (b *RealButton) Close() error {
	var errs []error
	if b.line != nil {
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutputs drives the actuator lines on actual hardware.
type RealOutputs struct {
	chip   *gpiocdev.Chip
	pump   *gpiocdev.Line
	status *gpiocdev.Line
	sirenA *gpiocdev.Line
	sirenB *gpiocdev.Line
	buzzer *gpiocdev.Line
}

// NewRealOutputs requests every output line in its off state.
func NewRealOutputs(chipName string, pins Pins) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	o := &RealOutputs{chip: chip}
	reqs := []struct {
		name string
		pin  int
		off  int
		dst  **gpiocdev.Line
	}{
		{"pump", pins.Pump, pumpRaw(false), &o.pump},
		{"status", pins.Status, raw(false), &o.status},
		{"siren A", pins.SirenA, raw(false), &o.sirenA},
		{"siren B", pins.SirenB, raw(false), &o.sirenB},
		{"buzzer", pins.Buzzer, raw(false), &o.buzzer},
	}
	for _, r := range reqs {
		line, err := chip.RequestLine(r.pin, gpiocdev.AsOutput(r.off))
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", r.name, r.pin, err)
		}
		*r.dst = line
	}

	return o, nil
}

// Write sets every output line.
func (o *RealOutputs) Write(l Levels) error {
	if err := o.pump.SetValue(pumpRaw(l.Pump)); err != nil {
		return fmt.Errorf("write pump pin: %w", err)
	}
	if err := o.status.SetValue(raw(l.Status)); err != nil {
		return fmt.Errorf("write status pin: %w", err)
	}
	if err := o.sirenA.SetValue(raw(l.SirenA)); err != nil {
		return fmt.Errorf("write siren A pin: %w", err)
	}
	if err := o.sirenB.SetValue(raw(l.SirenB)); err != nil {
		return fmt.Errorf("write siren B pin: %w", err)
	}
	if err := o.buzzer.SetValue(raw(l.Buzzer)); err != nil {
		return fmt.Errorf("write buzzer pin: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Lines are handed back as inputs biased to their off level so the relay
// stays open while nothing drives it.
func (o *RealOutputs) Close() error {
	var errs []error

	release := func(name string, line *gpiocdev.Line, bias gpiocdev.LineConfigOption) {
		if line == nil {
			return
		}
		if err := line.Reconfigure(gpiocdev.AsInput, bias); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	release("pump", o.pump, gpiocdev.WithPullUp)
	release("status", o.status, gpiocdev.WithPullDown)
	release("siren A", o.sirenA, gpiocdev.WithPullDown)
	release("siren B", o.sirenB, gpiocdev.WithPullDown)
	release("buzzer", o.buzzer, gpiocdev.WithPullDown)

	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
