package control

import "github.com/sweeney/flame-sensor/internal/logic"

// PumpConfig configures the Pump.
type PumpConfig struct {
	AngleThreshold  int    // servo must be within this many degrees of target
	PulseDurationMs uint32 // time on
	PulseDelayMs    uint32 // time off between pulses
}

// DefaultPumpConfig returns the reference pulse timing.
func DefaultPumpConfig() PumpConfig {
	return PumpConfig{
		AngleThreshold:  7,
		PulseDurationMs: 1000,
		PulseDelayMs:    1000,
	}
}

// Pump pulses the suppressant relay while the nozzle is aimed at a flame.
type Pump struct {
	cfg        PumpConfig
	enabled    bool
	active     bool
	lastChange logic.Millis
}

// NewPump creates a Pump that starts off.
func NewPump(cfg PumpConfig) *Pump {
	return &Pump{cfg: cfg}
}

// Update returns whether the pump should be running this cycle.
func (p *Pump) Update(now logic.Millis, detected bool, servo, target int) bool {
	p.enabled = detected && abs(servo-target) <= p.cfg.AngleThreshold

	if !p.enabled {
		p.active = false
		return false
	}

	wait := p.cfg.PulseDelayMs
	if p.active {
		wait = p.cfg.PulseDurationMs
	}
	if now.Sub(p.lastChange) >= wait {
		p.active = !p.active
		p.lastChange = now
	}
	return p.active
}

// Enabled reports whether the aim was good enough to pulse on the last cycle.
func (p *Pump) Enabled() bool {
	return p.enabled
}

// Active reports whether the relay is on.
func (p *Pump) Active() bool {
	return p.active
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
