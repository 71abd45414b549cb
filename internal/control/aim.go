package control

import (
	"math"

	"github.com/sweeney/flame-sensor/internal/logic"
)

// AimConfig configures the Aimer.
type AimConfig struct {
	MinAngle      int     // servo degrees
	MaxAngle      int     // servo degrees
	Center        int     // starting servo position
	ScanStep      int     // degrees per scan step
	ScanDelayMs   uint32  // minimum time between scan steps
	TrackingSpeed float64 // lerp factor per cycle while tracking
	FlameLimit    float64 // flame angle mapped onto the full servo range
}

// DefaultAimConfig returns the reference servo geometry.
func DefaultAimConfig() AimConfig {
	return AimConfig{
		MinAngle:      30,
		MaxAngle:      150,
		Center:        90,
		ScanStep:      1,
		ScanDelayMs:   30,
		TrackingSpeed: 0.1,
		FlameLimit:    30,
	}
}

// Aimer decides where the nozzle servo should point. With a flame it
// eases towards the flame bearing; without one it sweeps back and forth.
type Aimer struct {
	cfg        AimConfig
	current    int
	target     int
	increasing bool
	lastUpdate logic.Millis
}

// NewAimer creates an Aimer at the centre position.
func NewAimer(cfg AimConfig) *Aimer {
	return &Aimer{
		cfg:        cfg,
		current:    cfg.Center,
		target:     cfg.Center,
		increasing: true,
	}
}

// Update returns the servo angle for this cycle. Scanning only steps once
// ScanDelayMs have passed; tracking moves every cycle.
func (a *Aimer) Update(now logic.Millis, detected bool, flameAngle float64) int {
	if !detected && now.Sub(a.lastUpdate) < a.cfg.ScanDelayMs {
		return a.current
	}
	a.lastUpdate = now

	if detected {
		a.target = a.ServoFor(flameAngle)
		a.current = lerp(a.current, a.target, a.cfg.TrackingSpeed)
		return a.current
	}

	if a.increasing {
		a.current += a.cfg.ScanStep
		if a.current >= a.cfg.MaxAngle {
			a.current = a.cfg.MaxAngle
			a.increasing = false
		}
	} else {
		a.current -= a.cfg.ScanStep
		if a.current <= a.cfg.MinAngle {
			a.current = a.cfg.MinAngle
			a.increasing = true
		}
	}
	return a.current
}

// ServoFor maps a flame bearing onto the servo range. The servo is mounted
// reversed: +FlameLimit (right) is MinAngle. Integer arithmetic matches the
// reference firmware's rounding.
func (a *Aimer) ServoFor(flameAngle float64) int {
	limit := int(a.cfg.FlameLimit)
	x := int(clamp(flameAngle, -a.cfg.FlameLimit, a.cfg.FlameLimit))
	span := 2 * limit
	if span == 0 {
		return a.cfg.Center
	}
	return (x+limit)*(a.cfg.MinAngle-a.cfg.MaxAngle)/span + a.cfg.MaxAngle
}

// Target returns the last tracking target.
func (a *Aimer) Target() int {
	return a.target
}

func lerp(current, target int, factor float64) int {
	factor = clamp(factor, 0, 1)
	return int(math.Round(float64(current) + factor*float64(target-current)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
