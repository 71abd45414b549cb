// Package control holds the output collaborators that act on the engine's
// outputs every control cycle: aiming, suppressant pulsing and siren lights.
// Each owns its own timer state; nothing here touches hardware.
package control

import "github.com/sweeney/flame-sensor/internal/logic"

// State is the combined output of all collaborators for one cycle.
type State struct {
	ServoAngle  int
	TargetAngle int
	PumpEnabled bool
	PumpActive  bool
	StatusLED   bool
	SirenA      bool
	SirenB      bool
	Buzzer      bool
}

// Controller wires the collaborators together in the order the control
// cycle needs them: aim first, then the pump (which depends on the aim),
// then the lights and the buzzer.
type Controller struct {
	aimer  *Aimer
	pump   *Pump
	siren  *Siren
	buzzer *Buzzer
}

// NewController creates a controller with the given collaborator configs.
// The siren lights and the buzzer warble share sirenIntervalMs.
func NewController(aim AimConfig, pump PumpConfig, sirenIntervalMs uint32) *Controller {
	return &Controller{
		aimer:  NewAimer(aim),
		pump:   NewPump(pump),
		siren:  NewSiren(sirenIntervalMs),
		buzzer: NewBuzzer(sirenIntervalMs),
	}
}

// Notify plays the buzzer cue for the last event in events that has one.
func (c *Controller) Notify(now logic.Millis, events []logic.Event) {
	for _, e := range events {
		if cue := CueFor(e.Type); cue != CueNone {
			c.buzzer.Play(now, cue)
		}
	}
}

// Cue plays a buzzer cue directly.
func (c *Controller) Cue(now logic.Millis, cue Cue) {
	c.buzzer.Play(now, cue)
}

// Update advances every collaborator by one cycle.
func (c *Controller) Update(now logic.Millis, out logic.Outputs) State {
	servo := c.aimer.Update(now, out.FlameDetected, out.Angle)
	target := c.aimer.Target()
	active := c.pump.Update(now, out.FlameDetected, servo, target)
	a, b := c.siren.Update(now, out.FlameDetected)
	buzz := c.buzzer.Update(now, out.FlameDetected)

	return State{
		ServoAngle:  servo,
		TargetAngle: target,
		PumpEnabled: c.pump.Enabled(),
		PumpActive:  active,
		StatusLED:   out.FlameDetected || out.Calibrating,
		SirenA:      a,
		SirenB:      b,
		Buzzer:      buzz,
	}
}
