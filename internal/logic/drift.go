package logic

import "math"

// DriftState summarises the driftDetected/driftAlertSent pair.
type DriftState string

const (
	DriftStable   DriftState = "STABLE"   // no drift, no alert outstanding
	DriftDrifting DriftState = "DRIFTING" // threshold exceeded, alert not yet sent
	DriftAlerted  DriftState = "ALERTED"  // alert sent, awaiting acknowledgement or recalibration
)

// CheckDrift recomputes driftDetected once enough ambient samples have
// been collected. It is not hysteretic: the flag follows the current
// deviation on every call.
func (e *Engine) CheckDrift() {
	if e.validSamples < e.cfg.MinDriftSamples {
		return
	}
	drift := false
	for _, ch := range Channels {
		if e.Deviation(ch) > e.cfg.DriftThreshold {
			drift = true
		}
	}
	e.driftDetected = drift
}

// ClaimDriftAlert marks the drift alert as sent and returns true if drift
// is detected and no alert has been sent for this episode yet.
func (e *Engine) ClaimDriftAlert() bool {
	if !e.driftDetected || e.driftAlertSent {
		return false
	}
	e.driftAlertSent = true
	return true
}

// AcknowledgeDrift clears both drift flags.
func (e *Engine) AcknowledgeDrift() {
	e.driftDetected = false
	e.driftAlertSent = false
}

// DriftDetected reports the result of the last drift check.
func (e *Engine) DriftDetected() bool {
	return e.driftDetected
}

// DriftAlertSent reports whether the alert for this drift episode went out.
func (e *Engine) DriftAlertSent() bool {
	return e.driftAlertSent
}

// DriftState returns the combined drift state.
func (e *Engine) DriftState() DriftState {
	switch {
	case e.driftAlertSent:
		return DriftAlerted
	case e.driftDetected:
		return DriftDrifting
	}
	return DriftStable
}

// Deviation returns |ambient - baseline| for ch.
func (e *Engine) Deviation(ch Channel) float64 {
	c := e.ch[ch]
	return math.Abs(c.ambient - float64(c.baseline))
}

// DriftMonitor runs the drift check at a fixed interval and raises the
// one-time alert.
type DriftMonitor struct {
	interval  uint32
	lastCheck Millis
}

// NewDriftMonitor creates a monitor that checks every intervalMs.
// The first check happens once intervalMs have elapsed from start.
func NewDriftMonitor(intervalMs uint32, start Millis) *DriftMonitor {
	return &DriftMonitor{interval: intervalMs, lastCheck: start}
}

// Tick checks e for drift if the interval has elapsed and returns true
// when a new drift alert should be raised.
func (d *DriftMonitor) Tick(now Millis, e *Engine) bool {
	if now.Sub(d.lastCheck) < d.interval {
		return false
	}
	d.lastCheck = now
	e.CheckDrift()
	return e.ClaimDriftAlert()
}
