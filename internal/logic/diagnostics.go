package logic

import (
	"fmt"
	"io"
)

// Diagnostics is a point-in-time copy of the engine state.
type Diagnostics struct {
	Raw            Sample
	Smoothed       Sample
	Baselines      Sample
	Intensity      [NumChannels]float64
	Ambient        [NumChannels]float64
	Deviation      [NumChannels]float64
	FlameDetected  bool
	Pattern        Pattern
	Angle          float64
	Confidence     float64
	ValidSamples   uint32
	DriftDetected  bool
	DriftAlertSent bool
	DriftState     DriftState
	CoolingDown    bool
}

// Diagnostics returns a snapshot of the engine state at now.
func (e *Engine) Diagnostics(now Millis) Diagnostics {
	d := Diagnostics{
		FlameDetected:  e.FlameDetected(),
		Pattern:        e.Pattern(),
		Angle:          e.Angle(),
		Confidence:     e.Confidence(),
		ValidSamples:   e.validSamples,
		DriftDetected:  e.driftDetected,
		DriftAlertSent: e.driftAlertSent,
		DriftState:     e.DriftState(),
		CoolingDown:    e.CoolingDown(now),
	}
	for i, c := range e.ch {
		d.Raw[i] = c.raw
		d.Smoothed[i] = c.smoothed
		d.Baselines[i] = c.baseline
		d.Intensity[i] = e.RelativeIntensity(c.smoothed, c.baseline)
		d.Ambient[i] = c.ambient
		d.Deviation[i] = e.Deviation(Channel(i))
	}
	return d
}

// WriteDebug writes a human-readable dump of d. The format is for people,
// not parsers.
func (d Diagnostics) WriteDebug(w io.Writer, minDriftSamples uint32) error {
	ew := &errWriter{w: w}
	ew.printf("------ Sensor Readings ------\n")
	ew.printf("Raw: %d, %d, %d\n", d.Raw[Right], d.Raw[Left], d.Raw[Middle])
	ew.printf("Processed: %d, %d, %d\n", d.Smoothed[Right], d.Smoothed[Left], d.Smoothed[Middle])
	ew.printf("Relative Intensity: %.2f, %.2f, %.2f\n", d.Intensity[Right], d.Intensity[Left], d.Intensity[Middle])
	ew.printf("Flame Detected: %s\n", yesNo(d.FlameDetected))
	if d.FlameDetected {
		ew.printf("Pattern: %s\n", d.Pattern)
		ew.printf("Flame Angle: %.1f°\n", d.Angle)
		ew.printf("Confidence: %.0f%%\n", d.Confidence*100)
	}
	if d.ValidSamples >= minDriftSamples {
		ew.printf("------ Ambient Tracking ------\n")
		ew.printf("Current Avg: %.1f, %.1f, %.1f\n", d.Ambient[Right], d.Ambient[Left], d.Ambient[Middle])
		ew.printf("Calibrated: %d, %d, %d\n", d.Baselines[Right], d.Baselines[Left], d.Baselines[Middle])
		ew.printf("Deviation: %.1f, %.1f, %.1f\n", d.Deviation[Right], d.Deviation[Left], d.Deviation[Middle])
		ew.printf("Calibration Needed: %s\n", yesNo(d.DriftDetected))
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
