package control

import "github.com/sweeney/flame-sensor/internal/logic"

// Cue is a short one-shot buzzer pattern.
type Cue int

const (
	CueNone Cue = iota
	CueCalibrationStarted
	CueCalibrated
	CueDriftWarning
)

func (c Cue) String() string {
	switch c {
	case CueCalibrationStarted:
		return "calibration-started"
	case CueCalibrated:
		return "calibrated"
	case CueDriftWarning:
		return "drift-warning"
	}
	return "none"
}

// cuePatterns alternate on and off durations in ms, starting with on.
var cuePatterns = map[Cue][]uint32{
	CueCalibrationStarted: {100, 50, 100, 50, 100, 50, 100},
	CueCalibrated:         {100, 25, 100, 25, 100},
	CueDriftWarning:       {50, 20, 50},
}

// CueFor returns the cue announcing an event, or CueNone.
func CueFor(t logic.EventType) Cue {
	switch t {
	case logic.EventCalibrationStarted:
		return CueCalibrationStarted
	case logic.EventCalibrated:
		return CueCalibrated
	case logic.EventDriftAlert:
		return CueDriftWarning
	}
	return CueNone
}

// Buzzer drives the audible alarm. While a flame is present it warbles,
// toggling every interval; otherwise it plays the most recent cue once.
type Buzzer struct {
	warble  *Siren
	pattern []uint32
	started logic.Millis
}

// NewBuzzer creates a silent Buzzer whose flame warble toggles every intervalMs.
func NewBuzzer(intervalMs uint32) *Buzzer {
	return &Buzzer{warble: NewSiren(intervalMs)}
}

// Play starts c at now, replacing any cue still sounding.
func (b *Buzzer) Play(now logic.Millis, c Cue) {
	b.pattern = cuePatterns[c]
	b.started = now
}

// Playing reports whether a cue is in progress.
func (b *Buzzer) Playing() bool {
	return b.pattern != nil
}

// Update returns whether the buzzer sounds this cycle. A flame cancels
// any cue.
func (b *Buzzer) Update(now logic.Millis, detected bool) bool {
	on, _ := b.warble.Update(now, detected)
	if detected {
		b.pattern = nil
		return on
	}
	if b.pattern == nil {
		return false
	}

	elapsed := now.Sub(b.started)
	for i, d := range b.pattern {
		if elapsed < d {
			return i%2 == 0
		}
		elapsed -= d
	}
	b.pattern = nil
	return false
}
