package logic

// CalibrationPhase is the calibrator's state.
type CalibrationPhase string

const (
	CalibrationIdle       CalibrationPhase = "IDLE"
	CalibrationSettling   CalibrationPhase = "SETTLING"
	CalibrationSampling   CalibrationPhase = "SAMPLING"
	CalibrationCommitting CalibrationPhase = "COMMITTING"
)

// Calibrator collects a batch of flame-free samples across many control
// cycles and averages them into new baselines. It never blocks; every
// Tick returns immediately.
type Calibrator struct {
	settle  uint32
	spacing uint32
	want    int

	phase CalibrationPhase
	since Millis // phase entry (settling) or last sample (sampling)
	taken int
	sums  [NumChannels]int
}

// NewCalibrator creates an idle calibrator from cfg.
func NewCalibrator(cfg Config) *Calibrator {
	want := cfg.CalibrationSamples
	if want < 1 {
		want = 1
	}
	return &Calibrator{
		settle:  cfg.CalibrationSettleMs,
		spacing: cfg.CalibrationSpacingMs,
		want:    want,
		phase:   CalibrationIdle,
	}
}

// Start begins a new calibration at now, discarding any batch in progress.
func (c *Calibrator) Start(now Millis) {
	c.phase = CalibrationSettling
	c.since = now
	c.taken = 0
	c.sums = [NumChannels]int{}
}

// Active reports whether a calibration is in progress.
func (c *Calibrator) Active() bool {
	return c.phase != CalibrationIdle
}

// Phase returns the current phase.
func (c *Calibrator) Phase() CalibrationPhase {
	return c.phase
}

// Progress returns samples taken and samples wanted.
func (c *Calibrator) Progress() (int, int) {
	return c.taken, c.want
}

// Tick advances the state machine with the sample read this cycle. When
// the batch is complete it returns the averaged baselines and true, and
// the calibrator goes back to idle.
func (c *Calibrator) Tick(now Millis, s Sample) (Sample, bool) {
	switch c.phase {
	case CalibrationSettling:
		if now.Sub(c.since) < c.settle {
			return Sample{}, false
		}
		c.phase = CalibrationSampling
		c.take(now, s)

	case CalibrationSampling:
		if now.Sub(c.since) >= c.spacing {
			c.take(now, s)
		}

	case CalibrationCommitting:
		var avg Sample
		for i, sum := range c.sums {
			avg[i] = sum / c.want
		}
		c.phase = CalibrationIdle
		return avg, true
	}
	return Sample{}, false
}

func (c *Calibrator) take(now Millis, s Sample) {
	for i, v := range s {
		c.sums[i] += v
	}
	c.taken++
	c.since = now
	if c.taken >= c.want {
		c.phase = CalibrationCommitting
	}
}
