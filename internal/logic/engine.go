package logic

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// channelState is one sensor's full state.
type channelState struct {
	raw      int
	smoothed int
	baseline int     // set only by Calibrate
	ambient  float64 // slow EMA of smoothed readings, seeded by Calibrate
	history  *window
}

// Engine estimates flame presence and bearing from three sensor channels
// and tracks whether the ambient calibration has drifted.
//
// An Engine is owned by a single control cycle. It does no locking and
// must not be driven from two goroutines.
type Engine struct {
	cfg Config
	ch  [NumChannels]channelState

	validSamples   uint32
	driftDetected  bool
	driftAlertSent bool

	// Cooldown window: ambient tracking is suspended until CooldownMs have
	// passed since the last tick with a flame.
	cooling       bool
	lastDetection Millis
}

// NewEngine creates an engine with uncalibrated baselines.
func NewEngine(cfg Config) *Engine {
	e := &Engine{cfg: cfg}
	for i := range e.ch {
		e.ch[i] = channelState{
			baseline: cfg.InitialBaseline,
			ambient:  float64(cfg.InitialBaseline),
			history:  newWindow(cfg.WindowDepth),
		}
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Calibrate replaces all baselines at once and re-seeds the smoothing
// history and ambient EMA of every channel with the new baseline. The
// caller guarantees no flame was present while r was sampled.
func (e *Engine) Calibrate(r Sample) {
	for i := range e.ch {
		c := &e.ch[i]
		c.baseline = r[i]
		c.history.fill(r[i])
		c.smoothed = r[i]
		c.ambient = float64(r[i])
	}
	e.validSamples = 0
	e.driftDetected = false
	e.driftAlertSent = false
}

// Update pushes one raw sample per channel, recomputes the smoothed values
// and then updates ambient tracking using the fresh detection result.
// Values are used as-is; the caller owns sensor sanity.
func (e *Engine) Update(s Sample, now Millis) {
	for i := range e.ch {
		c := &e.ch[i]
		c.raw = s[i]
		c.history.push(s[i])
		c.smoothed = c.history.mean()
	}
	e.trackAmbient(e.FlameDetected(), now)
}

func (e *Engine) trackAmbient(detected bool, now Millis) {
	if detected {
		e.cooling = true
		e.lastDetection = now
		return
	}
	if e.cooling {
		if now.Sub(e.lastDetection) < e.cfg.CooldownMs {
			return
		}
		e.cooling = false
	}

	w := e.cfg.EMAWeight
	for i := range e.ch {
		c := &e.ch[i]
		c.ambient = c.ambient*(1-w) + float64(c.smoothed)*w
	}
	if e.validSamples < e.cfg.SampleCeiling {
		e.validSamples++
	}
}

func (e *Engine) crossing(ch Channel) bool {
	c := e.ch[ch]
	return c.baseline-c.smoothed > e.cfg.Threshold
}

// FlameDetected reports whether any channel's smoothed reading has dropped
// more than the threshold below its baseline. Brighter readings never count.
func (e *Engine) FlameDetected() bool {
	for _, ch := range Channels {
		if e.crossing(ch) {
			return true
		}
	}
	return false
}

// Pattern returns the current set of crossing channels.
func (e *Engine) Pattern() Pattern {
	var crossing [NumChannels]bool
	for _, ch := range Channels {
		crossing[ch] = e.crossing(ch)
	}
	return newPattern(crossing)
}

// RelativeIntensity normalises the brightness deficit of reading against
// baseline into [0, 1]. Readings at or above baseline give 0.
func (e *Engine) RelativeIntensity(reading, baseline int) float64 {
	diff := baseline - reading
	if diff <= 0 {
		return 0
	}
	if diff > e.cfg.MaxDiff {
		diff = e.cfg.MaxDiff
	}
	return float64(diff) / float64(e.cfg.MaxDiff)
}

func (e *Engine) intensities() []float64 {
	in := make([]float64, NumChannels)
	for i, c := range e.ch {
		in[i] = e.RelativeIntensity(c.smoothed, c.baseline)
	}
	return in
}

// Angle returns the estimated bearing in degrees, within [-AngleLimit, +AngleLimit].
// Positive is towards the right sensor. It is 0 when no channel crosses.
func (e *Engine) Angle() float64 {
	p := e.Pattern()
	switch p.Kind {
	case PatternAll:
		return e.triangulate()
	case PatternPair:
		return e.dualEstimate()
	case PatternSingle:
		return e.sensorAngle(p.Single())
	}
	return 0
}

// triangulate takes the intensity-weighted mean of the sensor positions and
// converts it to an angle against the assumed target distance.
func (e *Engine) triangulate() float64 {
	in := e.intensities()
	total := floats.Sum(in)
	if total < e.cfg.MinTotalIntensity {
		return 0
	}
	x := floats.Dot(e.cfg.Positions[:], in) / total
	return math.Atan2(x, e.cfg.AssumedDistance) * 180 / math.Pi
}

// dualEstimate picks the strongest pair of channels and interpolates
// across the angular sub-range that pair spans.
func (e *Engine) dualEstimate() float64 {
	in := e.intensities()
	r, l, m := in[Right], in[Left], in[Middle]
	limit := e.cfg.AngleLimit

	switch {
	case r >= m && l >= m:
		// left..right spans [-limit, +limit]
		if r+l <= 0 {
			return 0
		}
		return (r/(r+l) - 0.5) * 2 * limit
	case r >= l && m >= l:
		// middle..right spans [0, +limit]
		if r+m <= 0 {
			return 0
		}
		return r / (r + m) * limit
	default:
		// left..middle spans [-limit, 0]
		if l+m <= 0 {
			return 0
		}
		return (m/(l+m) - 1) * limit
	}
}

func (e *Engine) sensorAngle(ch Channel) float64 {
	switch ch {
	case Right:
		return e.cfg.AngleLimit
	case Left:
		return -e.cfg.AngleLimit
	}
	return 0
}

// Confidence scores the current detection in [0, 1]. The summed intensity
// sets the base score, which is penalised when the channels do not fall
// off monotonically from one side like a point source would.
func (e *Engine) Confidence() float64 {
	in := e.intensities()
	total := floats.Sum(in)
	base := clamp(total/e.cfg.ConfidenceDivisor, 0, 1)

	consistency := 1.0
	if total > e.cfg.NoiseFloor {
		r, l, m := in[Right], in[Left], in[Middle]
		if !((r > m && m > l) || (l > m && m > r)) {
			consistency = e.cfg.InconsistencyPenalty
		}
	}
	return base * consistency
}

// Ambient returns the current ambient EMA for ch.
func (e *Engine) Ambient(ch Channel) float64 {
	return e.ch[ch].ambient
}

// Baseline returns the calibrated baseline for ch.
func (e *Engine) Baseline(ch Channel) int {
	return e.ch[ch].baseline
}

// Smoothed returns the moving-average reading for ch.
func (e *Engine) Smoothed(ch Channel) int {
	return e.ch[ch].smoothed
}

// ValidSamples returns how many ticks updated the ambient EMA since the
// last calibration, saturating at SampleCeiling.
func (e *Engine) ValidSamples() uint32 {
	return e.validSamples
}

// CoolingDown reports whether ambient tracking is suspended at now.
func (e *Engine) CoolingDown(now Millis) bool {
	return e.cooling && now.Sub(e.lastDetection) < e.cfg.CooldownMs
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
