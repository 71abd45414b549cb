package logic

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

// calibratedEngine returns an engine calibrated to base on every channel.
func calibratedEngine(t *testing.T, base int) *Engine {
	t.Helper()
	e := NewEngine(DefaultConfig())
	e.Calibrate(Sample{base, base, base})
	return e
}

// feed pushes s enough times to fill the smoothing window, so the smoothed
// value of every channel equals s.
func feed(e *Engine, s Sample, now Millis) {
	for i := 0; i < e.cfg.WindowDepth; i++ {
		e.Update(s, now)
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(DefaultConfig())
	for _, ch := range Channels {
		if e.Baseline(ch) != 1023 {
			t.Errorf("%s: expected initial baseline 1023, got %d", ch, e.Baseline(ch))
		}
		if e.Ambient(ch) != 1023 {
			t.Errorf("%s: expected initial ambient 1023, got %v", ch, e.Ambient(ch))
		}
	}
	if e.DriftState() != DriftStable {
		t.Errorf("expected STABLE, got %s", e.DriftState())
	}
}

func TestCalibrateNoStartupTransient(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.Calibrate(Sample{500, 500, 500})
	e.Update(Sample{500, 500, 500}, 0)

	if e.FlameDetected() {
		t.Error("should not detect flame right after calibration")
	}
	if e.DriftDetected() {
		t.Error("should not detect drift right after calibration")
	}
}

func TestCalibrateReseedsAmbient(t *testing.T) {
	e := NewEngine(DefaultConfig())
	feed(e, Sample{700, 710, 720}, 0)

	want := Sample{512, 498, 505}
	e.Calibrate(want)

	for _, ch := range Channels {
		if e.Ambient(ch) != float64(want[ch]) {
			t.Errorf("%s: ambient got %v, want %d", ch, e.Ambient(ch), want[ch])
		}
		if e.Baseline(ch) != want[ch] {
			t.Errorf("%s: baseline got %d, want %d", ch, e.Baseline(ch), want[ch])
		}
		if e.Smoothed(ch) != want[ch] {
			t.Errorf("%s: smoothed got %d, want %d", ch, e.Smoothed(ch), want[ch])
		}
	}
}

func TestCalibrateResetsDriftState(t *testing.T) {
	e := driftingEngine(t)
	if e.DriftState() != DriftAlerted {
		t.Fatalf("expected ALERTED before recalibration, got %s", e.DriftState())
	}

	e.Calibrate(Sample{504, 504, 504})

	if e.DriftDetected() || e.DriftAlertSent() {
		t.Error("calibration should clear both drift flags")
	}
	if e.ValidSamples() != 0 {
		t.Errorf("calibration should zero valid samples, got %d", e.ValidSamples())
	}
}

func TestUpdateDoesNotTouchBaselines(t *testing.T) {
	e := calibratedEngine(t, 500)
	for i := 0; i < 100; i++ {
		e.Update(Sample{504, 503, 502}, Millis(i*100))
	}
	for _, ch := range Channels {
		if e.Baseline(ch) != 500 {
			t.Errorf("%s: baseline changed to %d", ch, e.Baseline(ch))
		}
	}
}

func TestSmoothingMovingAverage(t *testing.T) {
	e := calibratedEngine(t, 500)

	e.Update(Sample{450, 500, 500}, 0)
	if got := e.Smoothed(Right); got != 490 {
		t.Errorf("after one sample: expected 490, got %d", got)
	}

	for i := 0; i < 4; i++ {
		e.Update(Sample{450, 500, 500}, 0)
	}
	if got := e.Smoothed(Right); got != 450 {
		t.Errorf("after full window: expected 450, got %d", got)
	}

	// Oldest sample is overwritten
	e.Update(Sample{500, 500, 500}, 0)
	if got := e.Smoothed(Right); got != 460 {
		t.Errorf("after overwrite: expected 460, got %d", got)
	}
}

func TestSmoothingTruncates(t *testing.T) {
	e := calibratedEngine(t, 500)
	e.Update(Sample{499, 500, 500}, 0)
	if got := e.Smoothed(Right); got != 499 {
		t.Errorf("expected truncated mean 499, got %d", got)
	}
}

func TestOutOfDomainInputAccepted(t *testing.T) {
	e := calibratedEngine(t, 500)
	feed(e, Sample{-20, 5000, 500}, 0)

	if e.Smoothed(Right) != -20 || e.Smoothed(Left) != 5000 {
		t.Errorf("values should be used as-is, got %d, %d", e.Smoothed(Right), e.Smoothed(Left))
	}
	if !e.FlameDetected() {
		t.Error("negative reading is far below baseline and should detect")
	}
	if got := e.RelativeIntensity(-20, 500); got != 1 {
		t.Errorf("intensity should clamp to 1, got %v", got)
	}
}

func TestDetectionThreshold(t *testing.T) {
	tests := []struct {
		name    string
		reading Sample
		want    bool
	}{
		{"at baseline", Sample{500, 500, 500}, false},
		{"exactly threshold below", Sample{495, 495, 495}, false},
		{"one past threshold right", Sample{494, 500, 500}, true},
		{"one past threshold left", Sample{500, 494, 500}, true},
		{"one past threshold middle", Sample{500, 500, 494}, true},
		{"brighter than baseline", Sample{900, 900, 900}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := calibratedEngine(t, 500)
			feed(e, tt.reading, 0)
			if got := e.FlameDetected(); got != tt.want {
				t.Errorf("FlameDetected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelativeIntensity(t *testing.T) {
	e := NewEngine(DefaultConfig())
	tests := []struct {
		reading, baseline int
		want              float64
	}{
		{500, 500, 0},
		{600, 500, 0},
		{250, 500, 0.5},
		{499, 500, 0.002},
		{0, 500, 1},
		{0, 1000, 1},
	}

	for _, tt := range tests {
		if got := e.RelativeIntensity(tt.reading, tt.baseline); !approxEqual(got, tt.want) {
			t.Errorf("RelativeIntensity(%d, %d) = %v, want %v", tt.reading, tt.baseline, got, tt.want)
		}
	}
}

func TestAngleSingleChannel(t *testing.T) {
	tests := []struct {
		reading Sample
		ch      Channel
		want    float64
	}{
		{Sample{400, 500, 500}, Right, 30},
		{Sample{500, 400, 500}, Left, -30},
		{Sample{500, 500, 400}, Middle, 0},
	}

	for _, tt := range tests {
		t.Run(tt.ch.String(), func(t *testing.T) {
			e := calibratedEngine(t, 500)
			feed(e, tt.reading, 0)

			p := e.Pattern()
			if p.Kind != PatternSingle || p.Single() != tt.ch {
				t.Fatalf("expected single(%s), got %s", tt.ch, p)
			}
			if got := e.Angle(); got != tt.want {
				t.Errorf("Angle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAngleSymmetricPair(t *testing.T) {
	e := calibratedEngine(t, 500)
	feed(e, Sample{400, 400, 500}, 0)

	if p := e.Pattern(); p.Kind != PatternPair {
		t.Fatalf("expected pair, got %s", p)
	}
	if got := e.Angle(); got != 0 {
		t.Errorf("symmetric right/left should give 0, got %v", got)
	}
}

func TestAnglePairs(t *testing.T) {
	tests := []struct {
		name    string
		reading Sample
		want    float64
	}{
		// r=0.4 l=0.2: ratio 2/3 over [-30, 30]
		{"right+left", Sample{300, 400, 500}, 10},
		// r=0.4 m=0.2: ratio 2/3 over [0, 30]
		{"right+middle", Sample{300, 500, 400}, 20},
		// l=0.4 m=0.2: ratio 1/3 over [-30, 0]
		{"left+middle", Sample{500, 300, 400}, -20},
		// equal right+middle sits halfway
		{"right+middle equal", Sample{400, 500, 400}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := calibratedEngine(t, 500)
			feed(e, tt.reading, 0)
			if p := e.Pattern(); p.Kind != PatternPair {
				t.Fatalf("expected pair, got %s", p)
			}
			if got := e.Angle(); !approxEqual(got, tt.want) {
				t.Errorf("Angle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAngleAllThree(t *testing.T) {
	e := calibratedEngine(t, 500)
	feed(e, Sample{300, 450, 400}, 0)

	if p := e.Pattern(); p.Kind != PatternAll {
		t.Fatalf("expected all, got %s", p)
	}

	// r=0.4 l=0.1 m=0.2
	wantX := (5*0.4 - 5*0.1) / 0.7
	want := math.Atan2(wantX, 10) * 180 / math.Pi
	if got := e.Angle(); !approxEqual(got, want) {
		t.Errorf("Angle() = %v, want %v", got, want)
	}

	// Equal intensities sit in the middle
	e = calibratedEngine(t, 500)
	feed(e, Sample{400, 400, 400}, 0)
	if got := e.Angle(); !approxEqual(got, 0) {
		t.Errorf("equal intensities: Angle() = %v, want 0", got)
	}
}

func TestAngleWithinLimits(t *testing.T) {
	for r := 0; r <= 500; r += 50 {
		for l := 0; l <= 500; l += 50 {
			for m := 0; m <= 500; m += 50 {
				e := calibratedEngine(t, 500)
				feed(e, Sample{r, l, m}, 0)
				got := e.Angle()
				if got < -30 || got > 30 || math.IsNaN(got) {
					t.Fatalf("reading %v: angle %v out of range", Sample{r, l, m}, got)
				}
			}
		}
	}
}

func TestAngleNoCrossing(t *testing.T) {
	e := calibratedEngine(t, 500)
	feed(e, Sample{498, 497, 499}, 0)
	if got := e.Angle(); got != 0 {
		t.Errorf("no crossing should fall back to 0, got %v", got)
	}
	if got := e.Pattern().String(); got != "none" {
		t.Errorf("expected pattern none, got %s", got)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name    string
		reading Sample
		want    float64
	}{
		// r=0.4 > m=0.2 > l=0.1
		{"consistent right", Sample{300, 450, 400}, 0.7 / 1.5},
		// l=0.4 > m=0.2 > r=0.1
		{"consistent left", Sample{450, 300, 400}, 0.7 / 1.5},
		// middle strongest is not a point-source falloff from one side
		{"inconsistent", Sample{400, 400, 300}, 0.8 / 1.5 * 0.7},
		// total 0.04 is under the noise floor
		{"weak signal", Sample{480, 500, 500}, 0.04 / 1.5},
		{"saturated", Sample{0, 0, 0}, 0.7},
		{"nothing", Sample{500, 500, 500}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := calibratedEngine(t, 500)
			feed(e, tt.reading, 0)
			got := e.Confidence()
			if !approxEqual(got, tt.want) {
				t.Errorf("Confidence() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Confidence() = %v out of [0,1]", got)
			}
		})
	}
}

func TestConfidenceMonotonic(t *testing.T) {
	// Left and middle held at l=0.1, m=0.2; right grows from 0.25 to 0.9.
	prev := -1.0
	for r := 375; r >= 50; r -= 25 {
		e := calibratedEngine(t, 500)
		feed(e, Sample{r, 450, 400}, 0)
		got := e.Confidence()
		if got < prev {
			t.Errorf("right reading %d: confidence dropped from %v to %v", r, prev, got)
		}
		prev = got
	}
}

func TestAmbientFrozenDuringFlameAndCooldown(t *testing.T) {
	e := calibratedEngine(t, 500)

	// Flame at t=1000
	feed(e, Sample{400, 500, 500}, 1000)
	if !e.FlameDetected() {
		t.Fatal("expected flame")
	}
	if e.Ambient(Right) != 500 {
		t.Errorf("ambient changed during flame: %v", e.Ambient(Right))
	}

	// Flame clears during this batch; the last detection is at t=1100.
	feed(e, Sample{510, 510, 510}, 1100)
	if e.FlameDetected() {
		t.Fatal("flame should have cleared")
	}
	if e.Ambient(Right) != 500 || e.ValidSamples() != 0 {
		t.Errorf("ambient should be frozen in cooldown, got %v (%d samples)", e.Ambient(Right), e.ValidSamples())
	}
	if !e.CoolingDown(1100) {
		t.Error("expected cooldown to be active")
	}

	e.Update(Sample{510, 510, 510}, 4099)
	if e.Ambient(Right) != 500 {
		t.Errorf("ambient changed 2999ms after flame: %v", e.Ambient(Right))
	}

	e.Update(Sample{510, 510, 510}, 4100)
	if !approxEqual(e.Ambient(Right), 500.5) {
		t.Errorf("ambient should resume at 3000ms, got %v", e.Ambient(Right))
	}
	if e.ValidSamples() != 1 {
		t.Errorf("expected 1 valid sample, got %d", e.ValidSamples())
	}
	if e.CoolingDown(4100) {
		t.Error("cooldown should have ended")
	}
}

func TestCooldownAcrossClockWrap(t *testing.T) {
	e := calibratedEngine(t, 500)
	start := Millis(math.MaxUint32 - 255)

	feed(e, Sample{400, 500, 500}, start)
	feed(e, Sample{500, 500, 500}, start)
	for e.FlameDetected() {
		e.Update(Sample{500, 500, 500}, start)
	}

	e.Update(Sample{500, 500, 500}, start.Add(2999))
	if e.ValidSamples() != 0 {
		t.Errorf("ambient updated inside cooldown across wrap")
	}

	e.Update(Sample{500, 500, 500}, start.Add(3000))
	if e.ValidSamples() != 1 {
		t.Errorf("ambient should update once cooldown elapses across wrap, got %d samples", e.ValidSamples())
	}
}

func TestValidSamplesSaturate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleCeiling = 3
	e := NewEngine(cfg)
	e.Calibrate(Sample{500, 500, 500})

	for i := 0; i < 10; i++ {
		e.Update(Sample{500, 500, 500}, Millis(i))
	}
	if e.ValidSamples() != 3 {
		t.Errorf("expected saturation at 3, got %d", e.ValidSamples())
	}
}

func TestWriteDebug(t *testing.T) {
	e := calibratedEngine(t, 500)
	feed(e, Sample{400, 500, 500}, 0)

	var buf bytes.Buffer
	if err := e.Diagnostics(0).WriteDebug(&buf, e.Config().MinDriftSamples); err != nil {
		t.Fatalf("WriteDebug: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Raw: 400, 500, 500",
		"Processed: 400, 500, 500",
		"Relative Intensity: 0.20, 0.00, 0.00",
		"Flame Detected: YES",
		"Pattern: single(right)",
		"Flame Angle: 30.0°",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Ambient Tracking") {
		t.Error("ambient section should be hidden before enough samples")
	}
}
