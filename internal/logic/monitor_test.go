package logic

import (
	"testing"
	"time"
)

var monitorStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const step = 100 * time.Millisecond

// setupCalibratedMonitor drives a new monitor through its initial
// calibration at 100ms ticks. It returns the monitor and the time of the
// next tick.
func setupCalibratedMonitor(t *testing.T, base Sample) (*Monitor, time.Time) {
	t.Helper()
	m := NewMonitor(DefaultConfig(), monitorStart)

	now := monitorStart
	for i := 0; i < 100 && !m.IsReady(); i++ {
		events := m.Process(Input{Readings: base, Time: now})
		now = now.Add(step)
		if m.IsReady() {
			if len(events) != 1 || events[0].Type != EventCalibrated {
				t.Fatalf("expected CALIBRATED event, got %v", events)
			}
		}
	}
	if !m.IsReady() {
		t.Fatal("failed to complete initial calibration")
	}
	return m, now
}

// run processes n samples at 100ms ticks from *now and collects events.
func run(m *Monitor, s Sample, now *time.Time, n int) []Event {
	var all []Event
	for i := 0; i < n; i++ {
		all = append(all, m.Process(Input{Readings: s, Time: *now})...)
		*now = now.Add(step)
	}
	return all
}

func countType(events []Event, typ EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestNewMonitorCalibratesFirst(t *testing.T) {
	m := NewMonitor(DefaultConfig(), monitorStart)
	if m.IsReady() {
		t.Error("new monitor should not be ready")
	}
	if !m.Outputs().Calibrating {
		t.Error("new monitor should be calibrating")
	}

	// A flame-like reading during calibration is averaged into the
	// baseline, never detected.
	events := m.Process(Input{Readings: Sample{100, 100, 100}, Time: monitorStart})
	if len(events) != 0 {
		t.Errorf("expected no events during calibration, got %v", events)
	}
	if m.Outputs().FlameDetected {
		t.Error("no detection while calibrating")
	}
}

func TestMonitorInitialCalibration(t *testing.T) {
	m, _ := setupCalibratedMonitor(t, Sample{512, 498, 505})

	e := m.Engine()
	want := Sample{512, 498, 505}
	for _, ch := range Channels {
		if e.Baseline(ch) != want[ch] {
			t.Errorf("%s: baseline got %d, want %d", ch, e.Baseline(ch), want[ch])
		}
	}
	if m.EventCounts().Calibrations != 1 {
		t.Errorf("expected 1 calibration, got %d", m.EventCounts().Calibrations)
	}
	phase, _, _ := m.Calibration()
	if phase != CalibrationIdle {
		t.Errorf("expected IDLE, got %s", phase)
	}
}

func TestMonitorFlameDetectedAndCleared(t *testing.T) {
	m, now := setupCalibratedMonitor(t, Sample{500, 500, 500})

	events := run(m, Sample{400, 500, 500}, &now, 5)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %v", events)
	}
	e := events[0]
	if e.Type != EventFlameDetected {
		t.Errorf("expected FLAME_DETECTED, got %s", e.Type)
	}
	if e.Angle != 30 {
		t.Errorf("expected angle 30, got %v", e.Angle)
	}
	if e.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %v", e.Confidence)
	}
	if e.Pattern.Kind != PatternSingle || e.Pattern.Single() != Right {
		t.Errorf("expected single(right), got %s", e.Pattern)
	}

	out := m.Outputs()
	if !out.FlameDetected || out.Angle != 30 {
		t.Errorf("unexpected outputs: %+v", out)
	}

	events = run(m, Sample{500, 500, 500}, &now, 10)
	if len(events) != 1 || events[0].Type != EventFlameCleared {
		t.Fatalf("expected one FLAME_CLEARED, got %v", events)
	}
	if m.Outputs().FlameDetected {
		t.Error("flame should be cleared")
	}

	counts := m.EventCounts()
	if counts.FlameDetected != 1 || counts.FlameCleared != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestMonitorDriftAlertOnce(t *testing.T) {
	m, now := setupCalibratedMonitor(t, Sample{500, 500, 500})

	events := run(m, Sample{504, 500, 500}, &now, 200)
	if n := countType(events, EventDriftAlert); n != 1 {
		t.Fatalf("expected 1 DRIFT_ALERT in 20s, got %d", n)
	}
	out := m.Outputs()
	if !out.DriftDetected || !out.DriftAlertSent {
		t.Errorf("expected drift flags set, got %+v", out)
	}

	events = m.AcknowledgeDrift(now)
	if len(events) != 1 || events[0].Type != EventDriftAcknowledged {
		t.Fatalf("expected DRIFT_ACKNOWLEDGED, got %v", events)
	}
	if m.AcknowledgeDrift(now) != nil {
		t.Error("second acknowledge should be a no-op")
	}

	// Still drifted: the next check raises it again.
	events = run(m, Sample{504, 500, 500}, &now, 60)
	if n := countType(events, EventDriftAlert); n != 1 {
		t.Errorf("expected drift to re-alert after acknowledge, got %d", n)
	}
	if m.EventCounts().DriftAlerts != 2 {
		t.Errorf("expected 2 drift alerts counted, got %d", m.EventCounts().DriftAlerts)
	}
}

func TestMonitorNoDriftCheckDuringFlame(t *testing.T) {
	m, now := setupCalibratedMonitor(t, Sample{500, 500, 500})

	// Flame for the whole period: the ambient never moves and no check runs.
	events := run(m, Sample{400, 400, 400}, &now, 200)
	if n := countType(events, EventDriftAlert); n != 0 {
		t.Errorf("expected no drift alert during flame, got %d", n)
	}
	if m.Engine().ValidSamples() != 0 {
		t.Errorf("expected no ambient samples during flame, got %d", m.Engine().ValidSamples())
	}
}

func TestMonitorRecalibration(t *testing.T) {
	m, now := setupCalibratedMonitor(t, Sample{500, 500, 500})
	run(m, Sample{504, 500, 500}, &now, 200)
	run(m, Sample{400, 500, 500}, &now, 5)
	if !m.Outputs().FlameDetected {
		t.Fatal("expected flame before recalibration")
	}

	events := m.RequestCalibration(now)
	if len(events) != 2 || events[0].Type != EventFlameCleared || events[1].Type != EventCalibrationStarted {
		t.Fatalf("expected FLAME_CLEARED then CALIBRATION_STARTED, got %v", events)
	}
	if m.RequestCalibration(now) != nil {
		t.Error("request while calibrating should be ignored")
	}
	if out := m.Outputs(); !out.Calibrating || out.FlameDetected {
		t.Errorf("unexpected outputs during calibration: %+v", out)
	}

	events = run(m, Sample{480, 490, 470}, &now, 31)
	if n := countType(events, EventCalibrated); n != 1 {
		t.Fatalf("expected CALIBRATED, got %v", events)
	}
	e := m.Engine()
	if e.Baseline(Right) != 480 || e.Baseline(Left) != 490 || e.Baseline(Middle) != 470 {
		t.Errorf("unexpected baselines after recalibration: %v", m.Diagnostics().Baselines)
	}
	if e.DriftDetected() || e.DriftAlertSent() {
		t.Error("recalibration should clear drift state")
	}
	if m.Outputs().Calibrating {
		t.Error("calibration should have finished")
	}
}

func TestMonitorEventCarriesCalibrationState(t *testing.T) {
	m, _ := setupCalibratedMonitor(t, Sample{500, 501, 502})
	events := m.RequestCalibration(monitorStart.Add(time.Hour))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %v", events)
	}
	e := events[0]
	if e.Baselines != (Sample{500, 501, 502}) {
		t.Errorf("baselines: got %v", e.Baselines)
	}
	if e.Ambient != [NumChannels]float64{500, 501, 502} {
		t.Errorf("ambient: got %v", e.Ambient)
	}
}

// Heartbeat tests

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	m, _ := setupCalibratedMonitor(t, Sample{500, 500, 500})

	if hb := m.CheckHeartbeat(monitorStart.Add(15*time.Minute), 0); hb != nil {
		t.Error("should not return heartbeat when interval is 0 (disabled)")
	}
	if hb := m.CheckHeartbeat(monitorStart.Add(15*time.Minute), -1*time.Minute); hb != nil {
		t.Error("should not return heartbeat when interval is negative")
	}
}

func TestCheckHeartbeatBeforeCalibration(t *testing.T) {
	m := NewMonitor(DefaultConfig(), monitorStart)
	if hb := m.CheckHeartbeat(monitorStart.Add(15*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat before calibration")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	m, _ := setupCalibratedMonitor(t, Sample{500, 500, 500})

	if hb := m.CheckHeartbeat(monitorStart.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat before interval")
	}

	checkTime := monitorStart.Add(15 * time.Minute)
	hb := m.CheckHeartbeat(checkTime, 15*time.Minute)
	if hb == nil {
		t.Fatal("should return heartbeat at interval")
	}
	if !hb.Timestamp.Equal(checkTime) {
		t.Errorf("expected timestamp %v, got %v", checkTime, hb.Timestamp)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
	if hb.Counts.Calibrations != 1 {
		t.Errorf("expected 1 calibration in counts, got %d", hb.Counts.Calibrations)
	}

	if hb := m.CheckHeartbeat(checkTime.Add(time.Second), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat immediately after previous")
	}
	if hb := m.CheckHeartbeat(checkTime.Add(15*time.Minute), 15*time.Minute); hb == nil {
		t.Error("should return second heartbeat")
	}
}

func TestMonitorDiagnosticsHideFlameBeforeCalibration(t *testing.T) {
	m := NewMonitor(DefaultConfig(), monitorStart)
	m.Process(Input{Readings: Sample{1000, 1000, 1000}, Time: monitorStart.Add(50 * time.Millisecond)})

	// The engine still holds its power-on baselines, which every reading
	// falls below.
	if !m.Engine().FlameDetected() {
		t.Fatal("expected the uncalibrated engine to report crossings")
	}

	d := m.Diagnostics()
	if d.FlameDetected || d.Pattern.Kind != PatternNone || d.Angle != 0 || d.Confidence != 0 {
		t.Errorf("diagnostics should show no flame before calibration, got flame=%v pattern=%s angle=%v conf=%v",
			d.FlameDetected, d.Pattern, d.Angle, d.Confidence)
	}
	if d.Raw != (Sample{1000, 1000, 1000}) {
		t.Errorf("raw readings should still be reported, got %v", d.Raw)
	}
}

func TestMonitorDiagnosticsHideFlameDuringRecalibration(t *testing.T) {
	m, now := setupCalibratedMonitor(t, Sample{1000, 1000, 1000})
	run(m, Sample{500, 1000, 1000}, &now, 5)
	if !m.Diagnostics().FlameDetected {
		t.Fatal("expected a flame before recalibrating")
	}

	m.RequestCalibration(now)
	run(m, Sample{500, 1000, 1000}, &now, 3)

	d := m.Diagnostics()
	if d.FlameDetected || d.Pattern.Kind != PatternNone {
		t.Errorf("diagnostics should show no flame while recalibrating, got flame=%v pattern=%s", d.FlameDetected, d.Pattern)
	}
	if m.Outputs().FlameDetected {
		t.Error("outputs should show no flame while recalibrating")
	}
}
