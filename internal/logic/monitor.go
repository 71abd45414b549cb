package logic

import "time"

// Outputs is what downstream collaborators read once per control cycle.
type Outputs struct {
	FlameDetected  bool
	Angle          float64
	Confidence     float64
	DriftDetected  bool
	DriftAlertSent bool
	Calibrating    bool
}

// Monitor drives an Engine from timestamped samples, runs calibration and
// drift checks, and reports what changed as events.
type Monitor struct {
	cfg    Config
	engine *Engine
	cal    *Calibrator
	drift  *DriftMonitor

	startTime     time.Time
	now           Millis
	calibrated    bool
	flame         bool
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor and starts the initial calibration at
// startTime. The startTime is also the zero of the millisecond clock and
// is used for calculating uptime in heartbeat events.
func NewMonitor(cfg Config, startTime time.Time) *Monitor {
	m := &Monitor{
		cfg:           cfg,
		engine:        NewEngine(cfg),
		cal:           NewCalibrator(cfg),
		drift:         NewDriftMonitor(cfg.DriftCheckMs, 0),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
	m.cal.Start(0)
	return m
}

// millis converts t to the wrapping millisecond clock.
func (m *Monitor) millis(t time.Time) Millis {
	return Millis(uint32(t.Sub(m.startTime).Milliseconds()))
}

// Clock returns t on the monitor's millisecond clock, for collaborators
// that share its timebase.
func (m *Monitor) Clock(t time.Time) Millis {
	return m.millis(t)
}

// Process takes a new sample and returns any events that should be emitted.
// While a calibration is in progress the sample feeds the calibrator and
// detection is suspended.
func (m *Monitor) Process(input Input) []Event {
	now := m.millis(input.Time)
	m.now = now

	if m.cal.Active() {
		baselines, done := m.cal.Tick(now, input.Readings)
		if !done {
			return nil
		}
		m.engine.Calibrate(baselines)
		m.calibrated = true
		m.drift = NewDriftMonitor(m.cfg.DriftCheckMs, now)
		return m.count([]Event{m.event(input.Time, EventCalibrated)})
	}

	m.engine.Update(input.Readings, now)
	detected := m.engine.FlameDetected()

	var events []Event
	if detected != m.flame {
		m.flame = detected
		if detected {
			e := m.event(input.Time, EventFlameDetected)
			e.Angle = m.engine.Angle()
			e.Confidence = m.engine.Confidence()
			events = append(events, e)
		} else {
			events = append(events, m.event(input.Time, EventFlameCleared))
		}
	}

	// Drift is only judged while no flame is present.
	if !detected && m.drift.Tick(now, m.engine) {
		events = append(events, m.event(input.Time, EventDriftAlert))
	}

	return m.count(events)
}

// RequestCalibration starts a recalibration at t. It is ignored while a
// calibration is already running. An active flame is reported cleared
// because detection stops for the duration of the calibration.
func (m *Monitor) RequestCalibration(t time.Time) []Event {
	if m.cal.Active() {
		return nil
	}
	var events []Event
	if m.flame {
		m.flame = false
		events = append(events, m.event(t, EventFlameCleared))
	}
	m.cal.Start(m.millis(t))
	events = append(events, m.event(t, EventCalibrationStarted))
	return m.count(events)
}

// AcknowledgeDrift clears the drift flags after an operator has seen the
// warning. Returns nil if there was nothing to acknowledge.
func (m *Monitor) AcknowledgeDrift(t time.Time) []Event {
	if m.engine.DriftState() == DriftStable {
		return nil
	}
	m.engine.AcknowledgeDrift()
	return m.count([]Event{m.event(t, EventDriftAcknowledged)})
}

func (m *Monitor) event(t time.Time, typ EventType) Event {
	e := Event{
		Timestamp: t,
		Type:      typ,
		Pattern:   m.engine.Pattern(),
	}
	for _, ch := range Channels {
		e.Baselines[ch] = m.engine.Baseline(ch)
		e.Ambient[ch] = m.engine.Ambient(ch)
	}
	return e
}

func (m *Monitor) count(events []Event) []Event {
	for _, e := range events {
		switch e.Type {
		case EventFlameDetected:
			m.eventCounts.FlameDetected++
		case EventFlameCleared:
			m.eventCounts.FlameCleared++
		case EventDriftAlert:
			m.eventCounts.DriftAlerts++
		case EventCalibrated:
			m.eventCounts.Calibrations++
		}
	}
	return events
}

// Outputs returns the values collaborators act on this cycle.
func (m *Monitor) Outputs() Outputs {
	if m.cal.Active() {
		return Outputs{
			DriftDetected:  m.engine.DriftDetected(),
			DriftAlertSent: m.engine.DriftAlertSent(),
			Calibrating:    true,
		}
	}
	o := Outputs{
		FlameDetected:  m.flame,
		DriftDetected:  m.engine.DriftDetected(),
		DriftAlertSent: m.engine.DriftAlertSent(),
	}
	if m.flame {
		o.Angle = m.engine.Angle()
		o.Confidence = m.engine.Confidence()
	}
	return o
}

// IsReady returns whether the first calibration has completed.
func (m *Monitor) IsReady() bool {
	return m.calibrated
}

// Calibration returns the calibrator phase and progress.
func (m *Monitor) Calibration() (phase CalibrationPhase, taken, want int) {
	taken, want = m.cal.Progress()
	return m.cal.Phase(), taken, want
}

// Engine exposes the underlying engine for diagnostics.
func (m *Monitor) Engine() *Engine {
	return m.engine
}

// Diagnostics returns the engine state as of the last processed sample.
// Detection results are blanked until the first calibration commits and
// while a recalibration runs, matching Outputs.
func (m *Monitor) Diagnostics() Diagnostics {
	d := m.engine.Diagnostics(m.now)
	if !m.calibrated || m.cal.Active() {
		d.FlameDetected = false
		d.Pattern = Pattern{}
		d.Angle = 0
		d.Confidence = 0
	}
	return d
}

// EventCounts returns the number of each event type since startup.
func (m *Monitor) EventCounts() EventCounts {
	return m.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet calibrated, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.calibrated {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
