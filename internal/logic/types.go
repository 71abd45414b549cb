// Package logic contains the pure flame triangulation and calibration logic.
// This package does no I/O (no GPIO, serial, MQTT, OS, or time.Sleep).
// Time is always injectable, either as time.Time or as a Millis clock value.
package logic

import "time"

// Channel identifies one physical sensor of the array.
type Channel int

const (
	Right  Channel = iota // +X
	Left                  // -X
	Middle                // 0
)

// NumChannels is the number of sensors in the array.
const NumChannels = 3

// Channels lists every channel in index order.
var Channels = [NumChannels]Channel{Right, Left, Middle}

func (c Channel) String() string {
	switch c {
	case Right:
		return "right"
	case Left:
		return "left"
	case Middle:
		return "middle"
	}
	return "unknown"
}

// Sample is one raw reading per channel, indexed by Channel.
type Sample [NumChannels]int

// Millis is a wrapping millisecond clock value.
type Millis uint32

// Sub returns the milliseconds elapsed since earlier. Unsigned subtraction
// keeps the result correct across clock wraparound.
func (m Millis) Sub(earlier Millis) uint32 {
	return uint32(m - earlier)
}

// Add returns m advanced by d milliseconds.
func (m Millis) Add(d uint32) Millis {
	return m + Millis(d)
}

// EventType represents a monitor event.
type EventType string

const (
	EventCalibrationStarted EventType = "CALIBRATION_STARTED"
	EventCalibrated         EventType = "CALIBRATED"
	EventFlameDetected      EventType = "FLAME_DETECTED"
	EventFlameCleared       EventType = "FLAME_CLEARED"
	EventDriftAlert         EventType = "DRIFT_ALERT"
	EventDriftAcknowledged  EventType = "DRIFT_ACKNOWLEDGED"
)

// Event represents something worth publishing.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Angle      float64 // degrees, FLAME_DETECTED only
	Confidence float64 // 0..1, FLAME_DETECTED only
	Pattern    Pattern
	Baselines  Sample
	Ambient    [NumChannels]float64
}

// Input represents a single control-cycle sample.
type Input struct {
	Readings Sample
	Time     time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	FlameDetected int
	FlameCleared  int
	DriftAlerts   int
	Calibrations  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
