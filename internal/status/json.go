package status

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/flame-sensor/internal/logic"
)

// newID generates message ids for lifecycle events. Tests replace it.
var newID = uuid.NewString

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	ID            string          `json:"id,omitempty"`
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Ready         bool            `json:"ready"`
	Flame         FlameJSON       `json:"flame"`
	Sensors       SensorsJSON     `json:"sensors"`
	Drift         DriftJSON       `json:"drift"`
	Calibration   CalibrationJSON `json:"calibration"`
	Actuators     ActuatorsJSON   `json:"actuators"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Counts        CountsJSON      `json:"event_counts"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// FlameJSON is the current detection result.
type FlameJSON struct {
	Detected    bool    `json:"detected"`
	Angle       float64 `json:"angle"`
	Confidence  float64 `json:"confidence"`
	Pattern     string  `json:"pattern"`
	CoolingDown bool    `json:"cooling_down"`
}

// ChannelInts holds one integer per sensor.
type ChannelInts struct {
	Right  int `json:"right"`
	Left   int `json:"left"`
	Middle int `json:"middle"`
}

// ChannelFloats holds one float per sensor.
type ChannelFloats struct {
	Right  float64 `json:"right"`
	Left   float64 `json:"left"`
	Middle float64 `json:"middle"`
}

// SensorsJSON holds the per-channel pipeline values.
type SensorsJSON struct {
	Raw       ChannelInts   `json:"raw"`
	Smoothed  ChannelInts   `json:"smoothed"`
	Baselines ChannelInts   `json:"baselines"`
	Intensity ChannelFloats `json:"intensity"`
	Ambient   ChannelFloats `json:"ambient"`
	Deviation ChannelFloats `json:"deviation"`
}

// DriftJSON reports ambient drift monitoring.
type DriftJSON struct {
	State        string `json:"state"`
	Detected     bool   `json:"detected"`
	AlertSent    bool   `json:"alert_sent"`
	ValidSamples uint32 `json:"valid_samples"`
}

// CalibrationJSON reports calibrator progress.
type CalibrationJSON struct {
	Phase string `json:"phase"`
	Taken int    `json:"taken"`
	Want  int    `json:"want"`
}

// ActuatorsJSON reports the last commanded outputs.
type ActuatorsJSON struct {
	ServoAngle  int  `json:"servo_angle"`
	TargetAngle int  `json:"target_angle"`
	PumpEnabled bool `json:"pump_enabled"`
	PumpActive  bool `json:"pump_active"`
	StatusLED   bool `json:"status_led"`
	SirenA      bool `json:"siren_a"`
	SirenB      bool `json:"siren_b"`
	Buzzer      bool `json:"buzzer"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Queued    int    `json:"queued"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	FlameDetected int `json:"flame_detected"`
	FlameCleared  int `json:"flame_cleared"`
	DriftAlerts   int `json:"drift_alerts"`
	Calibrations  int `json:"calibrations"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	DriftCheckMs int64  `json:"drift_check_ms"`
	Broker       string `json:"broker"`
	HTTPPort     string `json:"http_port"`
	WSBroker     string `json:"ws_broker,omitempty"`
	SerialPort   string `json:"serial_port"`
	SerialMode   string `json:"serial_mode"`
}

func ints(s logic.Sample) ChannelInts {
	return ChannelInts{Right: s[logic.Right], Left: s[logic.Left], Middle: s[logic.Middle]}
}

func floats(v [logic.NumChannels]float64) ChannelFloats {
	return ChannelFloats{Right: v[logic.Right], Left: v[logic.Left], Middle: v[logic.Middle]}
}

func buildInner(snap Snapshot) StatusInner {
	d := snap.Engine
	a := snap.Actuators

	phase := string(snap.Calibration.Phase)
	if phase == "" {
		phase = string(logic.CalibrationIdle)
	}
	drift := string(d.DriftState)
	if drift == "" {
		drift = string(logic.DriftStable)
	}

	return StatusInner{
		Ready: snap.Ready,
		Flame: FlameJSON{
			Detected:    d.FlameDetected,
			Angle:       d.Angle,
			Confidence:  d.Confidence,
			Pattern:     d.Pattern.String(),
			CoolingDown: d.CoolingDown,
		},
		Sensors: SensorsJSON{
			Raw:       ints(d.Raw),
			Smoothed:  ints(d.Smoothed),
			Baselines: ints(d.Baselines),
			Intensity: floats(d.Intensity),
			Ambient:   floats(d.Ambient),
			Deviation: floats(d.Deviation),
		},
		Drift: DriftJSON{
			State:        drift,
			Detected:     d.DriftDetected,
			AlertSent:    d.DriftAlertSent,
			ValidSamples: d.ValidSamples,
		},
		Calibration: CalibrationJSON{
			Phase: phase,
			Taken: snap.Calibration.Taken,
			Want:  snap.Calibration.Want,
		},
		Actuators: ActuatorsJSON{
			ServoAngle:  a.ServoAngle,
			TargetAngle: a.TargetAngle,
			PumpEnabled: a.PumpEnabled,
			PumpActive:  a.PumpActive,
			StatusLED:   a.StatusLED,
			SirenA:      a.SirenA,
			SirenB:      a.SirenB,
			Buzzer:      a.Buzzer,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Queued: snap.MQTTQueued, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			FlameDetected: snap.Counts.FlameDetected,
			FlameCleared:  snap.Counts.FlameCleared,
			DriftAlerts:   snap.Counts.DriftAlerts,
			Calibrations:  snap.Counts.Calibrations,
		},
		Config: ConfigJSON{
			PollMs:       snap.Config.PollMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			DriftCheckMs: snap.Config.DriftCheckMs,
			Broker:       snap.Config.Broker,
			HTTPPort:     snap.Config.HTTPPort,
			WSBroker:     snap.Config.WSBroker,
			SerialPort:   snap.Config.SerialPort,
			SerialMode:   snap.Config.SerialMode,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// Build returns the status document for snap.
func Build(snap Snapshot) StatusJSON {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	return StatusJSON{Status: inner}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(Build(snap), "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	doc := Build(snap)
	doc.Status.ID = newID()
	doc.Status.Event = event
	doc.Status.Reason = reason

	data, _ := json.Marshal(doc)
	return data
}
