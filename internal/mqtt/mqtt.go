// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/flame-sensor/internal/logic"
)

// Topic is the MQTT topic for flame events.
const Topic = "safety/flame/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "safety/flame/sensor/system"

// newID generates message ids. Tests replace it for stable output.
var newID = uuid.NewString

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a flame event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active and how
// many messages are waiting for it.
type ConnectionStatus interface {
	IsConnected() bool
	Buffered() int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Flame FlamePayload `json:"flame"`
}

// FlamePayload contains the flame event details.
type FlamePayload struct {
	ID         string        `json:"id"`
	Timestamp  string        `json:"timestamp"`
	Event      string        `json:"event"`
	Angle      *float64      `json:"angle,omitempty"`
	Confidence *float64      `json:"confidence,omitempty"`
	Pattern    string        `json:"pattern"`
	Baselines  ChannelInts   `json:"baselines"`
	Ambient    ChannelFloats `json:"ambient"`
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

// FormatPayload creates the JSON payload for a flame event.
// Angle and confidence are only present on FLAME_DETECTED.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := FlamePayload{
		ID:        newID(),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Pattern:   event.Pattern.String(),
		Baselines: ChannelInts{
			Right:  event.Baselines[logic.Right],
			Left:   event.Baselines[logic.Left],
			Middle: event.Baselines[logic.Middle],
		},
		Ambient: ChannelFloats{
			Right:  event.Ambient[logic.Right],
			Left:   event.Ambient[logic.Left],
			Middle: event.Ambient[logic.Middle],
		},
	}
	if event.Type == logic.EventFlameDetected {
		angle, conf := event.Angle, event.Confidence
		p.Angle = &angle
		p.Confidence = &conf
	}
	return json.Marshal(Payload{Flame: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			ID:        newID(),
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
