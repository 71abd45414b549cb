package mqtt

import (
	"github.com/sweeney/flame-sensor/internal/logic"
)

// Message is one publish as the broker would see it.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records what would have been sent to the broker. Events
// and SystemEvents keep the values passed in; Messages keeps the wire
// form in publish order across both topics.
type FakePublisher struct {
	Events       []logic.Event
	SystemEvents []SystemEvent
	Messages     []Message

	// PublishError and PublishSystemError, if set, fail the call and
	// nothing is recorded.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool // returned by IsConnected
	Queued    int  // returned by Buffered
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish formats and records a flame event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Messages = append(f.Messages, Message{Topic: Topic, Payload: payload})
	return nil
}

// PublishSystem formats and records a lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.Messages = append(f.Messages, Message{Topic: TopicSystem, Payload: payload, Retained: event.Retained})
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

func (f *FakePublisher) Buffered() int {
	return f.Queued
}

// Payloads returns the payloads sent to topic, in order.
func (f *FakePublisher) Payloads(topic string) [][]byte {
	var out [][]byte
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m.Payload)
		}
	}
	return out
}

// EventsOfType returns the recorded flame events of one type, in order.
func (f *FakePublisher) EventsOfType(typ logic.EventType) []logic.Event {
	var out []logic.Event
	for _, e := range f.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// SystemEventNames returns the Event field of every recorded system event.
func (f *FakePublisher) SystemEventNames() []string {
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}

// Reset clears everything recorded and all injected failures.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
