package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/flame-sensor/internal/logic"
)

const (
	publishTimeout  = 5 * time.Second
	backlogCapacity = 100
)

// client is the part of paho.Client the publisher uses.
type client interface {
	Connect() paho.Token
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker.
// Connection is made in the background and retried forever; messages
// published while disconnected are buffered and replayed on connect.
type RealPublisher struct {
	client client
	now    func() time.Time

	mu        sync.Mutex
	backlog   *backlog
	connected bool // true once the first connection has been made
	live      bool // false until onConnect has drained the backlog
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting. It never blocks on the broker.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{
		now:     time.Now,
		backlog: newBacklog(backlogCapacity),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: p.now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// onConnect replays buffered messages, announcing a RECONNECTED event first
// on every connection after the initial one. Messages published while the
// replay runs join the backlog, so nothing overtakes it.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	p.live = false
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected")
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		if err == nil {
			if err := p.deliver(pendingMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
				log.Printf("mqtt: announce reconnect: %v", err)
			}
		}
	} else {
		log.Printf("mqtt: connected")
	}

	for {
		p.mu.Lock()
		pending, dropped := p.backlog.drain()
		if len(pending) == 0 {
			p.live = true
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		log.Printf("mqtt: replaying %d buffered messages (%d dropped)", len(pending), dropped)
		for _, msg := range pending {
			if err := p.deliver(msg); err != nil {
				log.Printf("mqtt: replay failed: %v", err)
			}
		}
	}
}

func (p *RealPublisher) onConnectionLost(err error) {
	log.Printf("mqtt: connection lost: %v", err)
	p.mu.Lock()
	p.live = false
	p.mu.Unlock()
}

// send publishes msg now, or buffers it if the connection is down or a
// replay is still running.
func (p *RealPublisher) send(msg pendingMsg) error {
	p.mu.Lock()
	if !p.live || !p.client.IsConnectionOpen() {
		p.backlog.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.deliver(msg)
}

func (p *RealPublisher) deliver(msg pendingMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a flame event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1: flame events matter even if late.
	return p.send(pendingMsg{topic: Topic, payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlog.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
