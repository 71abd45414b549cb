package mqtt

import "log"

// pendingMsg is a serialized message waiting for the broker.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog queues messages published while disconnected, oldest first, up
// to a fixed capacity. When full, the oldest message is dropped.
//
// A retained message replaces any retained message already queued for the
// same topic. The broker keeps only the last one per topic.
//
// Not safe for concurrent use; RealPublisher holds its mutex around every call.
type backlog struct {
	msgs     []pendingMsg
	capacity int
	dropped  int // since last drain
}

func newBacklog(capacity int) *backlog {
	return &backlog{
		msgs:     make([]pendingMsg, 0, capacity),
		capacity: capacity,
	}
}

func (b *backlog) push(msg pendingMsg) {
	if msg.retained {
		for i, m := range b.msgs {
			if m.retained && m.topic == msg.topic {
				b.msgs = append(b.msgs[:i], b.msgs[i+1:]...)
				break
			}
		}
	}

	if b.capacity <= 0 {
		b.dropped++
		return
	}
	if len(b.msgs) == b.capacity {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.capacity)
		}
		b.dropped++
		b.msgs = append(b.msgs[:0], b.msgs[1:]...)
	}
	b.msgs = append(b.msgs, msg)
}

// drain empties the backlog. It returns the queued messages oldest first
// and how many were dropped since the previous drain.
func (b *backlog) drain() ([]pendingMsg, int) {
	dropped := b.dropped
	b.dropped = 0
	if len(b.msgs) == 0 {
		return nil, dropped
	}

	out := b.msgs
	b.msgs = make([]pendingMsg, 0, b.capacity)
	return out, dropped
}

func (b *backlog) len() int {
	return len(b.msgs)
}
