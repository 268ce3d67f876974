package mqtt

// bufferedMsg is a serialized MQTT message waiting for a connection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// snapshot reports whether msg is a retained QoS 0 value that a later
// message on the same topic makes obsolete.
func (m bufferedMsg) snapshot() bool {
	return m.retained && m.qos == 0
}

// outbox holds messages in publish order while the broker is unreachable.
// A new snapshot replaces the waiting snapshot on its topic, so a long
// outage spends one slot on the state topic instead of one per tick.
// Past capacity the oldest message is dropped.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropping bool // a message was dropped since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

// push queues msg. It reports true on the first drop after a drain, so
// callers warn once per outage.
func (o *outbox) push(msg bufferedMsg) bool {
	if msg.snapshot() {
		o.remove(msg.topic)
	}

	o.msgs = append(o.msgs, msg)
	if len(o.msgs) <= o.capacity {
		return false
	}

	o.msgs = append(o.msgs[:0], o.msgs[1:]...)

	first := !o.dropping
	o.dropping = true

	return first
}

// remove drops the waiting snapshot on topic, if any.
func (o *outbox) remove(topic string) {
	for i, m := range o.msgs {
		if m.topic == topic && m.snapshot() {
			o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
			return
		}
	}
}

// drainAll returns the queued messages oldest first and empties the outbox.
func (o *outbox) drainAll() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}

	out := make([]bufferedMsg, len(o.msgs))
	copy(out, o.msgs)

	o.msgs = o.msgs[:0]
	o.dropping = false

	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
