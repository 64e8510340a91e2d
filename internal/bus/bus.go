package bus

// Conn is a single live client connection capable of receiving events.
// Implementations must be safe for concurrent Send calls.
type Conn interface {
	Send(ev Envelope) error
}

// Multiplexer groups live connections into per-identity "rooms" and
// delivers events to every connection in a room. Delivery is best-effort
// and at-most-once; offline members are an external push concern.
type Multiplexer interface {
	// Subscribe adds c to the room and returns a cancel func that
	// removes it again.
	Subscribe(room string, c Conn) (cancel func())

	// Publish delivers ev to every connection currently in the room.
	Publish(room string, ev Envelope)
}
