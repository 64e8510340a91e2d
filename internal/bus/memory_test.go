package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

type fakeConn struct {
	mu     sync.Mutex
	events []Envelope
	err    error
}

func (c *fakeConn) Send(ev Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) take() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

func TestHubDeliversToRoomSubscribers(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{}
	b := &fakeConn{}
	other := &fakeConn{}
	defer hub.Subscribe("room-1", a)()
	defer hub.Subscribe("room-1", b)()
	defer hub.Subscribe("room-2", other)()

	ev := NewPeerMoved("+251911000111", 9.03, 38.74, 0, 50)
	hub.Publish("room-1", ev)

	require.Len(t, a.take(), 1)
	require.Len(t, b.take(), 1)
	assert.Empty(t, other.take())
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{}
	b := &fakeConn{}
	cancelA := hub.Subscribe("room-1", a)
	defer hub.Subscribe("room-1", b)()

	cancelA()
	hub.Publish("room-1", NewSOSAlert("Abebe", "+251911000111", 9.03, 38.74, testTime()))

	assert.Empty(t, a.take())
	assert.Len(t, b.take(), 1)
}

func TestHubPublishEmptyRoom(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Publish("nobody-here", NewLostModeCommand("", false))
}

func TestHubDeadConnectionDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	dead := &fakeConn{err: errors.New("connection reset")}
	live := &fakeConn{}
	defer hub.Subscribe("room-1", dead)()
	defer hub.Subscribe("room-1", live)()

	hub.Publish("room-1", NewPeerMoved("+251911000111", 9.03, 38.74, 0, 50))

	assert.Len(t, live.take(), 1)
}
