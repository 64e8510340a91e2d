package bus

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBus(t *testing.T, addr string) *RedisBus {
	t.Helper()
	b := NewRedisBus(redis.NewClient(&redis.Options{Addr: addr}))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRedisBusCrossInstanceDelivery(t *testing.T) {
	mr := miniredis.RunT(t)

	publisher := newRedisBus(t, mr.Addr())
	subscriber := newRedisBus(t, mr.Addr())

	conn := &fakeConn{}
	defer subscriber.Subscribe("+251922000222", conn)()

	publisher.Publish("+251922000222", NewPeerMoved("+251911000111", 9.03, 38.74, 1.2, 64))

	var got []Envelope
	require.Eventually(t, func() bool {
		got = append(got, conn.take()...)
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, EventPeerMoved, got[0].Type)
}

func TestRedisBusRoundTripPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	b := newRedisBus(t, mr.Addr())

	conn := &fakeConn{}
	defer b.Subscribe("+251922000222", conn)()

	b.Publish("+251922000222", NewPeerMoved("+251911000111", 9.03, 38.74, 1.2, 64))

	var got []Envelope
	require.Eventually(t, func() bool {
		got = append(got, conn.take()...)
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, EventPeerMoved, got[0].Type)
	data, ok := got[0].Data.(map[string]interface{})
	require.True(t, ok, "data crosses the wire as decoded JSON")
	assert.Equal(t, "+251911000111", data["phone"])
	assert.Equal(t, 9.03, data["lat"])
	assert.Equal(t, 38.74, data["lng"])
	assert.Equal(t, float64(64), data["battery"])
}

func TestRedisBusRoomIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	b := newRedisBus(t, mr.Addr())

	target := &fakeConn{}
	bystander := &fakeConn{}
	defer b.Subscribe("+251922000222", target)()
	defer b.Subscribe("+251933000333", bystander)()

	b.Publish("+251922000222", NewSOSAlert("Abebe", "+251911000111", 9.03, 38.74, testTime()))

	require.Eventually(t, func() bool {
		return len(target.take()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give any misrouted message time to surface.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, bystander.take())
}

func TestRedisBusFallsBackLocallyWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	b := newRedisBus(t, mr.Addr())

	conn := &fakeConn{}
	defer b.Subscribe("+251922000222", conn)()

	mr.Close()

	b.Publish("+251922000222", NewLostModeCommand("call me", true))

	// Local fallback delivery is synchronous.
	events := conn.take()
	require.Len(t, events, 1)
	assert.Equal(t, EventCommandExecute, events[0].Type)
}
