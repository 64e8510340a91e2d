package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/bus"
	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

// Ping is one inbound location sample from a device.
type Ping struct {
	Lat        float64
	Lng        float64
	Speed      float64
	Battery    int
	ObservedAt time.Time
}

// Router accepts location pings, persists them asynchronously, and fans
// them out to the sender's circle. It holds no per-message state; the
// only mutable state is a last-known-circle cache that keeps fan-out
// alive while the identity store is degraded.
type Router struct {
	store   store.IdentityStore
	bus     bus.Multiplexer
	timeout time.Duration
	now     func() time.Time

	mu         sync.RWMutex
	lastCircle map[string][]string
}

func NewRouter(st store.IdentityStore, mux bus.Multiplexer, storeTimeout time.Duration) *Router {
	return &Router{
		store:      st,
		bus:        mux,
		timeout:    storeTimeout,
		now:        time.Now,
		lastCircle: make(map[string][]string),
	}
}

// Connect subscribes the connection to the identity's own room and
// returns the unsubscribe func. It also warms the circle cache.
func (r *Router) Connect(ctx context.Context, phone string, c bus.Conn) func() {
	cancel := r.bus.Subscribe(phone, c)
	if _, _, _, err := r.resolve(ctx, phone); err != nil {
		slog.Warn("presence connect with unresolved circle", "phone", phone, "error", err)
	}
	return cancel
}

// HandlePing persists the sample (fire-and-forget) and publishes a
// PeerMoved event to every circle member's room. Delivery is scoped to
// the sender's circle; nothing is ever broadcast globally. If the stored
// status is Lost, the lost-mode command is pushed back on replyTo.
func (r *Router) HandlePing(ctx context.Context, phone string, p Ping, replyTo bus.Conn) {
	if p.ObservedAt.IsZero() {
		p.ObservedAt = r.now()
	}
	p.Battery = clampBattery(p.Battery)

	go r.persist(phone, p)

	// Store degradation must not stop delivery: fall back to the last
	// successfully resolved circle and skip the lost-mode check.
	members, lost, lostCmd, err := r.resolve(ctx, phone)
	if err != nil {
		slog.Warn("circle resolution failed, using cached membership", "phone", phone, "error", err)
		members = r.cachedCircle(phone)
	}

	ev := bus.NewPeerMoved(phone, p.Lat, p.Lng, p.Speed, p.Battery)
	for _, member := range members {
		if member == phone {
			continue
		}
		r.bus.Publish(member, ev)
	}

	if lost && replyTo != nil {
		if err := replyTo.Send(lostCmd); err != nil {
			slog.Warn("lost-mode command delivery failed", "phone", phone, "error", err)
		}
	}
}

func (r *Router) persist(phone string, p Ping) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	observed := p.ObservedAt
	applied, err := r.store.UpdateLocation(ctx, phone, models.Location{
		Lat:        p.Lat,
		Lng:        p.Lng,
		Speed:      p.Speed,
		ObservedAt: &observed,
	}, p.Battery)
	if err != nil {
		// Non-fatal: the next successful ping self-heals the stored value.
		slog.Error("location persistence failed", "phone", phone, "error", err)
		return
	}
	if !applied {
		slog.Debug("stale location sample discarded", "phone", phone, "observed_at", p.ObservedAt)
	}
}

func (r *Router) resolve(ctx context.Context, phone string) ([]string, bool, bus.Envelope, error) {
	// The read gets the same deadline as persistence. A store that hangs
	// instead of erroring must degrade into the cached-membership path,
	// not wedge the caller's read loop.
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	identity, err := r.store.FindByPhone(ctx, phone)
	if err != nil {
		return nil, false, bus.Envelope{}, err
	}

	members := append([]string(nil), identity.Circle...)
	r.mu.Lock()
	r.lastCircle[phone] = members
	r.mu.Unlock()

	if identity.Status == models.StatusLost {
		return members, true, bus.NewLostModeCommand(identity.LostMessage, identity.SirenActive), nil
	}
	return members, false, bus.Envelope{}, nil
}

// clampBattery bounds a reported battery level to 0-100. Devices in the
// field have reported negative and >100 values.
func clampBattery(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

func (r *Router) cachedCircle(phone string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCircle[phone]
}
