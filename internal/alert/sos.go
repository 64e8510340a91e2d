package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/bus"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

// Broadcaster fans an SOS out to every circle member's room. Delivery
// is synchronous and at-most-once per connected member; offline members
// are an external push-notification concern.
type Broadcaster struct {
	store store.IdentityStore
	bus   bus.Multiplexer
	now   func() time.Time
}

func NewBroadcaster(st store.IdentityStore, mux bus.Multiplexer) *Broadcaster {
	return &Broadcaster{store: st, bus: mux, now: time.Now}
}

// Trigger marks the identity SOS and alerts its circle. An empty circle
// is a no-op broadcast, not an error. A failing status write is logged
// and the fan-out proceeds anyway; the alert path stays available even
// when persistence is degraded.
func (b *Broadcaster) Trigger(ctx context.Context, phone string, lat, lng float64) error {
	identity, err := b.store.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}

	if err := b.store.MarkSOS(ctx, phone); err != nil {
		slog.Error("failed to persist SOS status", "phone", phone, "error", err)
	}

	alert := bus.NewSOSAlert(identity.FullName, phone, lat, lng, b.now())
	for _, member := range identity.Circle {
		b.bus.Publish(member, alert)
	}

	slog.Info("sos triggered", "phone", phone, "members", len(identity.Circle))
	return nil
}
