package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

var ErrSOSActive = errors.New("sos is active; resolve it first")

// Controller drives the per-identity Safe/Lost/SOS state machine.
// Every transition is owner-driven; nothing is auto-timed and the
// machine cycles for the lifetime of the device.
type Controller struct {
	store store.IdentityStore
}

func NewController(st store.IdentityStore) *Controller {
	return &Controller{store: st}
}

// ToggleLostMode flips Safe->Lost (with the recovery message and siren
// config) or Lost->Safe. Activating lost mode during an SOS is rejected;
// the SOS must be resolved explicitly.
func (c *Controller) ToggleLostMode(ctx context.Context, phone string, active bool, message string, siren bool) error {
	identity, err := c.store.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}

	if !active {
		return c.store.ClearStatus(ctx, phone)
	}
	if identity.Status == models.StatusSOS {
		return ErrSOSActive
	}
	if err := c.store.SetLostMode(ctx, phone, message, siren); err != nil {
		return fmt.Errorf("failed to activate lost mode: %w", err)
	}
	return nil
}

// Resolve returns the identity to Safe from any state. Any authenticated
// owner action may clear an SOS.
func (c *Controller) Resolve(ctx context.Context, phone string) error {
	return c.store.ClearStatus(ctx, phone)
}
