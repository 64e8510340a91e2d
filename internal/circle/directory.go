package circle

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

var (
	ErrCodeNotFound = errors.New("invite code not found")
	ErrCodeExpired  = errors.New("invite code expired")
)

// Codes avoid 0/O and 1/I to survive being read out loud over a call.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

// MemberView is one circle member's last published state, served
// without any live round-trip to the member's device.
type MemberView struct {
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Battery   int     `json:"battery"`
	AvatarURL string  `json:"avatar_url,omitempty"`
}

// Directory manages mutual circle membership: invite issuance and
// consumption, bidirectional linking, and asymmetry repair.
type Directory struct {
	store store.IdentityStore
	ttl   time.Duration
	now   func() time.Time
}

func NewDirectory(st store.IdentityStore, ttl time.Duration) *Directory {
	return &Directory{store: st, ttl: ttl, now: time.Now}
}

// GenerateInvite issues a fresh code for the identity, overwriting any
// prior one. Codes stay valid until expiry and may be consumed by
// multiple joiners (family-code model).
func (d *Directory) GenerateInvite(ctx context.Context, phone string) (string, time.Time, error) {
	if _, err := d.store.FindByPhone(ctx, phone); err != nil {
		return "", time.Time{}, err
	}

	code, err := randomCode()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate invite code: %w", err)
	}

	expiresAt := d.now().Add(d.ttl)
	if err := d.store.SetInvite(ctx, phone, code, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store invite code: %w", err)
	}
	return code, expiresAt, nil
}

// Join consumes an invite code and links requester and code owner into
// each other's circles. Expired or unknown codes fail without mutation;
// re-joining an existing member is a no-op.
func (d *Directory) Join(ctx context.Context, requester, code string) (*models.Identity, error) {
	owner, err := d.store.FindByInviteCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner.InviteCodeExpiry == nil || d.now().After(*owner.InviteCodeExpiry) {
		return nil, ErrCodeExpired
	}
	if owner.PhoneNumber == requester {
		return owner, nil
	}

	// Both halves of the link must land; write in deterministic order so
	// a partial failure is always the same half and Reconcile can finish it.
	first, second := orderPair(requester, owner.PhoneNumber)
	if err := d.store.AddCircleMember(ctx, first, other(first, requester, owner.PhoneNumber)); err != nil {
		return nil, fmt.Errorf("circle join failed: %w", err)
	}
	if err := d.store.AddCircleMember(ctx, second, other(second, requester, owner.PhoneNumber)); err != nil {
		return nil, fmt.Errorf("circle join half-applied, reconcile pending: %w", err)
	}
	return owner, nil
}

// CircleView returns the last known state of every circle member.
func (d *Directory) CircleView(ctx context.Context, phone string) ([]MemberView, error) {
	identity, err := d.store.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	views := make([]MemberView, 0, len(identity.Circle))
	for _, member := range identity.Circle {
		m, err := d.store.FindByPhone(ctx, member)
		if err != nil {
			slog.Warn("circle member unreadable", "phone", phone, "member", member, "error", err)
			continue
		}
		views = append(views, MemberView{
			Name:      m.FullName,
			Phone:     m.PhoneNumber,
			Lat:       m.Location.Lat,
			Lng:       m.Location.Lng,
			Battery:   m.BatteryLevel,
			AvatarURL: m.AvatarURL,
		})
	}
	return views, nil
}

// Members returns the phone numbers in the identity's circle.
func (d *Directory) Members(ctx context.Context, phone string) ([]string, error) {
	identity, err := d.store.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return identity.Circle, nil
}

// Reconcile repairs asymmetric membership: every member listed by phone
// that does not list phone back gets the missing half re-applied.
// Returns the number of repaired links.
func (d *Directory) Reconcile(ctx context.Context, phone string) (int, error) {
	identity, err := d.store.FindByPhone(ctx, phone)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, member := range identity.Circle {
		m, err := d.store.FindByPhone(ctx, member)
		if err != nil {
			slog.Warn("reconcile skipped unreadable member", "phone", phone, "member", member, "error", err)
			continue
		}
		if m.InCircle(phone) {
			continue
		}
		if err := d.store.AddCircleMember(ctx, member, phone); err != nil {
			return repaired, fmt.Errorf("reconcile failed for %s: %w", member, err)
		}
		repaired++
	}
	return repaired, nil
}

func orderPair(a, b string) (string, string) {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0], pair[1]
}

func other(of, a, b string) string {
	if of == a {
		return b
	}
	return a
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}
