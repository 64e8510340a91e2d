package circle

import (
	"context"
	"testing"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedIdentity(t *testing.T, st *store.MemoryStore, phone, name string) {
	t.Helper()
	err := st.Upsert(context.Background(), &models.Identity{
		PhoneNumber: phone,
		FullName:    name,
		Status:      models.StatusSafe,
	})
	require.NoError(t, err)
}

func newTestDirectory(t *testing.T) (*Directory, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewDirectory(st, 50*time.Minute), st
}

func TestJoinSymmetry(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")
	seedIdentity(t, st, "+251922000222", "Liya")

	code, _, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)

	owner, err := d.Join(ctx, "+251922000222", code)
	require.NoError(t, err)
	assert.Equal(t, "+251911000111", owner.PhoneNumber)

	a, err := st.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	b, err := st.FindByPhone(ctx, "+251922000222")
	require.NoError(t, err)

	assert.True(t, a.InCircle("+251922000222"))
	assert.True(t, b.InCircle("+251911000111"))
}

func TestJoinIdempotent(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")
	seedIdentity(t, st, "+251922000222", "Liya")

	code, _, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)

	_, err = d.Join(ctx, "+251922000222", code)
	require.NoError(t, err)
	_, err = d.Join(ctx, "+251922000222", code)
	require.NoError(t, err)

	a, err := st.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	b, err := st.FindByPhone(ctx, "+251922000222")
	require.NoError(t, err)

	assert.Len(t, a.Circle, 1)
	assert.Len(t, b.Circle, 1)
}

func TestJoinCodeNotFound(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251922000222", "Liya")

	_, err := d.Join(ctx, "+251922000222", "NOPE42")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestJoinCodeExpired(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")
	seedIdentity(t, st, "+251922000222", "Liya")

	code, expiresAt, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)

	d.now = func() time.Time { return expiresAt.Add(time.Second) }

	_, err = d.Join(ctx, "+251922000222", code)
	assert.ErrorIs(t, err, ErrCodeExpired)

	// No partial state on failure
	a, err := st.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	b, err := st.FindByPhone(ctx, "+251922000222")
	require.NoError(t, err)
	assert.Empty(t, a.Circle)
	assert.Empty(t, b.Circle)
}

func TestInviteCodeIsMultiUse(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")
	seedIdentity(t, st, "+251922000222", "Liya")
	seedIdentity(t, st, "+251933000333", "Kebede")

	code, _, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)

	_, err = d.Join(ctx, "+251922000222", code)
	require.NoError(t, err)
	_, err = d.Join(ctx, "+251933000333", code)
	require.NoError(t, err)

	a, err := st.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	assert.True(t, a.InCircle("+251922000222"))
	assert.True(t, a.InCircle("+251933000333"))
}

func TestGenerateInviteOverwritesPrior(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")
	seedIdentity(t, st, "+251922000222", "Liya")

	oldCode, _, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)
	newCode, _, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)
	require.NotEqual(t, oldCode, newCode)

	_, err = d.Join(ctx, "+251922000222", oldCode)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	_, err = d.Join(ctx, "+251922000222", newCode)
	assert.NoError(t, err)
}

func TestCircleViewReturnsLastKnownState(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")
	seedIdentity(t, st, "+251922000222", "Liya")

	code, _, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)
	_, err = d.Join(ctx, "+251922000222", code)
	require.NoError(t, err)

	observed := time.Now()
	applied, err := st.UpdateLocation(ctx, "+251922000222", models.Location{
		Lat: 9.03, Lng: 38.74, Speed: 1.5, ObservedAt: &observed,
	}, 81)
	require.NoError(t, err)
	require.True(t, applied)

	views, err := d.CircleView(ctx, "+251911000111")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Liya", views[0].Name)
	assert.Equal(t, "+251922000222", views[0].Phone)
	assert.Equal(t, 9.03, views[0].Lat)
	assert.Equal(t, 38.74, views[0].Lng)
	assert.Equal(t, 81, views[0].Battery)
}

func TestReconcileRepairsAsymmetry(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")
	seedIdentity(t, st, "+251922000222", "Liya")

	// Simulate a half-applied join: A lists B, B does not list A back.
	require.NoError(t, st.AddCircleMember(ctx, "+251911000111", "+251922000222"))

	repaired, err := d.Reconcile(ctx, "+251911000111")
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	b, err := st.FindByPhone(ctx, "+251922000222")
	require.NoError(t, err)
	assert.True(t, b.InCircle("+251911000111"))

	// Second run finds nothing to fix.
	repaired, err = d.Reconcile(ctx, "+251911000111")
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestJoinOwnCodeIsNoOp(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()
	seedIdentity(t, st, "+251911000111", "Abebe")

	code, _, err := d.GenerateInvite(ctx, "+251911000111")
	require.NoError(t, err)

	_, err = d.Join(ctx, "+251911000111", code)
	require.NoError(t, err)

	a, err := st.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	assert.Empty(t, a.Circle)
}
