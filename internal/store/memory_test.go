package store

import (
	"context"
	"testing"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T, phone string) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	err := s.Upsert(context.Background(), &models.Identity{
		PhoneNumber: phone,
		FullName:    "Abebe",
		Status:      models.StatusSafe,
	})
	require.NoError(t, err)
	return s
}

func TestUpdateLocationDiscardsOlderSample(t *testing.T) {
	s := newSeededStore(t, "+251911000111")
	ctx := context.Background()

	newer := time.Now()
	older := newer.Add(-time.Minute)

	applied, err := s.UpdateLocation(ctx, "+251911000111", models.Location{Lat: 9.05, ObservedAt: &newer}, 60)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.UpdateLocation(ctx, "+251911000111", models.Location{Lat: 9.01, ObservedAt: &older}, 90)
	require.NoError(t, err)
	assert.False(t, applied)

	identity, err := s.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	assert.Equal(t, 9.05, identity.Location.Lat)
	assert.Equal(t, 60, identity.BatteryLevel)
}

func TestUpdateLocationEqualTimestampWins(t *testing.T) {
	s := newSeededStore(t, "+251911000111")
	ctx := context.Background()

	at := time.Now()
	_, err := s.UpdateLocation(ctx, "+251911000111", models.Location{Lat: 9.05, ObservedAt: &at}, 60)
	require.NoError(t, err)

	// Same observed_at: last write wins, matching the SQL guard's <=.
	applied, err := s.UpdateLocation(ctx, "+251911000111", models.Location{Lat: 9.06, ObservedAt: &at}, 59)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestAddCircleMemberIdempotent(t *testing.T) {
	s := newSeededStore(t, "+251911000111")
	ctx := context.Background()

	require.NoError(t, s.AddCircleMember(ctx, "+251911000111", "+251922000222"))
	require.NoError(t, s.AddCircleMember(ctx, "+251911000111", "+251922000222"))

	identity, err := s.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	assert.Len(t, identity.Circle, 1)
}

func TestFindByPhoneNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.FindByPhone(context.Background(), "+251999999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByInviteCodeIgnoresEmpty(t *testing.T) {
	s := newSeededStore(t, "+251911000111")
	// No code set; an empty lookup must not match the blank field.
	_, err := s.FindByInviteCode(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFailFlagsSimulateDegradation(t *testing.T) {
	s := newSeededStore(t, "+251911000111")
	ctx := context.Background()
	s.FailReads = true
	s.FailWrites = true

	_, err := s.FindByPhone(ctx, "+251911000111")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = s.MarkSOS(ctx, "+251911000111")
	assert.Error(t, err)
}

func TestFindByPhoneReturnsCopy(t *testing.T) {
	s := newSeededStore(t, "+251911000111")
	ctx := context.Background()
	require.NoError(t, s.AddCircleMember(ctx, "+251911000111", "+251922000222"))

	first, err := s.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	first.Circle[0] = "tampered"
	first.Status = models.StatusSOS

	second, err := s.FindByPhone(ctx, "+251911000111")
	require.NoError(t, err)
	assert.Equal(t, "+251922000222", second.Circle[0])
	assert.Equal(t, models.StatusSafe, second.Status)
}
