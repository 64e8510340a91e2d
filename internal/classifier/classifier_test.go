package classifier

import (
	"context"
	"sync"
	"testing"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memReports struct {
	mu   sync.Mutex
	rows []*models.SpamReport
	aggs map[string]*models.SuspiciousNumber
}

func newMemReports() *memReports {
	return &memReports{aggs: make(map[string]*models.SuspiciousNumber)}
}

func (m *memReports) Append(_ context.Context, report *models.SpamReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, report)
	return nil
}

func (m *memReports) CountByNumber(_ context.Context, number string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.ReportedNumber == number {
			n++
		}
	}
	return n, nil
}

func (m *memReports) SaveAggregate(_ context.Context, agg *models.SuspiciousNumber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggs[agg.PhoneNumber] = agg
	return nil
}

func (m *memReports) FindAggregate(_ context.Context, number string) (*models.SuspiciousNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.aggs[number]
	if !ok {
		return nil, ErrUnknownNumber
	}
	return agg, nil
}

type fakeDirectory struct {
	verified map[string]string
}

func (d *fakeDirectory) FindVerifiedByNumber(_ context.Context, number string) (string, error) {
	if name, ok := d.verified[number]; ok {
		return name, nil
	}
	return "", ErrNotVerified
}

func newTestClassifier(verified map[string]string) (*Classifier, *memReports) {
	reports := newMemReports()
	return New(reports, &fakeDirectory{verified: verified}), reports
}

func submitN(t *testing.T, c *Classifier, number string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Submit(context.Background(), number, "scam_call", "", "+251900000001"))
	}
}

func TestTierForCountBoundaries(t *testing.T) {
	assert.Equal(t, models.TierWarning, TierForCount(0))
	assert.Equal(t, models.TierWarning, TierForCount(4))
	assert.Equal(t, models.TierSuspicious, TierForCount(5))
	assert.Equal(t, models.TierSuspicious, TierForCount(9))
	assert.Equal(t, models.TierBlocked, TierForCount(10))
	assert.Equal(t, models.TierBlocked, TierForCount(250))
}

func TestSubmitRecomputesAggregate(t *testing.T) {
	c, reports := newTestClassifier(nil)
	ctx := context.Background()

	submitN(t, c, "+251800111222", 5)

	agg, err := reports.FindAggregate(ctx, "+251800111222")
	require.NoError(t, err)
	assert.Equal(t, 5, agg.ReportCount)
	assert.Equal(t, models.TierSuspicious, agg.Status)
}

func TestTierNeverDecreases(t *testing.T) {
	c, _ := newTestClassifier(nil)
	ctx := context.Background()

	rank := map[string]int{models.TierWarning: 0, models.TierSuspicious: 1, models.TierBlocked: 2}
	prev := -1
	for i := 1; i <= 12; i++ {
		require.NoError(t, c.Submit(ctx, "+251800111222", "spam_sms", "", ""))
		result, err := c.Classify(ctx, "+251800111222")
		require.NoError(t, err)
		require.Equal(t, StatusDanger, result.Status)
		require.GreaterOrEqual(t, rank[result.Tier], prev, "after %d reports", i)
		prev = rank[result.Tier]
	}

	result, err := c.Classify(ctx, "+251800111222")
	require.NoError(t, err)
	assert.Equal(t, models.TierBlocked, result.Tier)
	assert.Equal(t, int64(12), result.ReportCount)
}

func TestVerifiedOverridesSpamHistory(t *testing.T) {
	c, _ := newTestClassifier(map[string]string{"+251800111222": "Awash Bank"})
	ctx := context.Background()

	submitN(t, c, "+251800111222", 12)

	result, err := c.Classify(ctx, "+251800111222")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, result.Status)
	assert.Equal(t, "Awash Bank", result.CompanyName)
	assert.Empty(t, result.Tier)
}

func TestClassifyUnknownNumber(t *testing.T) {
	c, _ := newTestClassifier(nil)

	result, err := c.Classify(context.Background(), "+251800999888")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, result.Status)
}

func TestSubmitRejectsEmptyNumber(t *testing.T) {
	c, _ := newTestClassifier(nil)
	err := c.Submit(context.Background(), "   ", "scam_call", "", "")
	assert.ErrorIs(t, err, ErrNumberEmpty)
}

func TestDuplicateReportsAllCount(t *testing.T) {
	c, reports := newTestClassifier(nil)
	ctx := context.Background()

	require.NoError(t, c.Submit(ctx, "+251800111222", "scam_call", "asked for OTP", "+251911000111"))
	require.NoError(t, c.Submit(ctx, "+251800111222", "scam_call", "asked for OTP", "+251911000111"))

	count, err := reports.CountByNumber(ctx, "+251800111222")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRecomputeTierIsAuthoritative(t *testing.T) {
	c, reports := newTestClassifier(nil)
	ctx := context.Background()

	submitN(t, c, "+251800111222", 3)

	// A drifted aggregate gets corrected by the recount.
	require.NoError(t, reports.SaveAggregate(ctx, &models.SuspiciousNumber{
		PhoneNumber: "+251800111222",
		ReportCount: 99,
		Status:      models.TierBlocked,
	}))

	count, tier, err := c.RecomputeTier(ctx, "+251800111222")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, models.TierWarning, tier)

	agg, err := reports.FindAggregate(ctx, "+251800111222")
	require.NoError(t, err)
	assert.Equal(t, 3, agg.ReportCount)
}
