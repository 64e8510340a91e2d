package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samuelAmenu/vbcs-backend/internal/models"
)

var (
	ErrNotVerified   = errors.New("number not in verified directory")
	ErrUnknownNumber = errors.New("number has no reports")
	ErrNumberEmpty   = errors.New("phone number is required")
)

// Lookup statuses returned to caller-ID consumers.
const (
	StatusVerified = "verified"
	StatusDanger   = "danger"
	StatusUnknown  = "unknown"
)

// VerifiedDirectory is the external lookup collaborator. A verified hit
// always overrides any spam history.
type VerifiedDirectory interface {
	FindVerifiedByNumber(ctx context.Context, number string) (string, error)
}

// ReportStore persists append-only reports and the derived aggregate.
type ReportStore interface {
	Append(ctx context.Context, report *models.SpamReport) error
	CountByNumber(ctx context.Context, number string) (int64, error)
	SaveAggregate(ctx context.Context, agg *models.SuspiciousNumber) error
	FindAggregate(ctx context.Context, number string) (*models.SuspiciousNumber, error)
}

// Classification is the lookup verdict for one number.
type Classification struct {
	Status      string `json:"status"`
	CompanyName string `json:"company_name,omitempty"`
	Tier        string `json:"tier,omitempty"`
	ReportCount int64  `json:"report_count,omitempty"`
}

// Classifier ingests spam/fraud reports and derives a graded risk tier.
// The count policy is all-time: reports never age out of the tally.
type Classifier struct {
	reports   ReportStore
	directory VerifiedDirectory
}

func New(reports ReportStore, directory VerifiedDirectory) *Classifier {
	return &Classifier{reports: reports, directory: directory}
}

// TierForCount maps an all-time report count to a risk tier.
func TierForCount(count int64) string {
	switch {
	case count >= 10:
		return models.TierBlocked
	case count >= 5:
		return models.TierSuspicious
	default:
		return models.TierWarning
	}
}

// Submit appends a report and synchronously recomputes the tier, so the
// aggregate is never more than one report stale. Duplicate reports are
// recorded as-is; rate limiting is the caller's concern.
func (c *Classifier) Submit(ctx context.Context, number, reason, comment, reporter string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return ErrNumberEmpty
	}

	report := &models.SpamReport{
		ID:             uuid.New(),
		ReportedNumber: number,
		ReporterPhone:  reporter,
		Reason:         reason,
		Comment:        comment,
	}
	if err := c.reports.Append(ctx, report); err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}

	if _, _, err := c.RecomputeTier(ctx, number); err != nil {
		return fmt.Errorf("report recorded but tier recompute failed: %w", err)
	}
	return nil
}

// RecomputeTier recounts the number's reports authoritatively and
// writes the derived aggregate. Safe to run concurrently for the same
// number: every run writes a count at least as fresh as its recount.
func (c *Classifier) RecomputeTier(ctx context.Context, number string) (int64, string, error) {
	count, err := c.reports.CountByNumber(ctx, number)
	if err != nil {
		return 0, "", fmt.Errorf("failed to count reports: %w", err)
	}

	tier := TierForCount(count)
	agg := &models.SuspiciousNumber{
		PhoneNumber: number,
		ReportCount: int(count),
		Status:      tier,
		UpdatedAt:   time.Now(),
	}
	if err := c.reports.SaveAggregate(ctx, agg); err != nil {
		return count, tier, fmt.Errorf("failed to save aggregate: %w", err)
	}
	return count, tier, nil
}

// Classify resolves a number for caller-ID display. A verified directory
// entry wins over any report history: enterprise lines get spammed by
// confused callers and must not be down-ranked.
func (c *Classifier) Classify(ctx context.Context, number string) (Classification, error) {
	name, err := c.directory.FindVerifiedByNumber(ctx, number)
	if err == nil {
		return Classification{Status: StatusVerified, CompanyName: name}, nil
	}
	if !errors.Is(err, ErrNotVerified) {
		return Classification{}, fmt.Errorf("directory lookup failed: %w", err)
	}

	agg, err := c.reports.FindAggregate(ctx, number)
	if errors.Is(err, ErrUnknownNumber) {
		return Classification{Status: StatusUnknown}, nil
	}
	if err != nil {
		return Classification{}, fmt.Errorf("aggregate lookup failed: %w", err)
	}
	return Classification{
		Status:      StatusDanger,
		Tier:        agg.Status,
		ReportCount: int64(agg.ReportCount),
	}, nil
}
