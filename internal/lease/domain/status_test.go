package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsPtr(s string) *time.Time {
	t := ts(s)
	return &t
}

func TestResolveStatusDeterministic(t *testing.T) {
	lease := Lease{
		LeaseType: LeaseTypeFixedTerm,
		StartAt:   ts("2025-01-01T00:00:00Z"),
		EndAt:     tsPtr("2025-12-31T00:00:00Z"),
		Status:    LeaseStatusActive,
	}
	now := ts("2025-06-15T12:00:00Z")

	first := ResolveStatus(lease, now)
	second := ResolveStatus(lease, now)
	assert.Equal(t, first, second)
	assert.Equal(t, LeaseStatusActive, first)
}

func TestResolveStatusFixedTermExpiry(t *testing.T) {
	end := ts("2025-06-30T00:00:00Z")
	lease := Lease{
		LeaseType: LeaseTypeFixedTerm,
		StartAt:   ts("2025-01-01T00:00:00Z"),
		EndAt:     &end,
	}

	assert.Equal(t, LeaseStatusActive, ResolveStatus(lease, end.Add(-time.Second)))
	assert.Equal(t, LeaseStatusExpired, ResolveStatus(lease, end.Add(time.Second)))
}

func TestResolveStatusPendingBeforeStart(t *testing.T) {
	lease := Lease{
		LeaseType: LeaseTypeMonthly,
		StartAt:   ts("2025-09-01T00:00:00Z"),
	}
	assert.Equal(t, LeaseStatusPending, ResolveStatus(lease, ts("2025-08-31T23:59:59Z")))
	assert.Equal(t, LeaseStatusActive, ResolveStatus(lease, ts("2025-09-01T00:00:01Z")))
}

func TestMonthlyLeaseNeverDateExpires(t *testing.T) {
	lease := Lease{
		LeaseType: LeaseTypeMonthly,
		StartAt:   ts("2020-01-01T00:00:00Z"),
		EndAt:     tsPtr("2020-06-30T00:00:00Z"),
	}

	// Years past the recorded end date, still active until terminated.
	assert.Equal(t, LeaseStatusActive, ResolveStatus(lease, ts("2025-01-01T00:00:00Z")))

	lease.Status = LeaseStatusTerminated
	assert.Equal(t, LeaseStatusTerminated, ResolveStatus(lease, ts("2025-01-01T00:00:00Z")))
}

func TestTerminatedIsTerminal(t *testing.T) {
	lease := Lease{
		LeaseType: LeaseTypeFixedTerm,
		Status:    LeaseStatusTerminated,
		StartAt:   ts("2026-01-01T00:00:00Z"), // would otherwise resolve PENDING
		EndAt:     tsPtr("2026-12-31T00:00:00Z"),
	}
	assert.Equal(t, LeaseStatusTerminated, ResolveStatus(lease, ts("2025-01-01T00:00:00Z")))
}

func TestExpiringSoonWindow(t *testing.T) {
	end := ts("2025-08-01T00:00:00Z")
	lease := Lease{
		LeaseType: LeaseTypeFixedTerm,
		StartAt:   ts("2024-08-01T00:00:00Z"),
		EndAt:     &end,
	}

	assert.False(t, ExpiringSoon(lease, ts("2025-05-01T00:00:00Z"), 60), "91 days out is not soon")
	assert.True(t, ExpiringSoon(lease, ts("2025-06-15T00:00:00Z"), 60))
	assert.True(t, ExpiringSoon(lease, end.Add(-time.Hour), 60))
	assert.False(t, ExpiringSoon(lease, end.Add(time.Hour), 60), "already expired")

	monthly := Lease{LeaseType: LeaseTypeMonthly, StartAt: ts("2024-08-01T00:00:00Z")}
	assert.False(t, ExpiringSoon(monthly, ts("2025-06-15T00:00:00Z"), 60), "no end date")
}
