package domain

import "time"

// ResolveStatus derives the effective lease status at a point in time.
// Termination is terminal and never recomputed; a lease that has not started
// is PENDING; a fixed-term lease past its end date is EXPIRED; everything
// else is ACTIVE. Monthly leases never expire by date.
func ResolveStatus(lease Lease, now time.Time) LeaseStatus {
	if lease.Status == LeaseStatusTerminated {
		return LeaseStatusTerminated
	}
	if lease.StartAt.After(now) {
		return LeaseStatusPending
	}
	if lease.LeaseType == LeaseTypeFixedTerm && lease.EndAt != nil && lease.EndAt.Before(now) {
		return LeaseStatusExpired
	}
	return LeaseStatusActive
}

// ExpiringSoon reports whether an active lease ends within windowDays.
// It is a derived flag for warnings, not a status value.
func ExpiringSoon(lease Lease, now time.Time, windowDays int) bool {
	if lease.EndAt == nil || windowDays <= 0 {
		return false
	}
	if ResolveStatus(lease, now) != LeaseStatusActive {
		return false
	}
	remaining := lease.EndAt.Sub(now)
	if remaining <= 0 {
		return false
	}
	return remaining <= time.Duration(windowDays)*24*time.Hour
}
