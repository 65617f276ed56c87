package domain

import "time"

// DisplayStatus is the product-facing subscription state derived from the
// replica fields. It is never stored; Derive recomputes it on every read.
type DisplayStatus string

const (
	StatusActive       DisplayStatus = "ACTIVE"
	StatusNonRenewing  DisplayStatus = "NON_RENEWING"
	StatusAttention    DisplayStatus = "ATTENTION"
	StatusCancelled    DisplayStatus = "CANCELLED"
	StatusCompleted    DisplayStatus = "COMPLETED"
	StatusTrialActive  DisplayStatus = "TRIAL_ACTIVE"
	StatusTrialExpired DisplayStatus = "TRIAL_EXPIRED"
	StatusUnknown      DisplayStatus = "UNKNOWN"
)

// Raw Paystack subscription statuses.
const (
	providerActive      = "active"
	providerNonRenewing = "non-renewing"
	providerAttention   = "attention"
	providerCancelled   = "cancelled"
	providerCompleted   = "completed"
)

// Derivation is the result of interpreting a landlord's replica fields.
type Derivation struct {
	Status          DisplayStatus
	DaysLeftInTrial int
}

// Derive computes the display status at a point in time. A landlord with no
// subscription code is on trial; with one, the raw provider status decides.
// "attention" wins over everything else because it means the provider could
// not collect payment. An unrecognised provider status fails closed: the
// caller gets UNKNOWN alongside ErrUnknownProviderStatus and access is
// denied until the replica is resynced.
func Derive(landlord Landlord, now time.Time) (Derivation, error) {
	if landlord.PaystackSubscriptionCode == nil || *landlord.PaystackSubscriptionCode == "" {
		if landlord.TrialExpiresAt != nil && now.Before(*landlord.TrialExpiresAt) {
			return Derivation{
				Status:          StatusTrialActive,
				DaysLeftInTrial: daysLeft(*landlord.TrialExpiresAt, now),
			}, nil
		}
		return Derivation{Status: StatusTrialExpired}, nil
	}

	status := ""
	if landlord.ProviderStatus != nil {
		status = *landlord.ProviderStatus
	}
	switch status {
	case providerAttention:
		return Derivation{Status: StatusAttention}, nil
	case providerActive:
		return Derivation{Status: StatusActive}, nil
	case providerNonRenewing:
		return Derivation{Status: StatusNonRenewing}, nil
	case providerCancelled:
		return Derivation{Status: StatusCancelled}, nil
	case providerCompleted:
		return Derivation{Status: StatusCompleted}, nil
	default:
		return Derivation{Status: StatusUnknown}, ErrUnknownProviderStatus
	}
}

// GrantsAccess reports whether the status lets the landlord use the product.
func GrantsAccess(status DisplayStatus) bool {
	switch status {
	case StatusActive, StatusNonRenewing, StatusTrialActive:
		return true
	default:
		return false
	}
}

// daysLeft rounds the remaining trial time up to whole days, so a trial
// expiring in one second still reads as 1 day left.
func daysLeft(expiresAt, now time.Time) int {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
