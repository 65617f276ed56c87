package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEffectiveStatus_PendingUntilDue(t *testing.T) {
	invoice := Invoice{Status: InvoiceStatusPending, DueAt: ts("2026-03-07T00:00:00Z")}

	assert.Equal(t, InvoiceStatusPending, EffectiveStatus(invoice, false, ts("2026-03-01T09:00:00Z")))
	// Due instant itself is still pending; overdue starts strictly after.
	assert.Equal(t, InvoiceStatusPending, EffectiveStatus(invoice, false, ts("2026-03-07T00:00:00Z")))
	assert.Equal(t, InvoiceStatusOverdue, EffectiveStatus(invoice, false, ts("2026-03-07T00:00:01Z")))
}

func TestEffectiveStatus_PaidIsTerminal(t *testing.T) {
	paidAt := ts("2026-03-02T10:00:00Z")
	invoice := Invoice{Status: InvoiceStatusPaid, DueAt: ts("2026-03-07T00:00:00Z"), PaidAt: &paidAt}

	// A paid invoice never degrades to overdue, no matter how far past due.
	assert.Equal(t, InvoiceStatusPaid, EffectiveStatus(invoice, false, ts("2027-01-01T00:00:00Z")))
}

func TestEffectiveStatus_PaymentOverridesStoredStatus(t *testing.T) {
	invoice := Invoice{Status: InvoiceStatusPending, DueAt: ts("2026-03-07T00:00:00Z")}

	assert.Equal(t, InvoiceStatusPaid, EffectiveStatus(invoice, true, ts("2026-04-01T00:00:00Z")))
}

func TestEffectiveStatus_StoredOverdueIsRecomputed(t *testing.T) {
	// The stored column is a cache; a stale OVERDUE row whose due date moved
	// forward reads as PENDING again.
	invoice := Invoice{Status: InvoiceStatusOverdue, DueAt: ts("2026-05-01T00:00:00Z")}

	assert.Equal(t, InvoiceStatusPending, EffectiveStatus(invoice, false, ts("2026-04-01T00:00:00Z")))
}

func TestEffectiveStatus_Deterministic(t *testing.T) {
	invoice := Invoice{Status: InvoiceStatusPending, DueAt: ts("2026-03-07T00:00:00Z")}
	now := ts("2026-03-10T00:00:00Z")

	first := EffectiveStatus(invoice, false, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EffectiveStatus(invoice, false, now))
	}
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryRent))
	assert.True(t, ValidCategory(CategoryWaterElectricity))
	assert.False(t, ValidCategory(InvoiceCategory("PARKING")))
	assert.False(t, ValidCategory(InvoiceCategory("")))
}
