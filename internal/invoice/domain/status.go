package domain

import "time"

// EffectiveStatus derives an invoice's status at read time. PAID is terminal:
// once a payment is recorded or the invoice was marked paid, the due date no
// longer matters. Otherwise the invoice is OVERDUE strictly after its due
// date and PENDING up to and including it.
func EffectiveStatus(invoice Invoice, hasPayment bool, now time.Time) InvoiceStatus {
	if invoice.Status == InvoiceStatusPaid || hasPayment {
		return InvoiceStatusPaid
	}
	if now.After(invoice.DueAt) {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusPending
}
