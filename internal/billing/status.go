package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/validation"
)

// paidEpsilon absorbs rounding noise when comparing payments to the total.
var paidEpsilon = decimal.New(5, -3)

// transitions lists the allowed next states for each non terminal status.
var transitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft: {
		models.InvoiceStatusSent,
		models.InvoiceStatusCancelled,
	},
	models.InvoiceStatusSent: {
		models.InvoiceStatusPaid,
		models.InvoiceStatusPartiallyPaid,
		models.InvoiceStatusOverdue,
		models.InvoiceStatusCancelled,
	},
	models.InvoiceStatusPartiallyPaid: {
		models.InvoiceStatusPaid,
		models.InvoiceStatusOverdue,
		models.InvoiceStatusCancelled,
	},
	models.InvoiceStatusOverdue: {
		models.InvoiceStatusPaid,
		models.InvoiceStatusPartiallyPaid,
		models.InvoiceStatusCancelled,
	},
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.InvoiceStatus) bool {
	return s == models.InvoiceStatusPaid || s == models.InvoiceStatusCancelled
}

// ValidateStatusTransition returns a *TransitionError when current may not
// move to next. Unknown statuses are validation errors.
func ValidateStatusTransition(current, next models.InvoiceStatus) error {
	v := validation.Violations{}
	if !current.Valid() {
		v["current_status"] = "invalid_choice"
	}
	if !next.Valid() {
		v["status"] = "invalid_choice"
	}
	if err := Invalid(v); err != nil {
		return err
	}
	for _, allowed := range transitions[current] {
		if allowed == next {
			return nil
		}
	}
	return &TransitionError{From: current, To: next}
}

// AllowedTransitions returns the statuses reachable from s in one step.
func AllowedTransitions(s models.InvoiceStatus) []models.InvoiceStatus {
	next := transitions[s]
	out := make([]models.InvoiceStatus, len(next))
	copy(out, next)
	return out
}

// DeriveStatus suggests the status inv should read given its payments.
// It never overrides DRAFT, CANCELLED or PAID, which only change on an
// explicit user action. A sent invoice with nothing owed reads PAID. The
// result is advisory and is not persisted here.
func DeriveStatus(inv models.Invoice, payments []models.Payment, now time.Time) models.InvoiceStatus {
	switch inv.Status {
	case models.InvoiceStatusDraft, models.InvoiceStatusCancelled, models.InvoiceStatusPaid:
		return inv.Status
	}
	if !inv.Total.IsPositive() {
		return models.InvoiceStatusPaid
	}

	paid := SumPayments(payments)
	if paid.IsPositive() {
		if paid.GreaterThanOrEqual(inv.Total.Sub(paidEpsilon)) {
			return models.InvoiceStatusPaid
		}
		return models.InvoiceStatusPartiallyPaid
	}
	if inv.Status == models.InvoiceStatusSent && now.After(inv.DueDate) {
		return models.InvoiceStatusOverdue
	}
	return inv.Status
}
