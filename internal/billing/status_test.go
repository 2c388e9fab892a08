package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-freelance/internal/models"
)

func TestValidateStatusTransition(t *testing.T) {
	allowed := map[models.InvoiceStatus][]models.InvoiceStatus{
		models.InvoiceStatusDraft:         {models.InvoiceStatusSent, models.InvoiceStatusCancelled},
		models.InvoiceStatusSent:          {models.InvoiceStatusPaid, models.InvoiceStatusPartiallyPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
		models.InvoiceStatusPartiallyPaid: {models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
		models.InvoiceStatusOverdue:       {models.InvoiceStatusPaid, models.InvoiceStatusPartiallyPaid, models.InvoiceStatusCancelled},
	}
	for _, from := range models.InvoiceStatuses {
		for _, to := range models.InvoiceStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			err := ValidateStatusTransition(from, to)
			if want {
				assert.NoErrorf(t, err, "%s -> %s", from, to)
				continue
			}
			require.Errorf(t, err, "%s -> %s should fail", from, to)
			assert.Truef(t, errors.Is(err, ErrInvalidTransition), "%s -> %s: %v", from, to, err)
		}
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	for _, to := range models.InvoiceStatuses {
		err := ValidateStatusTransition(models.InvoiceStatusCancelled, to)
		var terr *TransitionError
		require.True(t, errors.As(err, &terr), "CANCELLED -> %s", to)
		assert.Equal(t, models.InvoiceStatusCancelled, terr.From)
	}
	assert.True(t, IsTerminal(models.InvoiceStatusCancelled))
	assert.True(t, IsTerminal(models.InvoiceStatusPaid))
	assert.Empty(t, AllowedTransitions(models.InvoiceStatusPaid))
}

func TestValidateStatusTransition_Unknown(t *testing.T) {
	err := ValidateStatusTransition(models.InvoiceStatusDraft, "ARCHIVED")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -5)
	future := now.AddDate(0, 0, 5)
	pay := func(amounts ...string) []models.Payment {
		out := make([]models.Payment, len(amounts))
		for i, a := range amounts {
			out[i] = models.Payment{Amount: dec(a)}
		}
		return out
	}

	tests := []struct {
		name     string
		status   models.InvoiceStatus
		due      time.Time
		payments []models.Payment
		want     models.InvoiceStatus
	}{
		{"fully paid", models.InvoiceStatusSent, future, pay("290"), models.InvoiceStatusPaid},
		{"paid in instalments", models.InvoiceStatusPartiallyPaid, past, pay("190", "100"), models.InvoiceStatusPaid},
		{"within epsilon", models.InvoiceStatusSent, future, pay("289.996"), models.InvoiceStatusPaid},
		{"partially paid", models.InvoiceStatusSent, future, pay("100"), models.InvoiceStatusPartiallyPaid},
		{"partially paid past due", models.InvoiceStatusOverdue, past, pay("100"), models.InvoiceStatusPartiallyPaid},
		{"overdue", models.InvoiceStatusSent, past, nil, models.InvoiceStatusOverdue},
		{"not yet due", models.InvoiceStatusSent, future, nil, models.InvoiceStatusSent},
		{"overdue stays", models.InvoiceStatusOverdue, past, nil, models.InvoiceStatusOverdue},
		{"draft untouched", models.InvoiceStatusDraft, past, pay("290"), models.InvoiceStatusDraft},
		{"cancelled untouched", models.InvoiceStatusCancelled, past, pay("290"), models.InvoiceStatusCancelled},
		{"paid untouched", models.InvoiceStatusPaid, past, nil, models.InvoiceStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := models.Invoice{Status: tt.status, DueDate: tt.due, Total: dec("290")}
			got := DeriveStatus(inv, tt.payments, now)
			assert.Equal(t, tt.want, got)

			// idempotent
			inv.Status = got
			assert.Equal(t, got, DeriveStatus(inv, tt.payments, now))
		})
	}
}

func TestDeriveStatusNothingOwed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, status := range []models.InvoiceStatus{
		models.InvoiceStatusSent,
		models.InvoiceStatusOverdue,
		models.InvoiceStatusPartiallyPaid,
	} {
		inv := models.Invoice{Status: status, DueDate: now.AddDate(0, 0, -5), Total: dec("0")}
		assert.Equal(t, models.InvoiceStatusPaid, DeriveStatus(inv, nil, now), status)
	}

	draft := models.Invoice{Status: models.InvoiceStatusDraft, DueDate: now, Total: dec("0")}
	assert.Equal(t, models.InvoiceStatusDraft, DeriveStatus(draft, nil, now))
}
