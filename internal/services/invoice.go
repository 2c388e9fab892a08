// Package services orchestrates the billing rules over the store. Every
// operation receives the acting user id explicitly.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

// DefaultPaymentTermDays sets the due date when an invoice is created without one.
const DefaultPaymentTermDays = 30

// numberAttempts bounds how often Create regenerates a clashing invoice number.
const numberAttempts = 3

// Invalidator drops cached per user reports after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, uuid.UUID) {}

// ItemInput is one invoice line as sent by a client. Amount is accepted for
// compatibility and ignored; it is always recomputed.
type ItemInput struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Taxable     *bool            `json:"taxable,omitempty"`
}

func toItems(in []ItemInput) []models.InvoiceItem {
	items := make([]models.InvoiceItem, len(in))
	for i, it := range in {
		taxable := true
		if it.Taxable != nil {
			taxable = *it.Taxable
		}
		items[i] = models.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Taxable:     taxable,
		}
	}
	return items
}

// InvoiceInput creates an invoice. A nil TaxRate uses the profile default,
// an empty InvoiceNumber gets the next INV-YYYY-NNNN number.
type InvoiceInput struct {
	ProjectID     *uuid.UUID       `json:"project_id,omitempty"`
	ClientID      *uuid.UUID       `json:"client_id,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	IssueDate     *time.Time       `json:"issue_date,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	PaymentTerms  string           `json:"payment_terms,omitempty"`
	Items         []ItemInput      `json:"items"`
}

// InvoiceUpdate changes invoice metadata. Nil fields keep their value.
// Changing the tax rate needs a draft invoice; Status goes through the
// lifecycle check.
type InvoiceUpdate struct {
	ProjectID     *uuid.UUID            `json:"project_id,omitempty"`
	ClientID      *uuid.UUID            `json:"client_id,omitempty"`
	InvoiceNumber *string               `json:"invoice_number,omitempty"`
	IssueDate     *time.Time            `json:"issue_date,omitempty"`
	DueDate       *time.Time            `json:"due_date,omitempty"`
	TaxRate       *decimal.Decimal      `json:"tax_rate,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	PaymentTerms  *string               `json:"payment_terms,omitempty"`
	Status        *models.InvoiceStatus `json:"status,omitempty"`
}

// PaymentInput records money received.
type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// StatusSuggestion is the advisory status of an invoice given its payments.
type StatusSuggestion struct {
	Current   models.InvoiceStatus   `json:"current"`
	Suggested models.InvoiceStatus   `json:"suggested"`
	CanApply  bool                   `json:"can_apply"`
	Paid      decimal.Decimal        `json:"paid"`
	Balance   decimal.Decimal        `json:"balance"`
	Allowed   []models.InvoiceStatus `json:"allowed"`
}

type InvoiceService struct {
	store    *store.Store
	overview Invalidator
	now      func() time.Time
}

// NewInvoiceService builds the service. overview may be nil.
func NewInvoiceService(st *store.Store, overview Invalidator) *InvoiceService {
	if overview == nil {
		overview = nopInvalidator{}
	}
	return &InvoiceService{store: st, overview: overview, now: time.Now}
}

func (s *InvoiceService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	return s.store.GetInvoice(ctx, userID, id)
}

func (s *InvoiceService) List(ctx context.Context, userID uuid.UUID, f store.InvoiceFilter) ([]models.Invoice, error) {
	return s.store.ListInvoices(ctx, userID, f)
}

// Create validates the input, computes the totals and stores the invoice with
// its items. An invoice tied to a project without a client takes the
// project's client.
func (s *InvoiceService) Create(ctx context.Context, userID uuid.UUID, in InvoiceInput) (*models.Invoice, error) {
	v := validation.Violations{}
	now := s.now()

	issue := now
	if in.IssueDate != nil {
		issue = *in.IssueDate
	}
	due := issue.AddDate(0, 0, DefaultPaymentTermDays)
	if in.DueDate != nil {
		due = *in.DueDate
	}
	if due.Before(issue) {
		v["due_date"] = "before_issue_date"
	}

	clientID, err := s.resolveParties(ctx, userID, in.ProjectID, in.ClientID, v)
	if err != nil {
		return nil, err
	}

	rate, err := s.taxRate(ctx, userID, in.TaxRate)
	if err != nil {
		return nil, err
	}
	totals, items, err := billing.ComputeTotals(toItems(in.Items), rate)
	if err := mergeViolations(v, err); err != nil {
		return nil, err
	}
	if in.InvoiceNumber != "" {
		taken, err := s.store.InvoiceNumberTaken(ctx, in.InvoiceNumber, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if taken {
			v["invoice_number"] = "already_taken"
		}
	}
	if err := billing.Invalid(v); err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		UserID:        userID,
		ProjectID:     in.ProjectID,
		ClientID:      clientID,
		InvoiceNumber: in.InvoiceNumber,
		IssueDate:     issue,
		DueDate:       due,
		Status:        models.InvoiceStatusDraft,
		TaxRate:       rate,
		Notes:         in.Notes,
		PaymentTerms:  in.PaymentTerms,
	}
	totals.Apply(inv)

	generated := inv.InvoiceNumber == ""
	for attempt := 1; ; attempt++ {
		err = s.store.WithTx(ctx, func(tx *store.Store) error {
			if generated {
				n, err := tx.NextInvoiceNumber(ctx, issue.Year())
				if err != nil {
					return err
				}
				inv.InvoiceNumber = n
			}
			if err := tx.CreateInvoice(ctx, inv, items); err != nil {
				return err
			}
			return tx.Audit(ctx, userID, "invoice", inv.ID, models.AuditCreate, map[string]any{
				"invoice_number": inv.InvoiceNumber,
				"total":          inv.Total,
			})
		})
		// A concurrent create can claim the same generated number first.
		if generated && store.IsDuplicate(err) && attempt < numberAttempts {
			continue
		}
		break
	}
	if store.IsDuplicate(err) {
		return nil, billing.Invalid(validation.Violations{"invoice_number": "already_taken"})
	}
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	s.overview.Invalidate(ctx, userID)
	return s.store.GetInvoice(ctx, userID, inv.ID)
}

// Update applies metadata changes under a row lock.
func (s *InvoiceService) Update(ctx context.Context, userID, id uuid.UUID, in InvoiceUpdate) (*models.Invoice, error) {
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		inv, err := tx.LockInvoice(ctx, userID, id)
		if err != nil {
			return err
		}
		changes := map[string]any{}
		v := validation.Violations{}

		if in.ProjectID != nil || in.ClientID != nil {
			projectID, clientID := inv.ProjectID, inv.ClientID
			if in.ProjectID != nil {
				projectID = in.ProjectID
				if in.ClientID == nil {
					clientID = nil
				}
			}
			if in.ClientID != nil {
				clientID = in.ClientID
			}
			resolved, err := (&InvoiceService{store: tx}).resolveParties(ctx, userID, projectID, clientID, v)
			if err != nil {
				return err
			}
			inv.ProjectID, inv.ClientID = projectID, resolved
			changes["project_id"], changes["client_id"] = projectID, resolved
		}
		if in.InvoiceNumber != nil && *in.InvoiceNumber != inv.InvoiceNumber {
			validation.Required("invoice_number", *in.InvoiceNumber, v)
			if *in.InvoiceNumber != "" {
				taken, err := tx.InvoiceNumberTaken(ctx, *in.InvoiceNumber, inv.ID)
				if err != nil {
					return err
				}
				if taken {
					v["invoice_number"] = "already_taken"
				}
			}
			inv.InvoiceNumber = *in.InvoiceNumber
			changes["invoice_number"] = inv.InvoiceNumber
		}
		if in.IssueDate != nil {
			inv.IssueDate = *in.IssueDate
			changes["issue_date"] = inv.IssueDate
		}
		if in.DueDate != nil {
			inv.DueDate = *in.DueDate
			changes["due_date"] = inv.DueDate
		}
		if inv.DueDate.Before(inv.IssueDate) {
			v["due_date"] = "before_issue_date"
		}
		if in.Notes != nil {
			inv.Notes = *in.Notes
		}
		if in.PaymentTerms != nil {
			inv.PaymentTerms = *in.PaymentTerms
		}
		if in.TaxRate != nil && !(inv.TaxRate.Valid && inv.TaxRate.Decimal.Equal(*in.TaxRate)) {
			if !inv.CanEdit() {
				v["status"] = "not_editable"
			} else {
				inv.TaxRate = decimal.NewNullDecimal(*in.TaxRate)
				items, err := tx.ListItems(ctx, inv.ID)
				if err != nil {
					return err
				}
				totals, _, err := billing.ComputeTotals(items, inv.TaxRate)
				if err := mergeViolations(v, err); err != nil {
					return err
				}
				totals.Apply(inv)
				changes["tax_rate"], changes["total"] = inv.TaxRate, inv.Total
			}
		}
		if in.Status != nil && *in.Status != inv.Status {
			if err := billing.ValidateStatusTransition(inv.Status, *in.Status); err != nil {
				return err
			}
			changes["status"] = map[string]any{"from": inv.Status, "to": *in.Status}
			inv.Status = *in.Status
		}
		if err := billing.Invalid(v); err != nil {
			return err
		}
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		return tx.Audit(ctx, userID, "invoice", inv.ID, models.AuditUpdate, changes)
	})
	if store.IsDuplicate(err) {
		return nil, billing.Invalid(validation.Violations{"invoice_number": "already_taken"})
	}
	if err != nil {
		return nil, err
	}
	s.overview.Invalidate(ctx, userID)
	return s.store.GetInvoice(ctx, userID, id)
}

// ReplaceItems swaps the item list of a draft invoice and persists the new
// totals in the same transaction.
func (s *InvoiceService) ReplaceItems(ctx context.Context, userID, id uuid.UUID, in []ItemInput) (*models.Invoice, error) {
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		inv, err := tx.LockInvoice(ctx, userID, id)
		if err != nil {
			return err
		}
		if !inv.CanEdit() {
			return billing.Invalid(validation.Violations{"status": "not_editable"})
		}
		totals, items, err := billing.ComputeTotals(toItems(in), inv.TaxRate)
		if err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, inv.ID, items); err != nil {
			return err
		}
		if err := tx.SaveInvoiceTotals(ctx, inv.ID, totals); err != nil {
			return err
		}
		return tx.Audit(ctx, userID, "invoice", inv.ID, models.AuditTotals, map[string]any{
			"items":      len(items),
			"subtotal":   totals.Subtotal,
			"tax_amount": totals.TaxAmount,
			"total":      totals.Total,
		})
	})
	if err != nil {
		return nil, err
	}
	s.overview.Invalidate(ctx, userID)
	return s.store.GetInvoice(ctx, userID, id)
}

// ChangeStatus moves the invoice to next. Asking for the current status is a
// no-op.
func (s *InvoiceService) ChangeStatus(ctx context.Context, userID, id uuid.UUID, next models.InvoiceStatus) (*models.Invoice, error) {
	if !next.Valid() {
		return nil, billing.Invalid(validation.Violations{"status": "invalid_choice"})
	}
	changed := false
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		inv, err := tx.LockInvoice(ctx, userID, id)
		if err != nil {
			return err
		}
		if inv.Status == next {
			return nil
		}
		if err := billing.ValidateStatusTransition(inv.Status, next); err != nil {
			return err
		}
		if err := tx.SaveStatus(ctx, inv.ID, next); err != nil {
			return err
		}
		changed = true
		return tx.Audit(ctx, userID, "invoice", inv.ID, models.AuditStatus, map[string]any{"from": inv.Status, "to": next})
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.overview.Invalidate(ctx, userID)
	}
	return s.store.GetInvoice(ctx, userID, id)
}

// RecordPayment stores a payment against a sent invoice. The status is not
// changed; SuggestStatus tells the caller what it should become.
func (s *InvoiceService) RecordPayment(ctx context.Context, userID, invoiceID uuid.UUID, in PaymentInput) (*models.Payment, error) {
	v := validation.Violations{}
	validation.PositiveDecimal("amount", in.Amount, v)
	if err := billing.Invalid(v); err != nil {
		return nil, err
	}
	p := &models.Payment{
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		Notes:         in.Notes,
	}
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	}
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		inv, err := tx.LockInvoice(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == models.InvoiceStatusDraft || inv.Status == models.InvoiceStatusCancelled {
			return billing.Invalid(validation.Violations{"status": "not_payable"})
		}
		p.InvoiceID = inv.ID
		p.ProjectID = inv.ProjectID
		p.ClientID = inv.ClientID
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		return tx.Audit(ctx, userID, "invoice", inv.ID, models.AuditPayment, map[string]any{
			"payment_id": p.ID,
			"amount":     p.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	s.overview.Invalidate(ctx, userID)
	return p, nil
}

func (s *InvoiceService) ListPayments(ctx context.Context, userID, invoiceID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.store.GetInvoice(ctx, userID, invoiceID); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, invoiceID)
}

func (s *InvoiceService) ListItems(ctx context.Context, userID, invoiceID uuid.UUID) ([]models.InvoiceItem, error) {
	if _, err := s.store.GetInvoice(ctx, userID, invoiceID); err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, invoiceID)
}

// DeletePayment removes a payment of one of the user's invoices.
func (s *InvoiceService) DeletePayment(ctx context.Context, userID, paymentID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		p, err := tx.GetPayment(ctx, userID, paymentID)
		if err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, p.ID); err != nil {
			return err
		}
		return tx.Audit(ctx, userID, "invoice", p.InvoiceID, models.AuditPayment, map[string]any{
			"payment_id": p.ID,
			"deleted":    true,
			"amount":     p.Amount,
		})
	})
	if err != nil {
		return err
	}
	s.overview.Invalidate(ctx, userID)
	return nil
}

// SuggestStatus runs DeriveStatus on the stored invoice and payments.
func (s *InvoiceService) SuggestStatus(ctx context.Context, userID, id uuid.UUID) (*StatusSuggestion, error) {
	inv, err := s.store.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	suggested := billing.DeriveStatus(*inv, inv.Payments, s.now())
	return &StatusSuggestion{
		Current:   inv.Status,
		Suggested: suggested,
		CanApply:  suggested != inv.Status && billing.ValidateStatusTransition(inv.Status, suggested) == nil,
		Paid:      billing.SumPayments(inv.Payments),
		Balance:   billing.Balance(*inv, inv.Payments),
		Allowed:   billing.AllowedTransitions(inv.Status),
	}, nil
}

func (s *InvoiceService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.DeleteInvoice(ctx, userID, id); err != nil {
			return err
		}
		return tx.Audit(ctx, userID, "invoice", id, models.AuditDelete, nil)
	})
	if err != nil {
		return err
	}
	s.overview.Invalidate(ctx, userID)
	return nil
}

// History returns the audit trail of one invoice. It remains readable after
// the invoice is deleted.
func (s *InvoiceService) History(ctx context.Context, userID, id uuid.UUID) ([]models.AuditLog, error) {
	entries, err := s.store.History(ctx, userID, "invoice", id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if _, err := s.store.GetInvoice(ctx, userID, id); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// resolveParties checks the project and client belong to the user and
// returns the client id the invoice should carry.
func (s *InvoiceService) resolveParties(ctx context.Context, userID uuid.UUID, projectID, clientID *uuid.UUID, v validation.Violations) (*uuid.UUID, error) {
	if clientID != nil {
		if _, err := s.store.GetClient(ctx, userID, *clientID); err != nil {
			if !errors.Is(err, billing.ErrNotFound) {
				return nil, err
			}
			v["client_id"] = "invalid_choice"
		}
	}
	if projectID == nil {
		return clientID, nil
	}
	p, err := s.store.GetProject(ctx, userID, *projectID)
	if err != nil {
		if !errors.Is(err, billing.ErrNotFound) {
			return nil, err
		}
		v["project_id"] = "invalid_choice"
		return clientID, nil
	}
	if clientID == nil {
		id := p.ClientID
		return &id, nil
	}
	if _, bad := v["client_id"]; !bad && *clientID != p.ClientID {
		v["client_id"] = "project_mismatch"
	}
	return clientID, nil
}

// taxRate picks the explicit rate or the profile default.
func (s *InvoiceService) taxRate(ctx context.Context, userID uuid.UUID, explicit *decimal.Decimal) (decimal.NullDecimal, error) {
	if explicit != nil {
		return decimal.NewNullDecimal(*explicit), nil
	}
	p, err := s.store.Profile(ctx, userID)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return p.DefaultTaxRate, nil
}

// mergeViolations folds a validation error into v and returns any other error.
func mergeViolations(v validation.Violations, err error) error {
	if err == nil {
		return nil
	}
	var ve *billing.ValidationError
	if errors.As(err, &ve) {
		for f, code := range ve.Violations {
			v[f] = code
		}
		return nil
	}
	return err
}
