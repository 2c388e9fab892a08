package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
)

// InvoiceFilter narrows ListInvoices. Zero fields do not filter.
type InvoiceFilter struct {
	Status    models.InvoiceStatus
	ProjectID *uuid.UUID
	ClientID  *uuid.UUID
	Page
}

// ListInvoices returns the user's invoices, newest first, without items.
func (s *Store) ListInvoices(ctx context.Context, userID uuid.UUID, f InvoiceFilter) ([]models.Invoice, error) {
	db := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.ProjectID != nil {
		db = db.Where("project_id = ?", *f.ProjectID)
	}
	if f.ClientID != nil {
		db = db.Where("client_id = ?", *f.ClientID)
	}
	var invoices []models.Invoice
	err := f.apply(db.Order("issue_date DESC").Order("invoice_number DESC")).Find(&invoices).Error
	return invoices, err
}

// GetInvoice loads an invoice with its items and payments.
func (s *Store) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date") }).
		Preload("Project").
		Preload("Client").
		Where("id = ? AND user_id = ?", id, userID).
		First(&inv).Error
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	return &inv, nil
}

// LockInvoice reads the invoice row for update. Call it inside WithTx before
// a read-modify-write of the invoice or its items.
func (s *Store) LockInvoice(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&inv).Error
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	return &inv, nil
}

// CreateInvoice inserts the invoice and its items.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice, items []models.InvoiceItem) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error; err != nil {
		return err
	}
	return s.insertItems(ctx, inv.ID, items)
}

// UpdateInvoice saves the invoice row only; items and payments are untouched.
func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(inv).Error
}

// DeleteInvoice removes the invoice with its items and payments.
func (s *Store) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := (&Store{db: tx}).GetInvoice(ctx, userID, id); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		return deleted(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Invoice{}), "invoice")
	})
}

// ListItems returns the items of an invoice in position order.
func (s *Store) ListItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Order("position").Find(&items).Error
	return items, err
}

// ReplaceItems swaps the whole item list of an invoice.
func (s *Store) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceItem) error {
	if err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
		return err
	}
	return s.insertItems(ctx, invoiceID, items)
}

func (s *Store) insertItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].InvoiceID = invoiceID
	}
	return s.db.WithContext(ctx).Create(&items).Error
}

// SaveInvoiceTotals writes the derived monetary fields.
func (s *Store) SaveInvoiceTotals(ctx context.Context, invoiceID uuid.UUID, t billing.Totals) error {
	return s.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", invoiceID).Updates(map[string]any{
		"subtotal":   t.Subtotal,
		"tax_amount": t.TaxAmount,
		"total":      t.Total,
	}).Error
}

// SaveStatus writes the invoice status.
func (s *Store) SaveStatus(ctx context.Context, invoiceID uuid.UUID, status models.InvoiceStatus) error {
	return s.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", invoiceID).Update("status", status).Error
}

// NextInvoiceNumber returns the next INV-YYYY-NNNN number. The sequence is
// shared by every user and numbers are never reused, even after a deletion
// in the middle.
func (s *Store) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", year)
	var numbers []string
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", err
	}
	last := 0
	for _, n := range numbers {
		if seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix)); err == nil && seq > last {
			last = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, last+1), nil
}

// InvoiceNumberTaken reports whether any invoice other than except already
// carries number.
func (s *Store) InvoiceNumberTaken(ctx context.Context, number string, except uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("invoice_number = ? AND id <> ?", number, except).
		Count(&count).Error
	return count > 0, err
}
