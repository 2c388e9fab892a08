package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/internal/models"
)

// ListPayments returns the payments of an invoice, oldest first.
func (s *Store) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Order("payment_date").Find(&payments).Error
	return payments, err
}

// GetPayment loads a payment through its invoice owner.
func (s *Store) GetPayment(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("payments.id = ? AND invoices.user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) DeletePayment(ctx context.Context, id uuid.UUID) error {
	return deleted(s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Payment{}), "payment")
}
