package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-freelance/internal/models"
)

// ExpenseFilter narrows ListExpenses.
type ExpenseFilter struct {
	ProjectID *uuid.UUID
	Category  string
	Billable  *bool
	Page
}

func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID, f ExpenseFilter) ([]models.Expense, error) {
	db := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.ProjectID != nil {
		db = db.Where("project_id = ?", *f.ProjectID)
	}
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.Billable != nil {
		db = db.Where("billable = ?", *f.Billable)
	}
	var expenses []models.Expense
	err := f.apply(db.Order("date DESC")).Find(&expenses).Error
	return expenses, err
}

func (s *Store) GetExpense(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	var e models.Expense
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, notFound(err, "expense")
	}
	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

func (s *Store) UpdateExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(e).Error
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id uuid.UUID) error {
	return deleted(s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Expense{}), "expense")
}
