package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-freelance/internal/models"
)

// ProjectQuery filters the project listing.
type ProjectQuery struct {
	ClientID *uuid.UUID
	Status   models.ProjectStatus
}

// ListProjects returns the user's projects, newest first, with their client.
func (s *Store) ListProjects(ctx context.Context, userID uuid.UUID, q ProjectQuery) ([]models.Project, error) {
	db := s.db.WithContext(ctx).Preload("Client").Where("user_id = ?", userID)
	if q.ClientID != nil {
		db = db.Where("client_id = ?", *q.ClientID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	var projects []models.Project
	err := db.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (s *Store) GetProject(ctx context.Context, userID, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).Preload("Client").Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		return nil, notFound(err, "project")
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

// DeleteProject removes the project with its time entries. Invoices,
// payments and expenses keep a null project reference.
func (s *Store) DeleteProject(ctx context.Context, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := (&Store{db: tx}).GetProject(ctx, userID, id); err != nil {
			return err
		}
		if err := detachProjects(tx, []uuid.UUID{id}); err != nil {
			return err
		}
		return deleted(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Project{}), "project")
	})
}

// detachProjects applies the cascade rules of a project deletion.
func detachProjects(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("project_id IN ?", ids).Delete(&models.TimeEntry{}).Error; err != nil {
		return err
	}
	for _, m := range []any{&models.Invoice{}, &models.Payment{}, &models.Expense{}} {
		if err := tx.Model(m).Where("project_id IN ?", ids).Update("project_id", nil).Error; err != nil {
			return err
		}
	}
	return nil
}
