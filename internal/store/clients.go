package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-freelance/internal/models"
)

// ClientQuery filters the client listing.
type ClientQuery struct {
	Search string
	Page
}

// ListClients returns one page of clients ordered by name, and the total count.
func (s *Store) ListClients(ctx context.Context, userID uuid.UUID, q ClientQuery) ([]models.Client, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Client{}).Where("user_id = ?", userID)
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		db = db.Where("(LOWER(name) LIKE ? OR LOWER(contact_person) LIKE ? OR LOWER(email) LIKE ?)", like(term), like(term), like(term))
	}
	db = db.Session(&gorm.Session{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var clients []models.Client
	if err := q.apply(db.Order("name")).Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

// AllClients lists every client of the user.
func (s *Store) AllClients(ctx context.Context, userID uuid.UUID) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&clients).Error
	return clients, err
}

func (s *Store) GetClient(ctx context.Context, userID, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		return nil, notFound(err, "client")
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

// DeleteClient removes the client and its projects. Time entries of those
// projects go with them; invoices, payments and expenses keep a null
// reference.
func (s *Store) DeleteClient(ctx context.Context, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := (&Store{db: tx}).GetClient(ctx, userID, id); err != nil {
			return err
		}
		var projectIDs []uuid.UUID
		if err := tx.Model(&models.Project{}).Where("client_id = ?", id).Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if err := detachProjects(tx, projectIDs); err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&models.Invoice{}, &models.Payment{}} {
			if err := tx.Model(m).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
				return err
			}
		}
		return deleted(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Client{}), "client")
	})
}
