package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-freelance/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// UserExists backs the session verifier.
func (s *Store) UserExists(ctx context.Context, id uuid.UUID) bool {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// Profile returns the user's business profile. A user without one gets an
// unsaved profile carrying the defaults.
func (s *Store) Profile(ctx context.Context, userID uuid.UUID) (*models.BusinessProfile, error) {
	var p models.BusinessProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &models.BusinessProfile{UserID: userID, DefaultCurrency: models.DefaultCurrency}, nil
}

// SaveProfile creates or updates the user's business profile.
func (s *Store) SaveProfile(ctx context.Context, p *models.BusinessProfile) error {
	var existing models.BusinessProfile
	err := s.db.WithContext(ctx).Select("id", "created_at").Where("user_id = ?", p.UserID).First(&existing).Error
	switch {
	case err == nil:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
	default:
		return err
	}
}
