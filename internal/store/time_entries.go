package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/internal/models"
)

// ListTimeEntries returns the entries of a project, latest first.
func (s *Store) ListTimeEntries(ctx context.Context, projectID uuid.UUID) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("start_time DESC").Find(&entries).Error
	return entries, err
}

// GetTimeEntry loads an entry through its project owner.
func (s *Store) GetTimeEntry(ctx context.Context, userID, id uuid.UUID) (*models.TimeEntry, error) {
	var e models.TimeEntry
	err := s.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = time_entries.project_id").
		Where("time_entries.id = ? AND projects.user_id = ?", id, userID).
		First(&e).Error
	if err != nil {
		return nil, notFound(err, "time entry")
	}
	return &e, nil
}

func (s *Store) CreateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *Store) UpdateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	return s.db.WithContext(ctx).Save(e).Error
}

func (s *Store) DeleteTimeEntry(ctx context.Context, id uuid.UUID) error {
	return deleted(s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TimeEntry{}), "time entry")
}
