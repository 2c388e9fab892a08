package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/diewo77/go-freelance/internal/models"
)

// Audit appends an audit entry. changes is stored as JSON.
func (s *Store) Audit(ctx context.Context, userID uuid.UUID, entityType string, entityID uuid.UUID, action string, changes any) error {
	entry := models.AuditLog{
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	}
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			return err
		}
		entry.Changes = datatypes.JSON(raw)
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// History lists the audit entries of one entity, oldest first.
func (s *Store) History(ctx context.Context, userID uuid.UUID, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
		Order("created_at").
		Find(&logs).Error
	return logs, err
}
