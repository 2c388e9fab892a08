package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions.
const (
	AuditCreate  = "create"
	AuditUpdate  = "update"
	AuditTotals  = "totals"
	AuditStatus  = "status"
	AuditPayment = "payment"
	AuditDelete  = "delete"
)

// AuditLog records who changed what on an entity.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UserID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	EntityType string         `gorm:"size:50;not null;index:idx_audit_entity" json:"entity_type"` // "invoice", "payment", ...
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_entity" json:"entity_id"`
	Action     string         `gorm:"size:20;not null" json:"action"`
	Changes    datatypes.JSON `json:"changes,omitempty"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// GetUserID implements the Ownable interface for authorization.
func (a *AuditLog) GetUserID() uuid.UUID {
	return a.UserID
}
