// Package models holds the GORM entities of the freelance workspace.
package models

import (
	"github.com/google/uuid"
)

// Ownable is implemented by every record that belongs directly to a user.
type Ownable interface {
	GetUserID() uuid.UUID
}

// ensureID assigns a random UUID when the record has none yet.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns the models in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&BusinessProfile{},
		&Client{},
		&Project{},
		&Invoice{},
		&InvoiceItem{},
		&Payment{},
		&Expense{},
		&TimeEntry{},
		&AuditLog{},
	}
}
