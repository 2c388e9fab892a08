package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is a business cost, optionally attributed to a project.
type Expense struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Project   *Project   `gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL" json:"project,omitempty"`

	Name              string          `gorm:"size:255;not null" json:"name"`
	Category          string          `gorm:"size:100;not null;index" json:"category"`
	Date              time.Time       `gorm:"not null" json:"date"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Description       string          `gorm:"type:text" json:"description,omitempty"`
	ExternalInvoiceID string          `gorm:"size:100" json:"external_invoice_id,omitempty"`
	ReceiptURL        string          `gorm:"size:500" json:"receipt_url,omitempty"`
	Billable          bool            `gorm:"not null" json:"billable"`
}

func (e *Expense) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	if e.Currency == "" {
		e.Currency = DefaultCurrency
	}
	return nil
}

// GetUserID implements the Ownable interface for authorization.
func (e *Expense) GetUserID() uuid.UUID {
	return e.UserID
}
