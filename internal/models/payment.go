package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is money received against an invoice.
// ProjectID and ClientID are optional tags copied from the invoice for reporting.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uuid.UUID  `gorm:"type:uuid;index;not null" json:"invoice_id"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	ClientID  *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`

	Amount        decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	PaymentMethod string          `gorm:"size:50" json:"payment_method,omitempty"`
	Reference     string          `gorm:"size:100" json:"reference,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	return nil
}
