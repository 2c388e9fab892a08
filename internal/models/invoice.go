package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// InvoiceStatuses lists every status in lifecycle order.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusPartiallyPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	for _, known := range InvoiceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Invoice is a bill sent to a client.
// Subtotal, TaxAmount and Total are derived from the items and are only
// written by the invoice calculator.
type Invoice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this invoice (for multi-tenant isolation)
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Project   *Project   `gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL" json:"project,omitempty"`
	ClientID  *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`
	Client    *Client    `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`

	InvoiceNumber string    `gorm:"size:50;not null;uniqueIndex:idx_invoices_number" json:"invoice_number"`
	IssueDate     time.Time `gorm:"not null" json:"issue_date"`
	DueDate       time.Time `gorm:"not null" json:"due_date"`

	Status InvoiceStatus `gorm:"size:20;not null;default:'DRAFT'" json:"status"`

	Subtotal  decimal.Decimal     `gorm:"type:numeric(20,6);not null" json:"subtotal"`
	TaxRate   decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"tax_rate"`
	TaxAmount decimal.NullDecimal `gorm:"type:numeric(20,6)" json:"tax_amount"`
	Total     decimal.Decimal     `gorm:"type:numeric(20,6);not null" json:"total"`

	Notes        string `gorm:"type:text" json:"notes,omitempty"`
	PaymentTerms string `gorm:"size:500" json:"payment_terms,omitempty"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	if i.Status == "" {
		i.Status = InvoiceStatusDraft
	}
	if i.IssueDate.IsZero() {
		i.IssueDate = time.Now()
	}
	return nil
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uuid.UUID {
	return i.UserID
}

// CanEdit returns true while the line items may still change.
func (i *Invoice) CanEdit() bool {
	return i.Status == InvoiceStatusDraft
}

// InvoiceItem is one line on an invoice. Amount is always Quantity × UnitPrice.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uuid.UUID `gorm:"type:uuid;index;not null" json:"invoice_id"`

	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	Taxable     bool            `gorm:"not null" json:"taxable"`

	// Position for ordering
	Position int `gorm:"not null;default:0" json:"position"`
}

func (it *InvoiceItem) BeforeCreate(*gorm.DB) error {
	ensureID(&it.ID)
	return nil
}
