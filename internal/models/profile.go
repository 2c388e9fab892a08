package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCurrency applies when neither the record nor the user's profile names one.
const DefaultCurrency = "GBP"

// BusinessProfile holds the freelancer's own business details and defaults.
// There is at most one per user.
type BusinessProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	BusinessName    string `gorm:"size:255" json:"business_name,omitempty"`
	BusinessAddress string `gorm:"type:text" json:"business_address,omitempty"`
	TaxID           string `gorm:"size:50" json:"tax_id,omitempty"`
	PhoneNumber     string `gorm:"size:50" json:"phone_number,omitempty"`
	Website         string `gorm:"size:255" json:"website,omitempty"`

	DefaultCurrency string              `gorm:"size:3;not null" json:"default_currency"`
	DefaultTaxRate  decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"default_tax_rate"`
}

func (p *BusinessProfile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.DefaultCurrency == "" {
		p.DefaultCurrency = DefaultCurrency
	}
	return nil
}

// GetUserID implements the Ownable interface.
func (p *BusinessProfile) GetUserID() uuid.UUID {
	return p.UserID
}
