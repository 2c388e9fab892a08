package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a customer of the freelancer.
// Deleting a client deletes its projects; invoices and payments keep a null reference.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this client (for multi-tenant isolation)
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Name          string `gorm:"size:255;not null" json:"name"`
	ContactPerson string `gorm:"size:255" json:"contact_person,omitempty"`
	Email         string `gorm:"size:255" json:"email,omitempty"`
	PhoneNumber   string `gorm:"size:50" json:"phone_number,omitempty"`

	// Address
	Address  string `gorm:"size:500" json:"address,omitempty"`
	City     string `gorm:"size:100" json:"city,omitempty"`
	Postcode string `gorm:"size:20" json:"postcode,omitempty"`
	Country  string `gorm:"size:100" json:"country,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	Projects []Project `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"projects,omitempty"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uuid.UUID {
	return c.UserID
}

// FullAddress returns the postal address on up to three lines.
func (c *Client) FullAddress() string {
	var lines []string
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	if city := strings.TrimSpace(c.Postcode + " " + c.City); city != "" {
		lines = append(lines, city)
	}
	if c.Country != "" {
		lines = append(lines, c.Country)
	}
	return strings.Join(lines, "\n")
}
