package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
	ProjectStatusCancelled  ProjectStatus = "CANCELLED"
	ProjectStatusOnHold     ProjectStatus = "ON_HOLD"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled, ProjectStatusOnHold:
		return true
	}
	return false
}

// RateType says how a project is charged.
type RateType string

const (
	RateTypeHourly RateType = "HOURLY"
	RateTypeFixed  RateType = "FIXED"
	RateTypeDaily  RateType = "DAILY"
)

// Valid reports whether t is a known rate type.
func (t RateType) Valid() bool {
	switch t {
	case RateTypeHourly, RateTypeFixed, RateTypeDaily:
		return true
	}
	return false
}

// Suffix is the unit shown after a rate amount.
func (t RateType) Suffix() string {
	switch t {
	case RateTypeHourly:
		return "/hr"
	case RateTypeDaily:
		return "/day"
	}
	return ""
}

// Project is a piece of work done for one client.
type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	Client   *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`

	Status     ProjectStatus       `gorm:"size:20;not null;default:'IN_PROGRESS'" json:"status"`
	RateType   RateType            `gorm:"size:10;not null;default:'HOURLY'" json:"rate_type"`
	RateAmount decimal.NullDecimal `gorm:"type:numeric(20,6)" json:"rate_amount"`
	Currency   string              `gorm:"size:3;not null" json:"currency"`
	Notes      string              `gorm:"type:text" json:"notes,omitempty"`

	TimeEntries []TimeEntry `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"time_entries,omitempty"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = ProjectStatusInProgress
	}
	if p.RateType == "" {
		p.RateType = RateTypeHourly
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}

// GetUserID implements the Ownable interface for authorization.
func (p *Project) GetUserID() uuid.UUID {
	return p.UserID
}
