package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeEntry records work on a project. Duration is in whole minutes.
// An entry without EndTime and without Duration is still running.
type TimeEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`

	Description string     `gorm:"type:text" json:"description,omitempty"`
	StartTime   time.Time  `gorm:"not null" json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Duration    *int       `json:"duration,omitempty"`
	Billable    bool       `gorm:"not null" json:"billable"`
}

func (e *TimeEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// Running reports whether the timer is still open.
func (e *TimeEntry) Running() bool {
	return e.EndTime == nil && e.Duration == nil
}
