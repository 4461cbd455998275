package models

import (
	"time"

	"github.com/appform-bd/cardapply/utils"
	"gorm.io/gorm"
)

// ApplicationStepRecord is the per-step save ledger: one row per
// (application, step), updated in place. Version starts at 1 on the first
// accepted save and increments by exactly one per accepted save; the
// repository's optimistic guard keeps racing writers from claiming the same
// successor version. Data holds the step's sub-record JSON as saved, so the
// row alone is enough to rebuild a step during reconciliation.
type ApplicationStepRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;uniqueIndex:uk_application_steps_app_step,priority:1" json:"application_id"`
	StepNumber    int       `gorm:"not null;uniqueIndex:uk_application_steps_app_step,priority:2" json:"step_number"`
	StepName      string    `gorm:"type:varchar(64);not null" json:"step_name"`
	Version       int       `gorm:"not null;default:0" json:"version"`
	Data          []byte    `gorm:"type:jsonb" json:"data,omitempty"`
	IsComplete    bool      `gorm:"not null;default:false" json:"is_complete"`
	SavedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"saved_at"`

	// Relations
	Application *CardApplication `gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:CASCADE" json:"application,omitempty"`
}

// TableName returns the table name for the model
func (ApplicationStepRecord) TableName() string {
	return "application_steps"
}

// BeforeCreate is called before creating a new record
func (r *ApplicationStepRecord) BeforeCreate(tx *gorm.DB) error {
	if r.SavedAt.IsZero() {
		r.SavedAt = utils.UTCNow()
	}
	return nil
}

// ApplicationStepFilter represents filter criteria for step records
type ApplicationStepFilter struct {
	ID            *uint   `json:"id,omitempty"`
	ApplicationID *uint   `json:"application_id,omitempty"`
	StepNumber    *int    `json:"step_number,omitempty"`
	StepName      *string `json:"step_name,omitempty"`
	IsComplete    *bool   `json:"is_complete,omitempty"`
}
