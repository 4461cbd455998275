package models

import (
	"time"

	"github.com/google/uuid"
)

// StepVersion is the per-step save metadata carried inside a snapshot and in
// draft views returned to clients.
type StepVersion struct {
	StepNumber int       `json:"stepNumber"`
	StepName   string    `json:"stepName"`
	Version    int       `json:"version"`
	IsComplete bool      `json:"isComplete"`
	SavedAt    time.Time `json:"savedAt"`
}

// DraftSnapshot is the cache-side mirror of a draft: the full aggregate plus
// per-step versions, stamped with a monotonic sequence number. Ordering is
// decided by Seq alone, never by wall clocks, so a delayed write carrying an
// older snapshot can be recognized and dropped.
type DraftSnapshot struct {
	ApplicationUUID uuid.UUID       `json:"applicationUuid"`
	Mode            ApplicationMode `json:"mode"`
	Seq             int64           `json:"seq"`
	CurrentStep     int             `json:"currentStep"`
	State           DraftState      `json:"state"`
	Steps           []StepVersion   `json:"steps"`
	SavedAt         time.Time       `json:"savedAt"`
}

// StepVersionAt returns the snapshot's version metadata for a step number,
// or false when the snapshot has never seen that step.
func (s *DraftSnapshot) StepVersionAt(number int) (StepVersion, bool) {
	for _, sv := range s.Steps {
		if sv.StepNumber == number {
			return sv, true
		}
	}
	return StepVersion{}, false
}
