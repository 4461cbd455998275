package dto

import "time"

// SubmitApplicationResponse represents a successful submission
type SubmitApplicationResponse struct {
	Message         string    `json:"message"`
	ApplicationUUID string    `json:"applicationUuid"`
	Status          string    `json:"status"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// SubmissionBlockedDTO rides the error detail of a refused submission. The
// current step has already been repositioned to the first offending step.
type SubmissionBlockedDTO struct {
	CurrentStep     int           `json:"currentStep"`
	IncompleteSteps []StepInfoDTO `json:"incompleteSteps"`
}
