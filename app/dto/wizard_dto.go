package dto

// JumpToStepRequest targets a direct jump; the target must not exceed the
// highest reachable step
type JumpToStepRequest struct {
	StepNumber *int `json:"stepNumber" validate:"required,min=0,max=12"`
}

// WizardStateResponse is the navigation view of a draft: where the applicant
// stands, how far they may jump, and each step's completeness
type WizardStateResponse struct {
	ApplicationUUID      string        `json:"applicationUuid"`
	Mode                 string        `json:"mode"`
	Status               string        `json:"status"`
	CurrentStep          int           `json:"currentStep"`
	HighestReachableStep int           `json:"highestReachableStep"`
	CanSubmit            bool          `json:"canSubmit"`
	Steps                []StepInfoDTO `json:"steps"`
}
