// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/google/uuid"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// getApplicationByUUID fetches an application or fails with the shared sentinel
func getApplicationByUUID(ctx context.Context, repo repository.CardApplicationRepository, applicationUUID uuid.UUID) (*models.CardApplication, error) {
	application, err := repo.ByUUID(ctx, applicationUUID)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, ErrApplicationNotFound
	}
	return application, nil
}

// getBoundApplication fetches the application the session is bound to. Every
// draft operation goes through this, so nothing outside the binding is ever
// readable or writable from a wizard session.
func getBoundApplication(ctx context.Context, repo repository.CardApplicationRepository, session *models.ApplicantSession) (*models.CardApplication, error) {
	if session == nil || session.ApplicationID == nil {
		return nil, ErrApplicationNotFound
	}
	application, err := repo.ByID(ctx, *session.ApplicationID)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, ErrApplicationNotFound
	}
	return application, nil
}

// maskMobileNumber hides the middle digits of a local mobile number
func maskMobileNumber(mobile string) string {
	if len(mobile) < 7 {
		return mobile
	}
	// Show 019****3456 format
	return mobile[:3] + "****" + mobile[len(mobile)-4:]
}

// stepComplete applies the mode-aware completeness rule: assisted
// applications skip the OTP gate on the pre-application step because the
// branch staff member vouches for the walk-in applicant.
func stepComplete(v StepValidator, application *models.CardApplication, def models.StepDefinition) bool {
	if def.Number == models.FirstStep && application.Mode == models.ApplicationModeAssisted {
		return v.Validate(&application.State, def.Number).OK
	}
	return v.IsStepComplete(&application.State, def)
}

// highestReachableStep is the first required step still blocking forward
// progress, or the last step when nothing blocks. Optional steps never gate
// navigation, however invalid their rows are; the supplementary-card step
// counts as required only while its root gate is on.
func highestReachableStep(v StepValidator, application *models.CardApplication) int {
	for _, def := range models.Steps() {
		if def.Optional {
			gated := def.Name == models.StepSupplementaryCard && application.State.HasSupplementaryCard
			if !gated {
				continue
			}
		}
		if !stepComplete(v, application, def) {
			return def.Number
		}
	}
	return models.LastStep
}

// incompleteSteps lists every step blocking submission, in step order.
func incompleteSteps(v StepValidator, application *models.CardApplication) []models.StepDefinition {
	var out []models.StepDefinition
	for _, def := range models.Steps() {
		if !stepComplete(v, application, def) {
			out = append(out, def)
		}
	}
	return out
}

// buildStepInfos assembles the per-step view for draft and wizard responses.
// Version metadata comes from the save ledger; touched and completeness are
// derived from the live state so they stay truthful even when a row edit
// changed a step the client never saved directly.
func buildStepInfos(v StepValidator, application *models.CardApplication, versions []models.StepVersion) []dto.StepInfoDTO {
	byNumber := make(map[int]models.StepVersion, len(versions))
	for _, sv := range versions {
		byNumber[sv.StepNumber] = sv
	}

	out := make([]dto.StepInfoDTO, 0, models.TotalSteps)
	for _, def := range models.Steps() {
		info := dto.StepInfoDTO{
			Number:     def.Number,
			Name:       def.Name,
			Title:      def.Title,
			Optional:   def.Optional,
			Touched:    application.State.Touched(def.Name),
			IsComplete: stepComplete(v, application, def),
		}
		if sv, ok := byNumber[def.Number]; ok {
			info.Version = sv.Version
		}
		out = append(out, info)
	}
	return out
}
