package businessflow

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
)

// WizardFlow handles step navigation. Forward movement is gated on the
// current step being complete; backward movement is always free. Jumps may
// target any step up to the highest reachable one.
type WizardFlow interface {
	Advance(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.WizardStateResponse, error)
	Retreat(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.WizardStateResponse, error)
	JumpTo(ctx context.Context, session *models.ApplicantSession, req *dto.JumpToStepRequest, metadata *ClientMetadata) (*dto.WizardStateResponse, error)
	WizardState(ctx context.Context, session *models.ApplicantSession) (*dto.WizardStateResponse, error)
}

// WizardFlowImpl implements the wizard navigation flow
type WizardFlowImpl struct {
	applicationRepo repository.CardApplicationRepository
	stepRepo        repository.ApplicationStepRepository
	snapshotRepo    repository.DraftSnapshotRepository
	validator       StepValidator
	db              *gorm.DB
}

// NewWizardFlow creates a new wizard navigation flow
func NewWizardFlow(
	applicationRepo repository.CardApplicationRepository,
	stepRepo repository.ApplicationStepRepository,
	snapshotRepo repository.DraftSnapshotRepository,
	validator StepValidator,
	db *gorm.DB,
) WizardFlow {
	return &WizardFlowImpl{
		applicationRepo: applicationRepo,
		stepRepo:        stepRepo,
		snapshotRepo:    snapshotRepo,
		validator:       validator,
		db:              db,
	}
}

// Advance moves to the next step. The current step must be complete; the
// rejection carries the failing validation so the form can mark the fields.
func (s *WizardFlowImpl) Advance(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.WizardStateResponse, error) {
	return s.navigate(ctx, session, func(app *models.CardApplication) (int, error) {
		if app.CurrentStep >= models.LastStep {
			return 0, NewBusinessError("ALREADY_AT_LAST_STEP", "Already at the last step", nil)
		}
		def, _ := models.StepAt(app.CurrentStep)
		if !stepComplete(s.validator, app, def) {
			validation := s.validator.Validate(&app.State, def.Number)
			return 0, NewBusinessErrorWithDetails("STEP_INCOMPLETE", "Current step must be completed first", ErrStepNotReachable, &dto.StepValidationDTO{
				OK:          validation.OK,
				FieldErrors: validation.FieldErrors,
			})
		}
		return app.CurrentStep + 1, nil
	})
}

// Retreat moves back one step. Going back never loses data; the saved step
// records stay untouched.
func (s *WizardFlowImpl) Retreat(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.WizardStateResponse, error) {
	return s.navigate(ctx, session, func(app *models.CardApplication) (int, error) {
		if app.CurrentStep <= models.FirstStep {
			return 0, NewBusinessError("ALREADY_AT_FIRST_STEP", "Already at the first step", nil)
		}
		return app.CurrentStep - 1, nil
	})
}

// JumpTo moves directly to a target step, which may be anywhere up to the
// highest reachable step. Jumping backward is always allowed.
func (s *WizardFlowImpl) JumpTo(ctx context.Context, session *models.ApplicantSession, req *dto.JumpToStepRequest, metadata *ClientMetadata) (*dto.WizardStateResponse, error) {
	target := *req.StepNumber
	if _, ok := models.StepAt(target); !ok {
		return nil, NewBusinessError("UNKNOWN_STEP", "Unknown step number", ErrUnknownStep)
	}
	return s.navigate(ctx, session, func(app *models.CardApplication) (int, error) {
		if target > highestReachableStep(s.validator, app) {
			return 0, NewBusinessError("STEP_NOT_REACHABLE", "Earlier steps must be completed first", ErrStepNotReachable)
		}
		return target, nil
	})
}

// WizardState returns the navigation view without moving the pointer
func (s *WizardFlowImpl) WizardState(ctx context.Context, session *models.ApplicantSession) (*dto.WizardStateResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	return s.buildState(ctx, application)
}

// navigate is the shared pointer-move path. The decide callback inspects the
// locked application row and returns the new step; the row lock keeps a
// concurrent save from being overwritten by the state column write.
func (s *WizardFlowImpl) navigate(ctx context.Context, session *models.ApplicantSession, decide func(app *models.CardApplication) (int, error)) (*dto.WizardStateResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	if !application.Status.IsEditable() {
		return nil, NewBusinessError("APPLICATION_NOT_EDITABLE", "Application can no longer be edited", ErrApplicationNotEditable)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		appRow, err := s.applicationRepo.ByIDForUpdate(txCtx, application.ID)
		if err != nil {
			return fmt.Errorf("failed to lock application: %w", err)
		}
		if appRow == nil {
			return NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", ErrApplicationNotFound)
		}
		if !appRow.Status.IsEditable() {
			return NewBusinessError("APPLICATION_NOT_EDITABLE", "Application can no longer be edited", ErrApplicationNotEditable)
		}

		next, err := decide(appRow)
		if err != nil {
			return err
		}

		appRow.CurrentStep = next
		if err := s.applicationRepo.Update(txCtx, appRow); err != nil {
			return fmt.Errorf("failed to update current step: %w", err)
		}

		application = appRow
		return nil
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, err
		}
		return nil, NewBusinessError("NAVIGATION_FAILED", "Failed to change step", err)
	}

	// The mirror carries the pointer too, so reconciliation after a cache
	// recovery lands the applicant on the right step.
	s.mirrorSnapshot(ctx, application)

	return s.buildState(ctx, application)
}

func (s *WizardFlowImpl) buildState(ctx context.Context, application *models.CardApplication) (*dto.WizardStateResponse, error) {
	rows, err := s.stepRepo.ListByApplication(ctx, application.ID)
	if err != nil {
		return nil, NewBusinessError("DRAFT_LOAD_FAILED", "Failed to load draft", err)
	}

	versions := make([]models.StepVersion, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, stepVersionFromRecord(row))
	}

	return &dto.WizardStateResponse{
		ApplicationUUID:      application.UUID.String(),
		Mode:                 application.Mode.String(),
		Status:               application.Status.String(),
		CurrentStep:          application.CurrentStep,
		HighestReachableStep: highestReachableStep(s.validator, application),
		CanSubmit:            len(incompleteSteps(s.validator, application)) == 0,
		Steps:                buildStepInfos(s.validator, application, versions),
	}, nil
}

func (s *WizardFlowImpl) mirrorSnapshot(ctx context.Context, application *models.CardApplication) {
	rows, err := s.stepRepo.ListByApplication(ctx, application.ID)
	if err != nil {
		return
	}
	seq, err := s.snapshotRepo.NextSeq(ctx, application.UUID)
	if err != nil {
		return
	}
	snapshot := BuildSnapshot(application, rows, seq)
	_, _ = s.snapshotRepo.Save(ctx, snapshot)
}
