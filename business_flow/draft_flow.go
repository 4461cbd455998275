package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// DraftFlow handles everything that reads or writes draft content: versioned
// step saves, the reconciled draft view, row-level edits on the repeatable
// sections, the root-level gates, and discard. All operations act on the
// application bound to the caller's session.
type DraftFlow interface {
	// SaveStep records one step save against the version the client based its
	// edit on. Validation is advisory: invalid data still persists, the
	// verdict rides the response.
	SaveStep(ctx context.Context, session *models.ApplicantSession, req *dto.SaveStepRequest, metadata *ClientMetadata) (*dto.SaveStepResponse, error)

	// FetchDraft returns the reconciled draft view used to rehydrate the
	// form after a reload or on a new device.
	FetchDraft(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.DraftResponse, error)

	AddBankAccount(ctx context.Context, session *models.ApplicantSession, payload *dto.BankAccountPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error)
	UpdateBankAccount(ctx context.Context, session *models.ApplicantSession, payload *dto.BankAccountPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error)
	RemoveBankAccount(ctx context.Context, session *models.ApplicantSession, rowID string, metadata *ClientMetadata) (*dto.SaveStepResponse, error)

	AddCreditFacility(ctx context.Context, session *models.ApplicantSession, payload *dto.CreditFacilityPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error)
	UpdateCreditFacility(ctx context.Context, session *models.ApplicantSession, payload *dto.CreditFacilityPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error)
	RemoveCreditFacility(ctx context.Context, session *models.ApplicantSession, rowID string, metadata *ClientMetadata) (*dto.SaveStepResponse, error)

	AddReference(ctx context.Context, session *models.ApplicantSession, payload *dto.ReferencePayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error)
	UpdateReference(ctx context.Context, session *models.ApplicantSession, payload *dto.ReferencePayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error)
	RemoveReference(ctx context.Context, session *models.ApplicantSession, rowID string, metadata *ClientMetadata) (*dto.SaveStepResponse, error)

	// SetSupplementaryCard flips the supplementary gate; disabling wipes the
	// stored supplementary holder.
	SetSupplementaryCard(ctx context.Context, session *models.ApplicantSession, req *dto.SupplementaryToggleRequest, metadata *ClientMetadata) (*dto.SaveStepResponse, error)

	// SetAcceptance records the terms and declaration consents gating
	// submission.
	SetAcceptance(ctx context.Context, session *models.ApplicantSession, req *dto.AcceptanceRequest, metadata *ClientMetadata) (*dto.SaveStepResponse, error)

	// DiscardDraft hard-deletes the draft and retires the session.
	DiscardDraft(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.DiscardDraftResponse, error)
}

// DraftFlowImpl implements the draft business flow
type DraftFlowImpl struct {
	applicationRepo repository.CardApplicationRepository
	stepRepo        repository.ApplicationStepRepository
	sessionRepo     repository.ApplicantSessionRepository
	auditRepo       repository.AuditLogRepository
	snapshotRepo    repository.DraftSnapshotRepository
	productRepo     repository.CardProductRepository
	validator       StepValidator
	locks           *stepLocks
	db              *gorm.DB
}

// NewDraftFlow creates a new draft business flow
func NewDraftFlow(
	applicationRepo repository.CardApplicationRepository,
	stepRepo repository.ApplicationStepRepository,
	sessionRepo repository.ApplicantSessionRepository,
	auditRepo repository.AuditLogRepository,
	snapshotRepo repository.DraftSnapshotRepository,
	productRepo repository.CardProductRepository,
	validator StepValidator,
	db *gorm.DB,
) DraftFlow {
	return &DraftFlowImpl{
		applicationRepo: applicationRepo,
		stepRepo:        stepRepo,
		sessionRepo:     sessionRepo,
		auditRepo:       auditRepo,
		snapshotRepo:    snapshotRepo,
		productRepo:     productRepo,
		validator:       validator,
		locks:           newStepLocks(),
		db:              db,
	}
}

// saveConflicts decides the fate of a save against the stored step version.
// nil base: autosave, always accepted. base >= stored: accepted, the client's
// copy is authoritative (a base ahead of the store means the store lost
// history; the write lands on top of what the store has). base < stored:
// conflict, the client rebases onto the authoritative copy.
func saveConflicts(base *int, storedVersion int) bool {
	return base != nil && *base < storedVersion
}

// SaveStep is the write path of the autosave loop. A save conflicts only when
// the client based its edit on a version the store has already moved past; the
// rejection carries the authoritative copy so the client can rebase instead of
// silently overwriting a save from another tab or device. An absent
// BaseVersion (autosave) or a client ahead of the store (the store lost
// history) is accepted, bumping from the stored version.
func (s *DraftFlowImpl) SaveStep(ctx context.Context, session *models.ApplicantSession, req *dto.SaveStepRequest, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	def, ok := models.StepAt(*req.StepNumber)
	if !ok {
		return nil, NewBusinessError("UNKNOWN_STEP", "Unknown step number", ErrUnknownStep)
	}

	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	if !application.Status.IsEditable() {
		return nil, NewBusinessError("APPLICATION_NOT_EDITABLE", "Application can no longer be edited", ErrApplicationNotEditable)
	}
	if def.Number > highestReachableStep(s.validator, application) {
		return nil, NewBusinessError("STEP_NOT_REACHABLE", "Earlier steps must be completed first", ErrStepNotReachable)
	}

	// Serialize same-step saves in-process; the row lock inside the
	// transaction covers other instances.
	unlock := s.locks.lock(application.UUID, def.Number)
	defer unlock()

	var record *models.ApplicationStepRecord
	var validation StepValidationResult

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

		existing, err := s.stepRepo.ByApplicationAndStep(txCtx, appRow.ID, def.Number)
		if err != nil {
			return fmt.Errorf("failed to load step record: %w", err)
		}
		currentVersion := 0
		if existing != nil {
			currentVersion = existing.Version
		}

		if saveConflicts(req.BaseVersion, currentVersion) {
			conflict := &dto.SaveConflictDTO{
				StepNumber:     def.Number,
				CurrentVersion: currentVersion,
			}
			if existing != nil {
				conflict.ServerData = json.RawMessage(existing.Data)
			}
			metricStepSaves.WithLabelValues(saveOutcomeConflict).Inc()
			return NewBusinessErrorWithDetails("SAVE_CONFLICT", "A newer save already exists for this step", ErrSaveConflict, conflict)
		}

		if err := appRow.State.ApplyStep(def.Name, req.Data); err != nil {
			return NewBusinessError("STEP_DATA_MALFORMED", "Step data could not be parsed", ErrStepDataMalformed)
		}

		validation = s.validator.Validate(&appRow.State, def.Number)
		s.checkCardSelection(txCtx, appRow, def, &validation)
		isComplete := stepComplete(s.validator, appRow, def)

		data, err := marshalStepRecord(&appRow.State, def.Name)
		if err != nil {
			return fmt.Errorf("failed to encode step record: %w", err)
		}

		record = &models.ApplicationStepRecord{
			ApplicationID: appRow.ID,
			StepNumber:    def.Number,
			StepName:      def.Name,
			Data:          data,
			IsComplete:    isComplete,
		}
		claimed, err := s.stepRepo.UpsertVersioned(txCtx, record, currentVersion)
		if err != nil {
			return fmt.Errorf("failed to record step save: %w", err)
		}
		if !claimed {
			// Another instance claimed the successor version between our read
			// and the guarded write. Re-read so the conflict carries the copy
			// that actually won.
			conflict := &dto.SaveConflictDTO{
				StepNumber:     def.Number,
				CurrentVersion: currentVersion + 1,
			}
			if latest, lerr := s.stepRepo.ByApplicationAndStep(txCtx, appRow.ID, def.Number); lerr == nil && latest != nil {
				conflict.CurrentVersion = latest.Version
				conflict.ServerData = json.RawMessage(latest.Data)
			}
			metricStepSaves.WithLabelValues(saveOutcomeConflict).Inc()
			return NewBusinessErrorWithDetails("SAVE_CONFLICT", "A newer save already exists for this step", ErrSaveConflict, conflict)
		}

		if err := s.applicationRepo.Update(txCtx, appRow); err != nil {
			return fmt.Errorf("failed to update application state: %w", err)
		}

		application = appRow
		return nil
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, err
		}
		return nil, NewBusinessError("DRAFT_SAVE_UNAVAILABLE", "Draft could not be saved, please retry", ErrTransientSave)
	}

	metricStepSaves.WithLabelValues(saveOutcomeAccepted).Inc()

	// Mirror to cache after commit; the mirror is best-effort and never
	// fails a save.
	s.mirrorSnapshot(ctx, application)

	return &dto.SaveStepResponse{
		Message:    "Step saved successfully",
		StepNumber: def.Number,
		StepName:   def.Name,
		Version:    record.Version,
		IsComplete: record.IsComplete,
		SavedAt:    record.SavedAt,
		Validation: dto.StepValidationDTO{
			OK:          validation.OK,
			FieldErrors: validation.FieldErrors,
		},
	}, nil
}

// FetchDraft merges the authoritative rows with the cache mirror and returns
// the result. When the mirror carried newer saves than the database (a save
// committed to cache but lost before the database write, or a replica
// lagging), the recovered steps are written back so the database catches up.
func (s *DraftFlowImpl) FetchDraft(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.DraftResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}

	rows, err := s.stepRepo.ListByApplication(ctx, application.ID)
	if err != nil {
		return nil, NewBusinessError("DRAFT_LOAD_FAILED", "Failed to load draft", err)
	}

	snap, err := s.snapshotRepo.Load(ctx, application.UUID, application.Mode)
	if err != nil {
		// A dead cache never blocks a read; the database view stands alone.
		snap = nil
	}

	rec := ReconcileDraft(application, rows, snap)

	merged := *application
	merged.State = rec.State
	merged.CurrentStep = rec.CurrentStep

	if rec.UsedSnapshot() {
		s.healFromSnapshot(ctx, application.ID, &rec)
	}

	// Never point the client at a step it cannot reach: completeness may
	// have regressed since the pointer was stored (a row edit emptied a
	// required section, a recovered save was invalid).
	if reachable := highestReachableStep(s.validator, &merged); merged.CurrentStep > reachable {
		merged.CurrentStep = reachable
	}

	stateRaw, err := json.Marshal(&rec.State)
	if err != nil {
		return nil, NewBusinessError("DRAFT_LOAD_FAILED", "Failed to load draft", err)
	}

	return &dto.DraftResponse{
		ApplicationUUID:      application.UUID.String(),
		Mode:                 application.Mode.String(),
		Status:               application.Status.String(),
		CurrentStep:          merged.CurrentStep,
		HighestReachableStep: highestReachableStep(s.validator, &merged),
		CanSubmit:            len(incompleteSteps(s.validator, &merged)) == 0,
		State:                stateRaw,
		Steps:                buildStepInfos(s.validator, &merged, rec.Steps),
		RecoveredFromCache:   rec.UsedSnapshot(),
	}, nil
}

// AddBankAccount appends a bank account row; the server assigns the row ID
// when the client omits one.
func (s *DraftFlowImpl) AddBankAccount(ctx context.Context, session *models.ApplicantSession, payload *dto.BankAccountPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	entry := bankAccountEntry(payload)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return s.mutateStep(ctx, session, models.StepBankAccounts, func(app *models.CardApplication) error {
		app.State.AddBankAccount(entry)
		return nil
	})
}

// UpdateBankAccount replaces a bank account row in place
func (s *DraftFlowImpl) UpdateBankAccount(ctx context.Context, session *models.ApplicantSession, payload *dto.BankAccountPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	entry := bankAccountEntry(payload)
	return s.mutateStep(ctx, session, models.StepBankAccounts, func(app *models.CardApplication) error {
		if !app.State.UpdateBankAccount(entry) {
			return NewBusinessError("ROW_NOT_FOUND", "Bank account entry not found", nil)
		}
		return nil
	})
}

// RemoveBankAccount deletes a bank account row by ID
func (s *DraftFlowImpl) RemoveBankAccount(ctx context.Context, session *models.ApplicantSession, rowID string, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	return s.mutateStep(ctx, session, models.StepBankAccounts, func(app *models.CardApplication) error {
		if !app.State.RemoveBankAccount(rowID) {
			return NewBusinessError("ROW_NOT_FOUND", "Bank account entry not found", nil)
		}
		return nil
	})
}

// AddCreditFacility appends a credit facility row
func (s *DraftFlowImpl) AddCreditFacility(ctx context.Context, session *models.ApplicantSession, payload *dto.CreditFacilityPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	entry := creditFacilityEntry(payload)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return s.mutateStep(ctx, session, models.StepCreditFacilities, func(app *models.CardApplication) error {
		app.State.AddCreditFacility(entry)
		return nil
	})
}

// UpdateCreditFacility replaces a credit facility row in place
func (s *DraftFlowImpl) UpdateCreditFacility(ctx context.Context, session *models.ApplicantSession, payload *dto.CreditFacilityPayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	entry := creditFacilityEntry(payload)
	return s.mutateStep(ctx, session, models.StepCreditFacilities, func(app *models.CardApplication) error {
		if !app.State.UpdateCreditFacility(entry) {
			return NewBusinessError("ROW_NOT_FOUND", "Credit facility entry not found", nil)
		}
		return nil
	})
}

// RemoveCreditFacility deletes a credit facility row by ID
func (s *DraftFlowImpl) RemoveCreditFacility(ctx context.Context, session *models.ApplicantSession, rowID string, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	return s.mutateStep(ctx, session, models.StepCreditFacilities, func(app *models.CardApplication) error {
		if !app.State.RemoveCreditFacility(rowID) {
			return NewBusinessError("ROW_NOT_FOUND", "Credit facility entry not found", nil)
		}
		return nil
	})
}

// AddReference appends a reference row
func (s *DraftFlowImpl) AddReference(ctx context.Context, session *models.ApplicantSession, payload *dto.ReferencePayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	entry := referenceEntry(payload)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return s.mutateStep(ctx, session, models.StepReferences, func(app *models.CardApplication) error {
		app.State.AddReference(entry)
		return nil
	})
}

// UpdateReference replaces a reference row in place
func (s *DraftFlowImpl) UpdateReference(ctx context.Context, session *models.ApplicantSession, payload *dto.ReferencePayload, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	entry := referenceEntry(payload)
	return s.mutateStep(ctx, session, models.StepReferences, func(app *models.CardApplication) error {
		if !app.State.UpdateReference(entry) {
			return NewBusinessError("ROW_NOT_FOUND", "Reference entry not found", nil)
		}
		return nil
	})
}

// RemoveReference deletes a reference row by ID
func (s *DraftFlowImpl) RemoveReference(ctx context.Context, session *models.ApplicantSession, rowID string, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	return s.mutateStep(ctx, session, models.StepReferences, func(app *models.CardApplication) error {
		if !app.State.RemoveReference(rowID) {
			return NewBusinessError("ROW_NOT_FOUND", "Reference entry not found", nil)
		}
		return nil
	})
}

// SetSupplementaryCard flips the supplementary card gate. Turning it off
// drops the stored supplementary holder, so re-enabling starts clean.
func (s *DraftFlowImpl) SetSupplementaryCard(ctx context.Context, session *models.ApplicantSession, req *dto.SupplementaryToggleRequest, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	return s.mutateStep(ctx, session, models.StepSupplementaryCard, func(app *models.CardApplication) error {
		app.State.SetSupplementaryCard(*req.Enabled)
		return nil
	})
}

// SetAcceptance records the consent flags. Nil flags leave the stored values
// untouched so the two checkboxes can be toggled independently.
func (s *DraftFlowImpl) SetAcceptance(ctx context.Context, session *models.ApplicantSession, req *dto.AcceptanceRequest, metadata *ClientMetadata) (*dto.SaveStepResponse, error) {
	return s.mutateStep(ctx, session, models.StepMIDDeclarations, func(app *models.CardApplication) error {
		app.State.SetAcceptance(req.TermsAccepted, req.DeclarationAccepted)
		return nil
	})
}

// DiscardDraft hard-deletes the draft, its step ledger and OTP rows (the
// schema cascades those), unbinds and retires the session, and clears the
// cache mirror. Audit rows survive with the application reference nulled.
func (s *DraftFlowImpl) DiscardDraft(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.DiscardDraftResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	if !application.Status.IsEditable() {
		return nil, NewBusinessError("APPLICATION_NOT_EDITABLE", "Submitted applications cannot be discarded", ErrApplicationNotEditable)
	}

	applicationUUID := application.UUID

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.stepRepo.DeleteByApplication(txCtx, application.ID); err != nil {
			return fmt.Errorf("failed to delete step records: %w", err)
		}

		session.ApplicationID = nil
		if err := s.sessionRepo.Update(txCtx, session); err != nil {
			return fmt.Errorf("failed to unbind session: %w", err)
		}
		if err := s.sessionRepo.ExpireSession(txCtx, session.ID); err != nil {
			return fmt.Errorf("failed to retire session: %w", err)
		}

		if err := s.applicationRepo.Delete(txCtx, application.ID); err != nil {
			return fmt.Errorf("failed to delete application: %w", err)
		}
		return nil
	})
	if err != nil {
		errMsg := err.Error()
		_ = s.createAuditLog(ctx, nil, session.StaffUserID, models.AuditActionDraftDiscarded, "Failed to discard draft "+applicationUUID.String(), false, &errMsg, metadata)
		return nil, NewBusinessError("DRAFT_DISCARD_FAILED", "Failed to discard draft", err)
	}

	_ = s.snapshotRepo.Clear(ctx, applicationUUID)

	// The application row is gone, so the audit entry carries the UUID in
	// its description instead of a foreign key.
	_ = s.createAuditLog(ctx, nil, session.StaffUserID, models.AuditActionDraftDiscarded, "Draft discarded "+applicationUUID.String(), true, nil, metadata)

	return &dto.DiscardDraftResponse{
		Message:         "Draft discarded successfully",
		ApplicationUUID: applicationUUID.String(),
	}, nil
}

// mutateStep is the shared write path for server-driven edits: row adds,
// updates and removals, the supplementary toggle and the acceptance flags.
// These carry no client BaseVersion; the server bumps the step version from
// whatever is current, so a concurrent autosave and a row edit both land as
// distinct versions instead of clobbering each other.
func (s *DraftFlowImpl) mutateStep(ctx context.Context, session *models.ApplicantSession, stepName string, mutate func(app *models.CardApplication) error) (*dto.SaveStepResponse, error) {
	def, ok := models.StepByName(stepName)
	if !ok {
		return nil, NewBusinessError("UNKNOWN_STEP", "Unknown step", ErrUnknownStep)
	}

	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	if !application.Status.IsEditable() {
		return nil, NewBusinessError("APPLICATION_NOT_EDITABLE", "Application can no longer be edited", ErrApplicationNotEditable)
	}
	if def.Number > highestReachableStep(s.validator, application) {
		return nil, NewBusinessError("STEP_NOT_REACHABLE", "Earlier steps must be completed first", ErrStepNotReachable)
	}

	unlock := s.locks.lock(application.UUID, def.Number)
	defer unlock()

	var record *models.ApplicationStepRecord
	var validation StepValidationResult

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

		if err := mutate(appRow); err != nil {
			return err
		}

		existing, err := s.stepRepo.ByApplicationAndStep(txCtx, appRow.ID, def.Number)
		if err != nil {
			return fmt.Errorf("failed to load step record: %w", err)
		}
		currentVersion := 0
		if existing != nil {
			currentVersion = existing.Version
		}

		validation = s.validator.Validate(&appRow.State, def.Number)
		isComplete := stepComplete(s.validator, appRow, def)

		data, err := marshalStepRecord(&appRow.State, def.Name)
		if err != nil {
			return fmt.Errorf("failed to encode step record: %w", err)
		}

		record = &models.ApplicationStepRecord{
			ApplicationID: appRow.ID,
			StepNumber:    def.Number,
			StepName:      def.Name,
			Data:          data,
			IsComplete:    isComplete,
		}
		claimed, err := s.stepRepo.UpsertVersioned(txCtx, record, currentVersion)
		if err != nil {
			return fmt.Errorf("failed to record step save: %w", err)
		}
		if !claimed {
			// No client version to arbitrate here; a lost guard is a plain
			// race and the client simply retries.
			return fmt.Errorf("step version guard lost")
		}

		if err := s.applicationRepo.Update(txCtx, appRow); err != nil {
			return fmt.Errorf("failed to update application state: %w", err)
		}

		application = appRow
		return nil
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, err
		}
		return nil, NewBusinessError("DRAFT_SAVE_UNAVAILABLE", "Draft could not be saved, please retry", ErrTransientSave)
	}

	s.mirrorSnapshot(ctx, application)

	return &dto.SaveStepResponse{
		Message:    "Draft updated successfully",
		StepNumber: def.Number,
		StepName:   def.Name,
		Version:    record.Version,
		IsComplete: record.IsComplete,
		SavedAt:    record.SavedAt,
		Validation: dto.StepValidationDTO{
			OK:          validation.OK,
			FieldErrors: validation.FieldErrors,
		},
	}, nil
}

// checkCardSelection cross-checks the chosen product code against the
// catalog. The verdict is advisory, like the rest of save-time validation:
// the save stands, the field error tells the form what to flag. The step
// validator itself stays database-free, so the catalog check lives here.
func (s *DraftFlowImpl) checkCardSelection(ctx context.Context, app *models.CardApplication, def models.StepDefinition, validation *StepValidationResult) {
	if def.Name != models.StepCardSelection || s.productRepo == nil {
		return
	}
	cs := app.State.CardSelection
	if cs == nil || cs.ProductCode == nil || *cs.ProductCode == "" {
		return
	}

	product, err := s.productRepo.ByCode(ctx, *cs.ProductCode)
	if err != nil {
		// Catalog unavailable; the cross-check silently stands down.
		return
	}
	if product == nil || !utils.IsTrue(product.IsActive) {
		if validation.FieldErrors == nil {
			validation.FieldErrors = make(map[string]string)
		}
		validation.FieldErrors["cardSelection.productCode"] = "this card product is not offered"
		validation.OK = false
	}
}

// mirrorSnapshot rebuilds the cache mirror from the authoritative rows. All
// failures are swallowed: the mirror only ever improves recovery, it never
// gates a write.
func (s *DraftFlowImpl) mirrorSnapshot(ctx context.Context, application *models.CardApplication) {
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

// healFromSnapshot writes steps recovered from the cache mirror back into
// the database. Best-effort: a failed heal leaves the reconciled view
// intact, the next fetch simply reconciles again.
func (s *DraftFlowImpl) healFromSnapshot(ctx context.Context, applicationID uint, rec *ReconcileResult) {
	_ = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		appRow, err := s.applicationRepo.ByIDForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if appRow == nil || !appRow.Status.IsEditable() {
			return nil
		}

		for _, win := range rec.SnapshotWins {
			data, err := marshalStepRecord(&rec.State, win.StepName)
			if err != nil {
				continue
			}
			row := &models.ApplicationStepRecord{
				ApplicationID: appRow.ID,
				StepNumber:    win.StepNumber,
				StepName:      win.StepName,
				Version:       win.Version,
				Data:          data,
				IsComplete:    win.IsComplete,
				SavedAt:       win.SavedAt,
			}
			if err := s.stepRepo.RestoreVersion(txCtx, row); err != nil {
				return err
			}
		}

		appRow.State = rec.State
		if rec.CurrentStep > appRow.CurrentStep {
			appRow.CurrentStep = rec.CurrentStep
		}
		return s.applicationRepo.Update(txCtx, appRow)
	})
}

func (s *DraftFlowImpl) createAuditLog(ctx context.Context, applicationID, staffID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		ApplicationID: applicationID,
		StaffUserID:   staffID,
		Action:        action,
		Description:   &description,
		Success:       utils.ToPtr(success),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
		ErrorMessage:  errorMsg,
	}

	// Extract request ID from context if available
	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}

// marshalStepRecord encodes one step's sub-record for the version ledger.
// An untouched step encodes as JSON null, which is still a valid record.
func marshalStepRecord(state *models.DraftState, stepName string) ([]byte, error) {
	sub, _ := state.StepData(stepName)
	return json.Marshal(sub)
}

func bankAccountEntry(p *dto.BankAccountPayload) models.BankAccountEntry {
	return models.BankAccountEntry{
		ID:            p.ID,
		BankName:      p.BankName,
		BranchName:    p.BranchName,
		AccountNumber: p.AccountNumber,
		AccountType:   p.AccountType,
	}
}

func creditFacilityEntry(p *dto.CreditFacilityPayload) models.CreditFacilityEntry {
	return models.CreditFacilityEntry{
		ID:                 p.ID,
		InstitutionName:    p.InstitutionName,
		FacilityType:       p.FacilityType,
		LimitAmount:        p.LimitAmount,
		OutstandingAmount:  p.OutstandingAmount,
		MonthlyInstallment: p.MonthlyInstallment,
	}
}

func referenceEntry(p *dto.ReferencePayload) models.ReferenceEntry {
	return models.ReferenceEntry{
		ID:           p.ID,
		FullName:     p.FullName,
		Relationship: p.Relationship,
		MobileNumber: p.MobileNumber,
		Address:      p.Address,
	}
}
