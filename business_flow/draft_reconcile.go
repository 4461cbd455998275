package businessflow

import (
	"sort"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
)

// ReconcileResult is the merged draft view produced from the database rows
// and the cache mirror. State shares sub-records with its inputs; callers
// treat it as read-only.
type ReconcileResult struct {
	State       models.DraftState
	CurrentStep int
	Steps       []models.StepVersion

	// SnapshotWins lists the steps adopted from the cache mirror because it
	// carried a strictly higher version than the database row. The draft flow
	// writes these back so the database catches up.
	SnapshotWins []models.StepVersion
}

// UsedSnapshot reports whether any step was adopted from the cache mirror.
func (r *ReconcileResult) UsedSnapshot() bool {
	return len(r.SnapshotWins) > 0
}

// ReconcileDraft merges the authoritative application row and its step ledger
// with the cache-side snapshot. Per step the strictly higher version wins;
// ties and absent mirrors keep the database copy. The current-step pointer
// follows the database unless the mirror won at least one step, in which case
// the larger pointer wins, since a mirror that is ahead on content makes the
// database pointer equally suspect.
//
// A nil snapshot, or one stamped with a different application UUID, yields
// the pure database view.
func ReconcileDraft(app *models.CardApplication, rows []*models.ApplicationStepRecord, snap *models.DraftSnapshot) ReconcileResult {
	state := app.State

	if snap != nil && snap.ApplicationUUID != app.UUID {
		snap = nil
	}

	byNumber := make(map[int]*models.ApplicationStepRecord, len(rows))
	for _, row := range rows {
		byNumber[row.StepNumber] = row
	}

	steps := make([]models.StepVersion, 0, len(rows))
	var wins []models.StepVersion

	for _, def := range models.Steps() {
		row, hasRow := byNumber[def.Number]

		var mirror models.StepVersion
		hasMirror := false
		if snap != nil {
			mirror, hasMirror = snap.StepVersionAt(def.Number)
		}

		rowVersion := 0
		if hasRow {
			rowVersion = row.Version
		}

		switch {
		case hasMirror && mirror.Version > rowVersion:
			state.AdoptStep(def.Name, &snap.State)
			steps = append(steps, mirror)
			wins = append(wins, mirror)
		case hasRow:
			steps = append(steps, stepVersionFromRecord(row))
		}
	}

	current := app.CurrentStep
	if len(wins) > 0 && snap.CurrentStep > current {
		current = snap.CurrentStep
	}

	return ReconcileResult{
		State:        state,
		CurrentStep:  current,
		Steps:        steps,
		SnapshotWins: wins,
	}
}

// BuildSnapshot assembles the cache mirror of a draft from its authoritative
// rows, stamped with the given sequence number.
func BuildSnapshot(app *models.CardApplication, rows []*models.ApplicationStepRecord, seq int64) *models.DraftSnapshot {
	steps := make([]models.StepVersion, 0, len(rows))
	for _, row := range rows {
		steps = append(steps, stepVersionFromRecord(row))
	}
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].StepNumber < steps[j].StepNumber
	})
	return &models.DraftSnapshot{
		ApplicationUUID: app.UUID,
		Mode:            app.Mode,
		Seq:             seq,
		CurrentStep:     app.CurrentStep,
		State:           app.State,
		Steps:           steps,
		SavedAt:         utils.UTCNow(),
	}
}

func stepVersionFromRecord(row *models.ApplicationStepRecord) models.StepVersion {
	return models.StepVersion{
		StepNumber: row.StepNumber,
		StepName:   row.StepName,
		Version:    row.Version,
		IsComplete: row.IsComplete,
		SavedAt:    row.SavedAt,
	}
}
