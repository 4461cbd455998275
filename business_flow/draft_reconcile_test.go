package businessflow

import (
	"testing"
	"time"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconcileApp() *models.CardApplication {
	app := &models.CardApplication{
		ID:          1,
		UUID:        uuid.New(),
		Mode:        models.ApplicationModeSelf,
		Status:      models.ApplicationStatusDraft,
		CurrentStep: 2,
	}
	app.State.CardSelection = &models.CardSelectionData{ProductCode: utils.ToPtr("VISA_CLASSIC")}
	app.State.PersonalInfo = &models.PersonalInfoData{FirstName: utils.ToPtr("Rahim")}
	return app
}

func stepRow(appID uint, number int, version int) *models.ApplicationStepRecord {
	def, _ := models.StepAt(number)
	return &models.ApplicationStepRecord{
		ApplicationID: appID,
		StepNumber:    number,
		StepName:      def.Name,
		Version:       version,
		SavedAt:       utils.UTCNow(),
	}
}

func TestReconcileDraftWithoutSnapshot(t *testing.T) {
	app := reconcileApp()
	rows := []*models.ApplicationStepRecord{
		stepRow(app.ID, 1, 3),
		stepRow(app.ID, 2, 1),
	}

	res := ReconcileDraft(app, rows, nil)

	assert.False(t, res.UsedSnapshot())
	assert.Equal(t, 2, res.CurrentStep)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, 3, res.Steps[0].Version)
	assert.Equal(t, "VISA_CLASSIC", utils.Deref(res.State.CardSelection.ProductCode))
}

func TestReconcileSnapshotStrictlyHigherVersionWins(t *testing.T) {
	app := reconcileApp()
	rows := []*models.ApplicationStepRecord{
		stepRow(app.ID, 1, 3),
		stepRow(app.ID, 2, 1),
	}

	snap := &models.DraftSnapshot{
		ApplicationUUID: app.UUID,
		Mode:            app.Mode,
		Seq:             10,
		CurrentStep:     2,
		Steps: []models.StepVersion{
			{StepNumber: 1, StepName: models.StepCardSelection, Version: 4, SavedAt: utils.UTCNow()},
			{StepNumber: 2, StepName: models.StepPersonalInfo, Version: 1, SavedAt: utils.UTCNow()},
		},
	}
	snap.State.CardSelection = &models.CardSelectionData{ProductCode: utils.ToPtr("VISA_GOLD")}
	snap.State.PersonalInfo = &models.PersonalInfoData{FirstName: utils.ToPtr("STALE")}

	res := ReconcileDraft(app, rows, snap)

	require.True(t, res.UsedSnapshot())
	require.Len(t, res.SnapshotWins, 1)
	assert.Equal(t, 1, res.SnapshotWins[0].StepNumber)

	// The winning step is adopted from the mirror
	assert.Equal(t, "VISA_GOLD", utils.Deref(res.State.CardSelection.ProductCode))
	// Ties keep the database copy
	assert.Equal(t, "Rahim", utils.Deref(res.State.PersonalInfo.FirstName))
}

func TestReconcileTieKeepsDatabase(t *testing.T) {
	app := reconcileApp()
	rows := []*models.ApplicationStepRecord{stepRow(app.ID, 1, 2)}

	snap := &models.DraftSnapshot{
		ApplicationUUID: app.UUID,
		CurrentStep:     5,
		Steps: []models.StepVersion{
			{StepNumber: 1, StepName: models.StepCardSelection, Version: 2},
		},
	}
	snap.State.CardSelection = &models.CardSelectionData{ProductCode: utils.ToPtr("VISA_GOLD")}

	res := ReconcileDraft(app, rows, snap)

	assert.False(t, res.UsedSnapshot())
	assert.Equal(t, "VISA_CLASSIC", utils.Deref(res.State.CardSelection.ProductCode))
	// The pointer only follows the mirror when the mirror won a step
	assert.Equal(t, 2, res.CurrentStep)
}

func TestReconcileCurrentStepFollowsWinningSnapshot(t *testing.T) {
	app := reconcileApp()
	rows := []*models.ApplicationStepRecord{stepRow(app.ID, 1, 1)}

	snap := &models.DraftSnapshot{
		ApplicationUUID: app.UUID,
		CurrentStep:     6,
		Steps: []models.StepVersion{
			{StepNumber: 1, StepName: models.StepCardSelection, Version: 2},
		},
	}
	snap.State.CardSelection = &models.CardSelectionData{ProductCode: utils.ToPtr("VISA_GOLD")}

	res := ReconcileDraft(app, rows, snap)
	require.True(t, res.UsedSnapshot())
	assert.Equal(t, 6, res.CurrentStep)

	// A mirror behind the database pointer never drags it backwards
	snap.CurrentStep = 1
	res = ReconcileDraft(reconcileApp(), rows, snap)
	assert.NotEqual(t, 1, res.CurrentStep)
}

func TestReconcileIgnoresForeignSnapshot(t *testing.T) {
	app := reconcileApp()
	rows := []*models.ApplicationStepRecord{stepRow(app.ID, 1, 1)}

	snap := &models.DraftSnapshot{
		ApplicationUUID: uuid.New(), // different application
		CurrentStep:     9,
		Steps: []models.StepVersion{
			{StepNumber: 1, StepName: models.StepCardSelection, Version: 99},
		},
	}
	snap.State.CardSelection = &models.CardSelectionData{ProductCode: utils.ToPtr("OTHER")}

	res := ReconcileDraft(app, rows, snap)

	assert.False(t, res.UsedSnapshot())
	assert.Equal(t, "VISA_CLASSIC", utils.Deref(res.State.CardSelection.ProductCode))
	assert.Equal(t, 2, res.CurrentStep)
}

func TestReconcileMirrorOnlyStep(t *testing.T) {
	// The mirror knows a step the database has no row for yet
	app := reconcileApp()
	rows := []*models.ApplicationStepRecord{stepRow(app.ID, 1, 1)}

	snap := &models.DraftSnapshot{
		ApplicationUUID: app.UUID,
		CurrentStep:     3,
		Steps: []models.StepVersion{
			{StepNumber: 3, StepName: models.StepProfessionalInfo, Version: 1},
		},
	}
	snap.State.ProfessionalInfo = &models.ProfessionalInfoData{Occupation: utils.ToPtr("Engineer")}

	res := ReconcileDraft(app, rows, snap)

	require.True(t, res.UsedSnapshot())
	require.NotNil(t, res.State.ProfessionalInfo)
	assert.Equal(t, "Engineer", utils.Deref(res.State.ProfessionalInfo.Occupation))
	require.Len(t, res.Steps, 2)
	assert.Equal(t, 3, res.CurrentStep)
}

func TestBuildSnapshot(t *testing.T) {
	app := reconcileApp()
	rows := []*models.ApplicationStepRecord{
		stepRow(app.ID, 2, 1),
		stepRow(app.ID, 1, 3),
	}

	snap := BuildSnapshot(app, rows, 42)

	assert.Equal(t, app.UUID, snap.ApplicationUUID)
	assert.Equal(t, app.Mode, snap.Mode)
	assert.Equal(t, int64(42), snap.Seq)
	assert.Equal(t, app.CurrentStep, snap.CurrentStep)
	assert.WithinDuration(t, utils.UTCNow(), snap.SavedAt, time.Second)

	// Steps come out sorted by step number regardless of input order
	require.Len(t, snap.Steps, 2)
	assert.Equal(t, 1, snap.Steps[0].StepNumber)
	assert.Equal(t, 2, snap.Steps[1].StepNumber)

	v, ok := snap.StepVersionAt(1)
	require.True(t, ok)
	assert.Equal(t, 3, v.Version)

	_, ok = snap.StepVersionAt(7)
	assert.False(t, ok)
}
