package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/appform-bd/cardapply/models"
	apptesting "github.com/appform-bd/cardapply/testing"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRepoTest provisions a throwaway database. Tests are skipped unless
// TEST_DB_HOST points at a reachable PostgreSQL server.
func setupRepoTest(t *testing.T) (*apptesting.TestDB, *apptesting.TestFixtures) {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set, skipping database tests")
	}

	testDB, err := apptesting.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testDB.TeardownTestDB()
	})

	return testDB, apptesting.NewTestFixtures(testDB)
}

func TestCardApplicationRepositoryCRUD(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewCardApplicationRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)

	loaded, err := repo.ByUUID(ctx, app.UUID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, app.ID, loaded.ID)
	assert.Equal(t, models.ApplicationStatusDraft, loaded.Status)

	missing, err := repo.ByUUID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	loaded.CurrentStep = 3
	loaded.State.CardSelection = &models.CardSelectionData{ProductCode: utils.ToPtr("VISA_GOLD")}
	require.NoError(t, repo.Update(ctx, loaded))

	reloaded, err := repo.ByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.CurrentStep)
	require.NotNil(t, reloaded.State.CardSelection)
	assert.Equal(t, "VISA_GOLD", utils.Deref(reloaded.State.CardSelection.ProductCode))

	require.NoError(t, repo.UpdateStatus(ctx, app.ID, models.ApplicationStatusPendingOTP))
	reloaded, err = repo.ByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPendingOTP, reloaded.Status)
}

func TestLatestUnfinishedByIdentity(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewCardApplicationRepository(testDB.DB)
	ctx := context.Background()

	mobile := apptesting.RandomMobileNumber()
	nid := "1234567890"

	older, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)
	older.MobileNumber = &mobile
	older.NationalID = &nid
	require.NoError(t, repo.Update(ctx, older))

	// A fresh draft by the same identity; resume must exclude the caller's own
	fresh, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)
	fresh.MobileNumber = &mobile
	fresh.NationalID = &nid
	require.NoError(t, repo.Update(ctx, fresh))

	found, err := repo.LatestUnfinishedByIdentity(ctx, mobile, nid, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, older.ID, found.ID)

	// Submitted applications are not resumable
	require.NoError(t, repo.UpdateStatus(ctx, older.ID, models.ApplicationStatusSubmitted))
	found, err = repo.LatestUnfinishedByIdentity(ctx, mobile, nid, fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestListStaleDrafts(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewCardApplicationRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)

	// Nothing is stale against a cutoff in the past
	stale, err := repo.ListStaleDrafts(ctx, utils.UTCNow().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, stale)

	stale, err = repo.ListStaleDrafts(ctx, utils.UTCNow().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, app.ID, stale[0].ID)

	// Submitted applications never count as stale drafts
	require.NoError(t, repo.UpdateStatus(ctx, app.ID, models.ApplicationStatusSubmitted))
	stale, err = repo.ListStaleDrafts(ctx, utils.UTCNow().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestUpsertVersionedGuard(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewApplicationStepRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)

	record := &models.ApplicationStepRecord{
		ApplicationID: app.ID,
		StepNumber:    1,
		StepName:      models.StepCardSelection,
		Data:          []byte(`{"productCode":"VISA_CLASSIC"}`),
	}

	// First save creates the row at version 1
	ok, err := repo.UpsertVersioned(ctx, record, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := repo.ByApplicationAndStep(ctx, app.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 1, row.Version)

	// Save against the current version advances it
	record.Data = []byte(`{"productCode":"VISA_GOLD"}`)
	ok, err = repo.UpsertVersioned(ctx, record, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	row, err = repo.ByApplicationAndStep(ctx, app.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, row.Version)

	// A stale writer loses the guard and changes nothing
	record.Data = []byte(`{"productCode":"STALE"}`)
	ok, err = repo.UpsertVersioned(ctx, record, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	row, err = repo.ByApplicationAndStep(ctx, app.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, row.Version)
	assert.JSONEq(t, `{"productCode":"VISA_GOLD"}`, string(row.Data))
}

func TestRestoreVersionNeverDowngrades(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewApplicationStepRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)

	// Restoring into a missing row inserts it
	require.NoError(t, repo.RestoreVersion(ctx, &models.ApplicationStepRecord{
		ApplicationID: app.ID,
		StepNumber:    2,
		StepName:      models.StepPersonalInfo,
		Version:       4,
		Data:          []byte(`{"firstName":"Rahim"}`),
	}))

	row, err := repo.ByApplicationAndStep(ctx, app.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 4, row.Version)

	// A lower restore is a no-op
	require.NoError(t, repo.RestoreVersion(ctx, &models.ApplicationStepRecord{
		ApplicationID: app.ID,
		StepNumber:    2,
		StepName:      models.StepPersonalInfo,
		Version:       2,
		Data:          []byte(`{"firstName":"Old"}`),
	}))

	row, err = repo.ByApplicationAndStep(ctx, app.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, row.Version)
	assert.JSONEq(t, `{"firstName":"Rahim"}`, string(row.Data))
}

func TestApplicantSessionRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewApplicantSessionRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)

	session, err := fixtures.CreateTestSession(&app.ID, models.ApplicationModeSelf)
	require.NoError(t, err)

	loaded, err := repo.BySessionUUID(ctx, session.SessionUUID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, session.ID, loaded.ID)

	require.NoError(t, repo.ExpireSession(ctx, session.ID))
	loaded, err = repo.BySessionUUID(ctx, session.SessionUUID)
	require.NoError(t, err)
	assert.False(t, utils.IsTrue(loaded.IsActive))
}

func TestDeactivateExpiredSessions(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewApplicantSessionRepository(testDB.DB)
	ctx := context.Background()

	live, err := fixtures.CreateTestSession(nil, models.ApplicationModeSelf)
	require.NoError(t, err)
	expired, err := fixtures.CreateExpiredSession(nil)
	require.NoError(t, err)

	count, err := repo.DeactivateExpired(ctx, utils.UTCNow())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	reloaded, err := repo.BySessionUUID(ctx, expired.SessionUUID)
	require.NoError(t, err)
	assert.False(t, utils.IsTrue(reloaded.IsActive))

	reloaded, err = repo.BySessionUUID(ctx, live.SessionUUID)
	require.NoError(t, err)
	assert.True(t, utils.IsTrue(reloaded.IsActive))

	// Second sweep finds nothing
	count, err = repo.DeactivateExpired(ctx, utils.UTCNow())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestOTPVerificationRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewOTPVerificationRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)

	first, err := fixtures.CreateTestOTP(app.ID, "111111")
	require.NoError(t, err)

	// A re-request expires pending rows before inserting the next one
	require.NoError(t, repo.ExpireOldOTPs(ctx, app.ID))

	second, err := fixtures.CreateTestOTP(app.ID, "222222")
	require.NoError(t, err)

	pending, err := repo.LatestPendingByApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, second.ID, pending.ID)

	expiredRow, err := repo.ByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OTPStatusExpired, expiredRow.Status)

	require.NoError(t, repo.IncrementAttempts(ctx, second.ID, false))
	row, err := repo.ByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, row.AttemptsCount)
	assert.Equal(t, models.OTPStatusPending, row.Status)

	require.NoError(t, repo.MarkVerified(ctx, second.ID))
	row, err = repo.ByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OTPStatusVerified, row.Status)
	assert.NotNil(t, row.VerifiedAt)

	// Exhausting attempts flips the row to failed
	third, err := fixtures.CreateTestOTP(app.ID, "333333")
	require.NoError(t, err)
	require.NoError(t, repo.IncrementAttempts(ctx, third.ID, true))
	row, err = repo.ByID(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, row.AttemptsCount)
	assert.Equal(t, models.OTPStatusFailed, row.Status)
}

func TestCardProductRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewCardProductRepository(testDB.DB)
	ctx := context.Background()

	product, err := fixtures.CreateTestCardProduct("VISA_CLASSIC")
	require.NoError(t, err)

	// Inactive products are invisible to the catalog listing
	inactive, err := fixtures.CreateTestCardProduct("OLD_CARD")
	require.NoError(t, err)
	inactive.IsActive = utils.ToPtr(false)
	require.NoError(t, repo.Save(ctx, inactive))

	byCode, err := repo.ByCode(ctx, "VISA_CLASSIC")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, product.ID, byCode.ID)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "VISA_CLASSIC", active[0].Code)
}

func TestStaffUserRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewStaffUserRepository(testDB.DB)
	ctx := context.Background()

	staff, err := fixtures.CreateTestStaffUser(models.StaffRoleReviewer)
	require.NoError(t, err)

	loaded, err := repo.ByUsername(ctx, staff.Username)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, staff.ID, loaded.ID)

	missing, err := repo.ByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	at := utils.UTCNow()
	require.NoError(t, repo.UpdateLastLogin(ctx, staff.ID, at))
	loaded, err = repo.ByID(ctx, staff.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLoginAt)
	assert.WithinDuration(t, at, *loaded.LastLoginAt, time.Second)
}

func TestAuditLogRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := NewAuditLogRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)

	_, err = fixtures.CreateTestAuditLog(&app.ID, models.AuditActionApplicationSubmitted, true)
	require.NoError(t, err)
	_, err = fixtures.CreateTestAuditLog(&app.ID, models.AuditActionOTPFailed, false)
	require.NoError(t, err)

	byApp, err := repo.ListByApplication(ctx, app.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byApp, 2)

	byAction, err := repo.ListByAction(ctx, models.AuditActionApplicationSubmitted, 10, 0)
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, models.AuditActionApplicationSubmitted, byAction[0].Action)

	failed, err := repo.ListFailedActions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.AuditActionOTPFailed, failed[0].Action)
}
