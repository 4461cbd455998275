package businessflow

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/services"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	apptesting "github.com/appform-bd/cardapply/testing"
	"github.com/appform-bd/cardapply/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupOTPFlowTest wires the OTP flow against real stores. Skipped unless both
// TEST_DB_HOST and TEST_REDIS_ADDR point at reachable servers.
func setupOTPFlowTest(t *testing.T) (OTPFlow, *apptesting.TestDB, *apptesting.TestFixtures) {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set, skipping database tests")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	testDB, err := apptesting.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = testDB.TeardownTestDB() })

	flow := NewOTPFlow(
		repository.NewCardApplicationRepository(testDB.DB),
		repository.NewOTPVerificationRepository(testDB.DB),
		repository.NewApplicantSessionRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		repository.NewOTPRateLimiter(client, 5, time.Hour, time.Minute, 15*time.Minute),
		services.NewNotificationService(services.NewMockSMSProvider()),
		5*time.Minute,
		testDB.DB,
	)
	return flow, testDB, apptesting.NewTestFixtures(testDB)
}

func TestVerifyOTPResumeDeletesShell(t *testing.T) {
	flow, testDB, fixtures := setupOTPFlowTest(t)
	appRepo := repository.NewCardApplicationRepository(testDB.DB)
	ctx := context.Background()

	mobile := apptesting.RandomMobileNumber()
	nid := "1234567890"

	// An earlier session left an unfinished draft behind
	earlier, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)
	earlier.MobileNumber = &mobile
	earlier.NationalID = &nid
	earlier.CurrentStep = 4
	earlier.State.MarkOTPVerified()
	require.NoError(t, appRepo.Update(ctx, earlier))

	// The new session starts from an empty shell carrying the same identity
	shell, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)
	shell.State.PreApplication = &models.PreApplicationData{
		MobileNumber: &mobile,
		NationalID:   &nid,
	}
	require.NoError(t, appRepo.Update(ctx, shell))

	session, err := fixtures.CreateTestSession(&shell.ID, models.ApplicationModeSelf)
	require.NoError(t, err)

	_, err = fixtures.CreateTestOTP(shell.ID, "123456")
	require.NoError(t, err)

	resp, err := flow.VerifyOTP(ctx, session, &dto.OTPVerifyRequest{OTPCode: "123456"}, NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	assert.True(t, resp.Resumed)
	assert.Equal(t, earlier.UUID.String(), resp.ApplicationUUID)
	assert.Equal(t, 4, resp.CurrentStep)

	// The session now points at the resumed draft
	require.NotNil(t, session.ApplicationID)
	assert.Equal(t, earlier.ID, *session.ApplicationID)

	// The superseded shell is gone, not left for the stale-draft sweeper
	gone, err := appRepo.ByID(ctx, shell.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestVerifyOTPWrongCodeCountsAttempt(t *testing.T) {
	flow, testDB, fixtures := setupOTPFlowTest(t)
	otpRepo := repository.NewOTPVerificationRepository(testDB.DB)
	ctx := context.Background()

	app, err := fixtures.CreateTestApplication(models.ApplicationModeSelf)
	require.NoError(t, err)
	app.State.PreApplication = &models.PreApplicationData{
		MobileNumber: utils.ToPtr(apptesting.RandomMobileNumber()),
		NationalID:   utils.ToPtr("1234567890"),
	}
	require.NoError(t, repository.NewCardApplicationRepository(testDB.DB).Update(ctx, app))

	session, err := fixtures.CreateTestSession(&app.ID, models.ApplicationModeSelf)
	require.NoError(t, err)

	otp, err := fixtures.CreateTestOTP(app.ID, "654321")
	require.NoError(t, err)

	_, err = flow.VerifyOTP(ctx, session, &dto.OTPVerifyRequest{OTPCode: "000000"}, NewClientMetadata("127.0.0.1", "test"))
	require.Error(t, err)
	assert.True(t, IsInvalidOTPCode(err))

	row, err := otpRepo.ByID(ctx, otp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, row.AttemptsCount)
	assert.Equal(t, models.OTPStatusPending, row.Status)
}
