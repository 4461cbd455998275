// Package testing provides test utilities and database setup for the card application service
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// RandomMobileNumber returns a valid local mobile number (11 digits, 01 prefix)
func RandomMobileNumber() string {
	return fmt.Sprintf("01%d%08d", mrand.Intn(8)+2, mrand.Intn(100000000))
}

// CreateTestApplication creates a draft application in the given mode
func (tf *TestFixtures) CreateTestApplication(mode models.ApplicationMode) (*models.CardApplication, error) {
	mobile := RandomMobileNumber()
	app := &models.CardApplication{
		UUID:         uuid.New(),
		Mode:         mode,
		Status:       models.ApplicationStatusDraft,
		CurrentStep:  0,
		MobileNumber: &mobile,
		State:        models.DraftState{},
	}

	if err := tf.DB.DB.Create(app).Error; err != nil {
		return nil, fmt.Errorf("failed to create test application: %w", err)
	}

	return app, nil
}

// CreateSubmittedApplication creates an application already past the wizard
func (tf *TestFixtures) CreateSubmittedApplication() (*models.CardApplication, error) {
	app, err := tf.CreateTestApplication(models.ApplicationModeSelf)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	app.Status = models.ApplicationStatusSubmitted
	app.SubmittedAt = &now
	app.State.TermsAccepted = true
	app.State.DeclarationAccepted = true

	if err := tf.DB.DB.Save(app).Error; err != nil {
		return nil, fmt.Errorf("failed to submit test application: %w", err)
	}

	return app, nil
}

// CreateTestSession creates an active applicant session bound to an application
func (tf *TestFixtures) CreateTestSession(applicationID *uint, mode models.ApplicationMode) (*models.ApplicantSession, error) {
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.ApplicantSession{
		SessionUUID:    uuid.New(),
		ApplicationID:  applicationID,
		Mode:           mode,
		IPAddress:      &ipAddress,
		UserAgent:      &userAgent,
		TTLSeconds:     1800,
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow(),
		LastAccessedAt: utils.UTCNow(),
		ExpiresAt:      utils.UTCNow().Add(30 * time.Minute),
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateExpiredSession creates a session whose expiry is in the past
func (tf *TestFixtures) CreateExpiredSession(applicationID *uint) (*models.ApplicantSession, error) {
	session := &models.ApplicantSession{
		SessionUUID:    uuid.New(),
		ApplicationID:  applicationID,
		Mode:           models.ApplicationModeSelf,
		TTLSeconds:     1800,
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow().Add(-2 * time.Hour),
		LastAccessedAt: utils.UTCNow().Add(-1 * time.Hour),
		ExpiresAt:      utils.UTCNow().Add(-30 * time.Minute),
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create expired session: %w", err)
	}

	return session, nil
}

// CreateTestOTP creates a pending OTP verification record
func (tf *TestFixtures) CreateTestOTP(applicationID uint, otpCode string) (*models.OTPVerification, error) {
	otp := &models.OTPVerification{
		CorrelationID: uuid.New(),
		ApplicationID: applicationID,
		OTPCode:       otpCode,
		MobileNumber:  RandomMobileNumber(),
		Status:        models.OTPStatusPending,
		AttemptsCount: 0,
		MaxAttempts:   3,
		CreatedAt:     utils.UTCNow(),
		ExpiresAt:     utils.UTCNow().Add(5 * time.Minute),
	}

	if err := tf.DB.DB.Create(otp).Error; err != nil {
		return nil, fmt.Errorf("failed to create test OTP: %w", err)
	}

	return otp, nil
}

// CreateExpiredOTP creates an expired OTP for testing
func (tf *TestFixtures) CreateExpiredOTP(applicationID uint) (*models.OTPVerification, error) {
	otp := &models.OTPVerification{
		CorrelationID: uuid.New(),
		ApplicationID: applicationID,
		OTPCode:       "123456",
		MobileNumber:  RandomMobileNumber(),
		Status:        models.OTPStatusPending,
		AttemptsCount: 0,
		MaxAttempts:   3,
		CreatedAt:     utils.UTCNow().Add(-2 * time.Hour),
		ExpiresAt:     utils.UTCNow().Add(-1 * time.Hour),
	}

	if err := tf.DB.DB.Create(otp).Error; err != nil {
		return nil, fmt.Errorf("failed to create expired OTP: %w", err)
	}

	return otp, nil
}

// CreateTestStaffUser creates an active staff account with the given role
func (tf *TestFixtures) CreateTestStaffUser(role string) (*models.StaffUser, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	staff := &models.StaffUser{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("staff_%s_%d", role, mrand.Intn(1000000)),
		FullName:     "Test Staff",
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to create test staff user: %w", err)
	}

	return staff, nil
}

// CreateTestCardProduct inserts one catalog entry
func (tf *TestFixtures) CreateTestCardProduct(code string) (*models.CardProduct, error) {
	product := &models.CardProduct{
		UUID:                uuid.New(),
		Code:                code,
		Name:                fmt.Sprintf("Test Card %s", code),
		Network:             models.CardNetworkVisa,
		Tier:                models.CardTierClassic,
		AnnualFee:           "1500.00",
		InterestRateMonthly: "2.50",
		CreditLimitMin:      "10000.00",
		CreditLimitMax:      "100000.00",
		IsActive:            utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create test card product: %w", err)
	}

	return product, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(applicationID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		ApplicationID: applicationID,
		Action:        action,
		Description:   &description,
		Success:       &success,
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// GenerateSecureToken returns a random URL-safe token
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
