// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		"test-secret-key-for-jwt-signing-32-chars", // secretKey
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name            string
		accessTokenTTL  time.Duration
		refreshTokenTTL time.Duration
		issuer          string
		audience        string
		useRSAKeys      bool
		privateKeyPEM   string
		publicKeyPEM    string
		secretKey       string
		expectError     bool
	}{
		{
			name:            "valid symmetric key configuration",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			issuer:          "test-issuer",
			audience:        "test-audience",
			useRSAKeys:      false,
			privateKeyPEM:   "",
			publicKeyPEM:    "",
			secretKey:       "test-secret-key-for-jwt-signing-32-chars",
			expectError:     false,
		},
		{
			name:            "missing secret key",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			issuer:          "test-issuer",
			audience:        "test-audience",
			useRSAKeys:      false,
			privateKeyPEM:   "",
			publicKeyPEM:    "",
			secretKey:       "",
			expectError:     true,
		},
		{
			name:            "empty issuer and audience",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			issuer:          "",
			audience:        "",
			useRSAKeys:      false,
			privateKeyPEM:   "",
			publicKeyPEM:    "",
			secretKey:       "test-secret-key-for-jwt-signing-32-chars",
			expectError:     false, // Should not error, just use empty strings
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(
				tt.accessTokenTTL,
				tt.refreshTokenTTL,
				tt.issuer,
				tt.audience,
				tt.useRSAKeys,
				tt.privateKeyPEM,
				tt.publicKeyPEM,
				tt.secretKey,
			)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestGenerateSessionToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name        string
		sessionUUID uuid.UUID
		ttl         time.Duration
	}{
		{
			name:        "fresh session uuid",
			sessionUUID: uuid.New(),
			ttl:         30 * time.Minute,
		},
		{
			name:        "long ttl",
			sessionUUID: uuid.New(),
			ttl:         24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.GenerateSessionToken(tt.sessionUUID, tt.ttl)

			assert.NoError(t, err)
			assert.NotEmpty(t, token)

			// Verify token is valid JWT format (should start with "eyJ")
			assert.Contains(t, token, "eyJ")

			claims, err := service.ValidateSessionToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.sessionUUID, claims.SessionUUID)
			assert.NotEmpty(t, claims.TokenID)
			assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
		})
	}
}

func TestValidateSessionToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	sessionUUID := uuid.New()
	sessionToken, err := service.GenerateSessionToken(sessionUUID, 30*time.Minute)
	require.NoError(t, err)

	// A staff token must not pass session validation
	staffAccess, _, err := service.GenerateStaffTokens(42)
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{
			name:        "valid session token",
			token:       sessionToken,
			expectError: false,
		},
		{
			name:        "staff token rejected",
			token:       staffAccess,
			expectError: true,
		},
		{
			name:        "empty token",
			token:       "",
			expectError: true,
		},
		{
			name:        "invalid token format",
			token:       "invalid.token.format",
			expectError: true,
		},
		{
			name:        "malformed token",
			token:       "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateSessionToken(tt.token)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, sessionUUID, claims.SessionUUID)
				assert.NotEmpty(t, claims.TokenID)
				assert.False(t, claims.IssuedAt.IsZero())
				assert.False(t, claims.ExpiresAt.IsZero())
			}
		})
	}
}

func TestGenerateStaffTokens(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name    string
		staffID uint
	}{
		{
			name:    "valid staff ID",
			staffID: 123,
		},
		{
			name:    "large staff ID",
			staffID: 999999999,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accessToken, refreshToken, err := service.GenerateStaffTokens(tt.staffID)

			assert.NoError(t, err)
			assert.NotEmpty(t, accessToken)
			assert.NotEmpty(t, refreshToken)
			assert.NotEqual(t, accessToken, refreshToken)

			accessClaims, err := service.ValidateStaffToken(accessToken)
			require.NoError(t, err)
			assert.Equal(t, tt.staffID, accessClaims.StaffID)
			assert.Equal(t, "access", accessClaims.TokenType)

			refreshClaims, err := service.ValidateStaffToken(refreshToken)
			require.NoError(t, err)
			assert.Equal(t, tt.staffID, refreshClaims.StaffID)
			assert.Equal(t, "refresh", refreshClaims.TokenType)

			// Token IDs should be different
			assert.NotEqual(t, accessClaims.TokenID, refreshClaims.TokenID)
		})
	}
}

func TestValidateStaffToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, _, err := service.GenerateStaffTokens(123)
	require.NoError(t, err)

	sessionToken, err := service.GenerateSessionToken(uuid.New(), 30*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{
			name:        "valid staff token",
			token:       accessToken,
			expectError: false,
		},
		{
			name:        "session token rejected",
			token:       sessionToken,
			expectError: true,
		},
		{
			name:        "empty token",
			token:       "",
			expectError: true,
		},
		{
			name:        "invalid token",
			token:       "invalid.token",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateStaffToken(tt.token)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, uint(123), claims.StaffID)
				assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
			}
		})
	}
}

func TestRefreshStaffTokens(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateStaffTokens(123)
	require.NoError(t, err)

	tests := []struct {
		name         string
		refreshToken string
		expectError  bool
	}{
		{
			name:         "valid refresh token",
			refreshToken: refreshToken,
			expectError:  false,
		},
		{
			name:         "empty refresh token",
			refreshToken: "",
			expectError:  true,
		},
		{
			name:         "invalid refresh token",
			refreshToken: "invalid.token",
			expectError:  true,
		},
		{
			name:         "access token instead of refresh token",
			refreshToken: accessToken,
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newAccessToken, newRefreshToken, err := service.RefreshStaffTokens(tt.refreshToken)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, newAccessToken)
				assert.Empty(t, newRefreshToken)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, newAccessToken)
				assert.NotEmpty(t, newRefreshToken)
				assert.NotEqual(t, newAccessToken, newRefreshToken)
				assert.NotEqual(t, newRefreshToken, tt.refreshToken)
			}
		})
	}
}

func TestRefreshRotationRevokesOldToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	_, refreshToken, err := service.GenerateStaffTokens(123)
	require.NoError(t, err)

	_, _, err = service.RefreshStaffTokens(refreshToken)
	require.NoError(t, err)

	// The consumed refresh token must not be usable a second time
	_, _, err = service.RefreshStaffTokens(refreshToken)
	assert.Error(t, err)
}

func TestRevokeToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, _, err := service.GenerateStaffTokens(123)
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{
			name:        "valid token",
			token:       accessToken,
			expectError: false,
		},
		{
			name:        "empty token",
			token:       "",
			expectError: true,
		},
		{
			name:        "invalid token",
			token:       "invalid.token",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.RevokeToken(tt.token)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// Revoked token fails validation afterwards
	claims, err := service.ValidateStaffToken(accessToken)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestTokenExpiration(t *testing.T) {
	// Create service with very short TTL for testing expiration
	service, err := NewTokenService(1*time.Second, 2*time.Second, "test-issuer", "test-audience", false, "", "", "test-secret-key-for-jwt-signing-32-chars")
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateStaffTokens(123)
	require.NoError(t, err)

	sessionToken, err := service.GenerateSessionToken(uuid.New(), 1*time.Second)
	require.NoError(t, err)

	// Initially, tokens should be valid
	claims, err := service.ValidateStaffToken(accessToken)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, uint(123), claims.StaffID)

	// Wait for tokens to expire
	time.Sleep(3 * time.Second)

	// After expiration, tokens should be invalid
	claims, err = service.ValidateStaffToken(accessToken)
	assert.Error(t, err)
	assert.Nil(t, claims)

	sessionClaims, err := service.ValidateSessionToken(sessionToken)
	assert.Error(t, err)
	assert.Nil(t, sessionClaims)

	// Refresh token should also be expired
	_, _, err = service.RefreshStaffTokens(refreshToken)
	assert.Error(t, err)
}

func TestTokenSecurity(t *testing.T) {
	// Create services with different configurations to ensure different keys
	service1, err := NewTokenService(15*time.Minute, 7*24*time.Hour, "issuer1", "audience1", false, "", "", "test-secret-key-1-for-jwt-signing-32-chars")
	require.NoError(t, err)

	service2, err := NewTokenService(15*time.Minute, 7*24*time.Hour, "issuer2", "audience2", false, "", "", "test-secret-key-2-for-jwt-signing-32-chars")
	require.NoError(t, err)

	// Generate tokens with different services
	token1, _, err := service1.GenerateStaffTokens(123)
	require.NoError(t, err)

	token2, _, err := service2.GenerateStaffTokens(123)
	require.NoError(t, err)

	// Tokens should be different even with same staff ID
	assert.NotEqual(t, token1, token2)

	// Tokens from one service should not be valid in another service
	claims, err := service1.ValidateStaffToken(token2)
	assert.Error(t, err)
	assert.Nil(t, claims)

	claims, err = service2.ValidateStaffToken(token1)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestConcurrentTokenGeneration(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	// Test concurrent token generation
	const numGoroutines = 10
	tokens := make(chan string, numGoroutines)
	errors := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(staffID uint) {
			accessToken, _, err := service.GenerateStaffTokens(staffID)
			if err != nil {
				errors <- err
				return
			}
			tokens <- accessToken
		}(uint(i + 1))
	}

	// Collect results
	generatedTokens := make(map[string]bool)
	for i := 0; i < numGoroutines; i++ {
		select {
		case token := <-tokens:
			assert.NotEmpty(t, token)
			assert.False(t, generatedTokens[token], "Duplicate token generated")
			generatedTokens[token] = true
		case err := <-errors:
			t.Errorf("Error generating token: %v", err)
		}
	}

	assert.Equal(t, numGoroutines, len(generatedTokens))
}

func TestTokenValidationEdgeCases(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "nil token",
			token: "",
		},
		{
			name:  "single character",
			token: "a",
		},
		{
			name:  "non-JWT string",
			token: "this is not a jwt token",
		},
		{
			name:  "JWT with wrong number of parts",
			token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdGFmZl9pZCI6MTIzfQ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateStaffToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func BenchmarkGenerateStaffTokens(b *testing.B) {
	service, err := createTestTokenService()
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := service.GenerateStaffTokens(uint(i))
		require.NoError(b, err)
	}
}

func BenchmarkValidateSessionToken(b *testing.B) {
	service, err := createTestTokenService()
	require.NoError(b, err)

	token, err := service.GenerateSessionToken(uuid.New(), 30*time.Minute)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := service.ValidateSessionToken(token)
		require.NoError(b, err)
	}
}
