package utils

import (
	"time"
)

// Token and session time constants
const (
	// SessionTTL is the default time-to-live for applicant wizard sessions (2 hours)
	SessionTTL = 2 * time.Hour

	// StaffAccessTokenTTL is the time-to-live for staff access tokens (8 hours)
	StaffAccessTokenTTL = 8 * time.Hour

	// StaffRefreshTokenTTL is the time-to-live for staff refresh tokens (7 days)
	StaffRefreshTokenTTL = 7 * 24 * time.Hour

	// OTPExpiry is the time-to-live for OTP codes (5 minutes)
	OTPExpiry = 5 * time.Minute

	// OTPExpirySeconds is the time-to-live for OTP codes in seconds (300 seconds = 5 minutes)
	OTPExpirySeconds = 300
)

// Draft persistence constants
const (
	// DraftTTL is how long an untouched draft survives before the cleanup sweep purges it (30 days)
	DraftTTL = 30 * 24 * time.Hour

	// SnapshotTTL is the time-to-live for draft snapshots in the cache (7 days)
	SnapshotTTL = 7 * 24 * time.Hour

	// DraftSnapshotKeyPrefix prefixes the cache key holding a draft snapshot
	DraftSnapshotKeyPrefix = "cardapply:draft:"

	// DraftSeqKeyPrefix prefixes the cache key holding a draft's save sequence counter
	DraftSeqKeyPrefix = "cardapply:draft:seq:"

	// OTPRateKeyPrefix prefixes the cache keys used by the OTP rate limiter
	OTPRateKeyPrefix = "cardapply:otp:"

	// CardProductCacheKey holds the cached card product catalog
	CardProductCacheKey = "cardapply:card-products"
)

// Applicant constants
const (
	// MinApplicantAge is the minimum age (in years, calendar-exact) for the
	// primary applicant and any supplementary cardholder
	MinApplicantAge = 18
)

// Pagination constants
const (
	// DefaultPageSize is the review queue page size when none is requested
	DefaultPageSize = 20

	// MaxPageSize is the largest page size the review queue will serve
	MaxPageSize = 100

	// MaxExportRows caps a single spreadsheet export
	MaxExportRows = 10000
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
