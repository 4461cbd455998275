package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OTPRateStatus describes what the applicant may still do with the OTP gate
type OTPRateStatus struct {
	RemainingSends    int
	Locked            bool
	RetryAfterSeconds int
}

// OTPRateLimiter throttles OTP sends per application. Counters live in Redis
// so limits hold across restarts and multiple API instances.
type OTPRateLimiter interface {
	// AllowSend consumes one send slot. When the limit or cooldown forbids a
	// send it returns false together with the wait before the next allowed try.
	AllowSend(ctx context.Context, applicationUUID uuid.UUID) (bool, time.Duration, error)
	// Lock blocks further sends for the configured lock duration, used after
	// verification attempts are exhausted.
	Lock(ctx context.Context, applicationUUID uuid.UUID) error
	// Status reports the current gate state without consuming anything.
	Status(ctx context.Context, applicationUUID uuid.UUID) (*OTPRateStatus, error)
	// Reset clears counters and locks after a successful verification.
	Reset(ctx context.Context, applicationUUID uuid.UUID) error
}

// OTPRateLimiterImpl implements the limiter with INCR-based windows
type OTPRateLimiterImpl struct {
	client       *redis.Client
	maxSends     int
	window       time.Duration
	cooldown     time.Duration
	lockDuration time.Duration
}

// NewOTPRateLimiter creates a new OTP rate limiter
func NewOTPRateLimiter(client *redis.Client, maxSends int, window, cooldown, lockDuration time.Duration) OTPRateLimiter {
	if maxSends <= 0 {
		maxSends = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	if lockDuration <= 0 {
		lockDuration = time.Hour
	}
	return &OTPRateLimiterImpl{
		client:       client,
		maxSends:     maxSends,
		window:       window,
		cooldown:     cooldown,
		lockDuration: lockDuration,
	}
}

func (r *OTPRateLimiterImpl) countKey(applicationUUID uuid.UUID) string {
	return utils.OTPRateKeyPrefix + "count:" + applicationUUID.String()
}

func (r *OTPRateLimiterImpl) cooldownKey(applicationUUID uuid.UUID) string {
	return utils.OTPRateKeyPrefix + "cooldown:" + applicationUUID.String()
}

func (r *OTPRateLimiterImpl) lockKey(applicationUUID uuid.UUID) string {
	return utils.OTPRateKeyPrefix + "lock:" + applicationUUID.String()
}

// AllowSend consumes one send slot when the gate permits it
func (r *OTPRateLimiterImpl) AllowSend(ctx context.Context, applicationUUID uuid.UUID) (bool, time.Duration, error) {
	lockTTL, err := r.client.TTL(ctx, r.lockKey(applicationUUID)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check OTP lock: %w", err)
	}
	if lockTTL > 0 {
		return false, lockTTL, nil
	}

	cooldownTTL, err := r.client.TTL(ctx, r.cooldownKey(applicationUUID)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check OTP cooldown: %w", err)
	}
	if cooldownTTL > 0 {
		return false, cooldownTTL, nil
	}

	count, err := r.client.Incr(ctx, r.countKey(applicationUUID)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count OTP send: %w", err)
	}
	if count == 1 {
		r.client.Expire(ctx, r.countKey(applicationUUID), r.window)
	}
	if count > int64(r.maxSends) {
		windowTTL, _ := r.client.TTL(ctx, r.countKey(applicationUUID)).Result()
		if windowTTL <= 0 {
			windowTTL = r.window
		}
		return false, windowTTL, nil
	}

	if err := r.client.Set(ctx, r.cooldownKey(applicationUUID), 1, r.cooldown).Err(); err != nil {
		return false, 0, fmt.Errorf("failed to set OTP cooldown: %w", err)
	}

	return true, 0, nil
}

// Lock blocks further sends for the lock duration
func (r *OTPRateLimiterImpl) Lock(ctx context.Context, applicationUUID uuid.UUID) error {
	if err := r.client.Set(ctx, r.lockKey(applicationUUID), 1, r.lockDuration).Err(); err != nil {
		return fmt.Errorf("failed to lock OTP gate: %w", err)
	}
	return nil
}

// Status reports the current gate state
func (r *OTPRateLimiterImpl) Status(ctx context.Context, applicationUUID uuid.UUID) (*OTPRateStatus, error) {
	status := &OTPRateStatus{RemainingSends: r.maxSends}

	lockTTL, err := r.client.TTL(ctx, r.lockKey(applicationUUID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check OTP lock: %w", err)
	}
	if lockTTL > 0 {
		status.Locked = true
		status.RemainingSends = 0
		status.RetryAfterSeconds = int(lockTTL.Seconds())
		return status, nil
	}

	count, err := r.client.Get(ctx, r.countKey(applicationUUID)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read OTP send count: %w", err)
	}
	remaining := r.maxSends - count
	if remaining < 0 {
		remaining = 0
	}
	status.RemainingSends = remaining

	cooldownTTL, err := r.client.TTL(ctx, r.cooldownKey(applicationUUID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check OTP cooldown: %w", err)
	}
	if cooldownTTL > 0 {
		status.RetryAfterSeconds = int(cooldownTTL.Seconds())
	}

	return status, nil
}

// Reset clears all gate state for the application
func (r *OTPRateLimiterImpl) Reset(ctx context.Context, applicationUUID uuid.UUID) error {
	keys := []string{
		r.countKey(applicationUUID),
		r.cooldownKey(applicationUUID),
		r.lockKey(applicationUUID),
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset OTP limits: %w", err)
	}
	return nil
}
