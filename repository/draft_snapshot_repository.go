package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DraftSnapshotRepository is the cache-side mirror of drafts. Snapshots are
// ordered by the monotonic sequence issued by NextSeq, never by wall clocks:
// Save drops any write whose Seq does not exceed the stored one, so a delayed
// stale write cannot clobber a newer snapshot. Load is forgiving by contract:
// absent keys, malformed payloads and mode mismatches all read as "no
// snapshot".
type DraftSnapshotRepository interface {
	NextSeq(ctx context.Context, applicationUUID uuid.UUID) (int64, error)
	Save(ctx context.Context, snapshot *models.DraftSnapshot) (bool, error)
	Load(ctx context.Context, applicationUUID uuid.UUID, mode models.ApplicationMode) (*models.DraftSnapshot, error)
	Clear(ctx context.Context, applicationUUID uuid.UUID) error
}

// DraftSnapshotRepositoryImpl stores snapshots as JSON values in Redis
type DraftSnapshotRepositoryImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftSnapshotRepository creates a new draft snapshot repository
func NewDraftSnapshotRepository(client *redis.Client, ttl time.Duration) DraftSnapshotRepository {
	if ttl <= 0 {
		ttl = utils.SnapshotTTL
	}
	return &DraftSnapshotRepositoryImpl{
		client: client,
		ttl:    ttl,
	}
}

func (r *DraftSnapshotRepositoryImpl) key(applicationUUID uuid.UUID) string {
	return utils.DraftSnapshotKeyPrefix + applicationUUID.String()
}

func (r *DraftSnapshotRepositoryImpl) seqKey(applicationUUID uuid.UUID) string {
	return utils.DraftSeqKeyPrefix + applicationUUID.String()
}

// NextSeq issues the next save sequence number for a draft. The counter lives
// in Redis so ordering survives process restarts.
func (r *DraftSnapshotRepositoryImpl) NextSeq(ctx context.Context, applicationUUID uuid.UUID) (int64, error) {
	seq, err := r.client.Incr(ctx, r.seqKey(applicationUUID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to issue snapshot sequence: %w", err)
	}
	// Keep the counter alive as long as snapshots are.
	r.client.Expire(ctx, r.seqKey(applicationUUID), r.ttl)
	return seq, nil
}

// Save writes the snapshot unless a newer one is already stored. The false
// result marks a dropped stale write; callers treat it as success for the
// draft (the newer snapshot already covers it).
func (r *DraftSnapshotRepositoryImpl) Save(ctx context.Context, snapshot *models.DraftSnapshot) (bool, error) {
	if snapshot == nil {
		return false, errors.New("nil snapshot")
	}

	stored, err := r.Load(ctx, snapshot.ApplicationUUID, snapshot.Mode)
	if err != nil {
		return false, err
	}
	if stored != nil && stored.Seq >= snapshot.Seq {
		return false, nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := r.client.Set(ctx, r.key(snapshot.ApplicationUUID), payload, r.ttl).Err(); err != nil {
		return false, fmt.Errorf("failed to store snapshot: %w", err)
	}

	return true, nil
}

// Load returns the stored snapshot, or nil when there is none worth reading:
// missing key, undecodable payload, or a snapshot written for another mode.
func (r *DraftSnapshotRepositoryImpl) Load(ctx context.Context, applicationUUID uuid.UUID, mode models.ApplicationMode) (*models.DraftSnapshot, error) {
	raw, err := r.client.Get(ctx, r.key(applicationUUID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot models.DraftSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		// A corrupt mirror is never fatal; the authoritative store rebuilds it.
		return nil, nil
	}

	if snapshot.Mode != mode {
		return nil, nil
	}

	return &snapshot, nil
}

// Clear removes the snapshot and its sequence counter
func (r *DraftSnapshotRepositoryImpl) Clear(ctx context.Context, applicationUUID uuid.UUID) error {
	if err := r.client.Del(ctx, r.key(applicationUUID), r.seqKey(applicationUUID)).Err(); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
