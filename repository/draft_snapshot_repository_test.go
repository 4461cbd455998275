package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupSnapshotRepo connects to the Redis named by TEST_REDIS_ADDR and skips
// the test when it is unset or unreachable.
func setupSnapshotRepo(t *testing.T, ttl time.Duration) DraftSnapshotRepository {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewDraftSnapshotRepository(client, ttl)
}

func testSnapshot(appUUID uuid.UUID, seq int64, currentStep int) *models.DraftSnapshot {
	return &models.DraftSnapshot{
		ApplicationUUID: appUUID,
		Mode:            models.ApplicationModeSelf,
		Seq:             seq,
		CurrentStep:     currentStep,
		SavedAt:         utils.UTCNow(),
		Steps: []models.StepVersion{
			{StepNumber: 1, StepName: models.StepCardSelection, Version: 1, IsComplete: true, SavedAt: utils.UTCNow()},
		},
	}
}

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	repo := setupSnapshotRepo(t, time.Minute)
	ctx := context.Background()
	appUUID := uuid.New()
	t.Cleanup(func() { _ = repo.Clear(ctx, appUUID) })

	loaded, err := repo.Load(ctx, appUUID, models.ApplicationModeSelf)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	seq, err := repo.NextSeq(ctx, appUUID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	stored, err := repo.Save(ctx, testSnapshot(appUUID, seq, 2))
	require.NoError(t, err)
	assert.True(t, stored)

	loaded, err = repo.Load(ctx, appUUID, models.ApplicationModeSelf)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, appUUID, loaded.ApplicationUUID)
	assert.Equal(t, seq, loaded.Seq)
	assert.Equal(t, 2, loaded.CurrentStep)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, 1, loaded.Steps[0].StepNumber)
}

func TestSnapshotStaleWriteDropped(t *testing.T) {
	repo := setupSnapshotRepo(t, time.Minute)
	ctx := context.Background()
	appUUID := uuid.New()
	t.Cleanup(func() { _ = repo.Clear(ctx, appUUID) })

	first, err := repo.NextSeq(ctx, appUUID)
	require.NoError(t, err)
	second, err := repo.NextSeq(ctx, appUUID)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	// The later save lands first
	stored, err := repo.Save(ctx, testSnapshot(appUUID, second, 5))
	require.NoError(t, err)
	assert.True(t, stored)

	// The delayed earlier save is dropped without error
	stored, err = repo.Save(ctx, testSnapshot(appUUID, first, 1))
	require.NoError(t, err)
	assert.False(t, stored)

	loaded, err := repo.Load(ctx, appUUID, models.ApplicationModeSelf)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, second, loaded.Seq)
	assert.Equal(t, 5, loaded.CurrentStep)
}

func TestSnapshotModeMismatchReadsAsAbsent(t *testing.T) {
	repo := setupSnapshotRepo(t, time.Minute)
	ctx := context.Background()
	appUUID := uuid.New()
	t.Cleanup(func() { _ = repo.Clear(ctx, appUUID) })

	seq, err := repo.NextSeq(ctx, appUUID)
	require.NoError(t, err)
	_, err = repo.Save(ctx, testSnapshot(appUUID, seq, 3))
	require.NoError(t, err)

	loaded, err := repo.Load(ctx, appUUID, models.ApplicationModeAssisted)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSnapshotClear(t *testing.T) {
	repo := setupSnapshotRepo(t, time.Minute)
	ctx := context.Background()
	appUUID := uuid.New()

	seq, err := repo.NextSeq(ctx, appUUID)
	require.NoError(t, err)
	_, err = repo.Save(ctx, testSnapshot(appUUID, seq, 1))
	require.NoError(t, err)

	require.NoError(t, repo.Clear(ctx, appUUID))

	loaded, err := repo.Load(ctx, appUUID, models.ApplicationModeSelf)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// The sequence counter restarts with the mirror
	seq, err = repo.NextSeq(ctx, appUUID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	require.NoError(t, repo.Clear(ctx, appUUID))
}

func TestSnapshotTTLExpiry(t *testing.T) {
	repo := setupSnapshotRepo(t, time.Second)
	ctx := context.Background()
	appUUID := uuid.New()

	seq, err := repo.NextSeq(ctx, appUUID)
	require.NoError(t, err)
	stored, err := repo.Save(ctx, testSnapshot(appUUID, seq, 1))
	require.NoError(t, err)
	assert.True(t, stored)

	time.Sleep(1500 * time.Millisecond)

	loaded, err := repo.Load(ctx, appUUID, models.ApplicationModeSelf)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
