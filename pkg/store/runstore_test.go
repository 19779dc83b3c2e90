package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/pkg/models"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	cfg := &config.Config{
		History: config.HistoryConfig{
			DBPath: filepath.Join(t.TempDir(), "history.db"),
		},
	}
	store, err := NewRunStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(split string, f1 float64, createdAt time.Time) *models.EvalRun {
	return &models.EvalRun{
		UUID:      uuid.New(),
		CreatedAt: createdAt,
		Split:     split,
		Precision: f1,
		Recall:    f1,
		F1:        f1,
		Restarts:  10,
		Pairs:     100,
		Metadata:  map[string]any{"checkpoint": "epoch-42.pt"},
	}
}

func TestCreateAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2023, 11, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateRun(ctx, sampleRun("dev", 0.81, base)))
	require.NoError(t, store.CreateRun(ctx, sampleRun("dev", 0.83, base.Add(time.Hour))))
	require.NoError(t, store.CreateRun(ctx, sampleRun("test", 0.80, base.Add(2*time.Hour))))

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "test", runs[0].Split)
	assert.Equal(t, 0.83, runs[1].F1)
}

func TestCreateRunMergesMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("dev", 0.85, time.Now().UTC())
	require.NoError(t, store.CreateRun(ctx, run))

	runs, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, "epoch-42.pt", runs[0].Metadata["checkpoint"])
	assert.NotEmpty(t, runs[0].Metadata["app_version"])
}

func TestCreateRunNil(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.CreateRun(context.Background(), nil))
}

func TestListRunsDefaultLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < defaultListLimit+5; i++ {
		require.NoError(t, store.CreateRun(ctx, sampleRun("dev", 0.8, base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, defaultListLimit)
}

func TestNewRunStoreRequiresPath(t *testing.T) {
	_, err := NewRunStore(context.Background(), &config.Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}
