package services

import (
	"context"
	"testing"
	"time"

	"upload-registry/config"
	"upload-registry/internal/domain/upload"
	"upload-registry/internal/repository"
	"upload-registry/internal/residence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAged(t *testing.T, repo *repository.MemoryUploadRepository, now time.Time, ages map[string]time.Duration) {
	t.Helper()
	for fileID, age := range ages {
		u, err := upload.New(newParams("u1", fileID, 10))
		require.NoError(t, err)
		u.CreatedAt = now.Add(-age)
		require.NoError(t, repo.Insert(context.Background(), &u))
	}
}

func TestNewRetentionServiceValidates(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := NewRetentionService(svc, nil, RetentionConfig{MaxAge: time.Hour, Action: "archive"}, nil)
	assert.Error(t, err)

	_, err = NewRetentionService(svc, nil, RetentionConfig{MaxAge: time.Hour, Action: config.RetentionCleanup}, nil)
	assert.Error(t, err)

	_, err = NewRetentionService(svc, nil, RetentionConfig{Action: config.RetentionReport}, nil)
	assert.Error(t, err)
}

func TestRetentionReportLeavesRecords(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedAged(t, repo, now, map[string]time.Duration{"old": 48 * time.Hour, "fresh": time.Hour})

	rs, err := NewRetentionService(svc, nil, RetentionConfig{MaxAge: 24 * time.Hour, Action: config.RetentionReport}, nil)
	require.NoError(t, err)
	rs.now = func() time.Time { return now }

	result := rs.RunOnce(context.Background())
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 1, result.Handled)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, now.Add(-24*time.Hour), result.Cutoff)

	all, err := svc.AllUploads(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRetentionRemove(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedAged(t, repo, now, map[string]time.Duration{"a": 72 * time.Hour, "b": 30 * time.Hour, "c": time.Minute})

	rs, err := NewRetentionService(svc, nil, RetentionConfig{MaxAge: 24 * time.Hour, Action: config.RetentionRemove}, nil)
	require.NoError(t, err)
	rs.now = func() time.Time { return now }

	result := rs.RunOnce(context.Background())
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 2, result.Handled)

	all, err := svc.AllUploads(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "c", all[0].FileID)
}

func TestRetentionCleanupCountsFailures(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedAged(t, repo, now, map[string]time.Duration{"a": 72 * time.Hour})

	orphan, err := upload.New(upload.NewParams{UserID: "u2", FileID: "z", ProviderName: "unknown"})
	require.NoError(t, err)
	orphan.CreatedAt = now.Add(-72 * time.Hour)
	require.NoError(t, repo.Insert(context.Background(), &orphan))

	res := newFakeResidence()
	reg := residence.NewRegistry()
	reg.Register("amazon", upload.ResidenceOptions{}, res)
	cleanup := NewCleanupService(svc, reg, nil)

	rs, err := NewRetentionService(svc, cleanup, RetentionConfig{MaxAge: 24 * time.Hour, Action: config.RetentionCleanup}, nil)
	require.NoError(t, err)
	rs.now = func() time.Time { return now }

	result := rs.RunOnce(context.Background())
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 1, result.Handled)
	assert.Equal(t, 1, result.Failed)

	all, err := svc.AllUploads(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, orphan.ID, all[0].ID)
}

func TestRetentionStartRunsImmediately(t *testing.T) {
	svc, repo := newTestService(t)
	seedAged(t, repo, time.Now(), map[string]time.Duration{"a": 72 * time.Hour})

	rs, err := NewRetentionService(svc, nil, RetentionConfig{
		MaxAge:   24 * time.Hour,
		Interval: time.Hour,
		Action:   config.RetentionRemove,
	}, nil)
	require.NoError(t, err)

	rs.Start(context.Background())
	defer rs.Stop()

	assert.Eventually(t, func() bool {
		all, err := svc.AllUploads(context.Background())
		return err == nil && len(all) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
