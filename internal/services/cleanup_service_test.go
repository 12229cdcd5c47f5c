package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"upload-registry/internal/domain/upload"
	"upload-registry/internal/residence"
	registry_errors "upload-registry/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResidence tracks destroyed records; destroying an absent object is fine.
type fakeResidence struct {
	mu        sync.Mutex
	destroyed map[string]int
	err       error
}

func newFakeResidence() *fakeResidence {
	return &fakeResidence{destroyed: make(map[string]int)}
}

func (f *fakeResidence) Destroy(_ context.Context, u upload.Upload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.destroyed[u.ObjectKey]++
	return nil
}

func (f *fakeResidence) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed[key]
}

func newCleanupFixture(t *testing.T) (*CleanupService, *UploadService, *fakeResidence) {
	t.Helper()
	svc, _ := newTestService(t)
	res := newFakeResidence()
	reg := residence.NewRegistry()
	reg.Register("amazon", upload.ResidenceOptions{}, res)
	return NewCleanupService(svc, reg, nil), svc, res
}

func TestCleanupDestroysAndRemoves(t *testing.T) {
	ctx := context.Background()
	cleanup, svc, res := newCleanupFixture(t)

	created, err := svc.AddEntry(ctx, newParams("u1", "abc", 100))
	require.NoError(t, err)

	require.NoError(t, cleanup.Cleanup(ctx, created))
	assert.Equal(t, 1, res.count(created.ObjectKey))

	got, err := svc.CheckExists(ctx, Lookup{UploadID: created.ID})
	require.NoError(t, err)
	assert.Nil(t, got)

	// second run finds the record gone and does nothing
	require.NoError(t, cleanup.Cleanup(ctx, created))
	assert.Equal(t, 1, res.count(created.ObjectKey))
}

func TestCleanupUnresolvedResidence(t *testing.T) {
	ctx := context.Background()
	cleanup, svc, res := newCleanupFixture(t)

	p := newParams("u1", "abc", 100)
	p.ProviderName = "google"
	created, err := svc.AddEntry(ctx, p)
	require.NoError(t, err)

	err = cleanup.Cleanup(ctx, created)
	assert.ErrorIs(t, err, registry_errors.ErrResidenceUnresolved)
	assert.ErrorContains(t, err, "google")
	assert.Equal(t, 0, res.count(created.ObjectKey))

	got, err := svc.CheckExists(ctx, Lookup{UploadID: created.ID})
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCleanupKeepsRecordWhenDestroyFails(t *testing.T) {
	ctx := context.Background()
	cleanup, svc, res := newCleanupFixture(t)
	res.err = errors.New("bucket unreachable")

	created, err := svc.AddEntry(ctx, newParams("u1", "abc", 100))
	require.NoError(t, err)

	err = cleanup.Cleanup(ctx, created)
	assert.ErrorContains(t, err, "bucket unreachable")

	got, err := svc.CheckExists(ctx, Lookup{UploadID: created.ID})
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCleanupConcurrent(t *testing.T) {
	ctx := context.Background()
	cleanup, svc, _ := newCleanupFixture(t)

	created, err := svc.AddEntry(ctx, newParams("u1", "abc", 100))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- cleanup.Cleanup(ctx, created)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	all, err := svc.AllUploads(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCleanupUsesNamespaceResidence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	fallback := newFakeResidence()
	tenant := newFakeResidence()
	reg := residence.NewRegistry()
	reg.Register("amazon", upload.ResidenceOptions{}, fallback)
	reg.Register("amazon", upload.ResidenceOptions{Namespace: "tenant-a"}, tenant)
	cleanup := NewCleanupService(svc, reg, nil)

	p := newParams("u1", "abc", 100)
	p.ProviderNamespace = "tenant-a"
	created, err := svc.AddEntry(ctx, p)
	require.NoError(t, err)

	require.NoError(t, cleanup.Cleanup(ctx, created))
	assert.Equal(t, 1, tenant.count(created.ObjectKey))
	assert.Equal(t, 0, fallback.count(created.ObjectKey))
}

func TestCleanupOfMissingRecordSucceedsWithoutResidence(t *testing.T) {
	ctx := context.Background()
	cleanup, svc, res := newCleanupFixture(t)

	p := newParams("u1", "abc", 100)
	p.ProviderName = "google"
	created, err := svc.AddEntry(ctx, p)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveEntry(ctx, created))

	assert.NoError(t, cleanup.Cleanup(ctx, created))
	assert.Equal(t, 0, res.count(created.ObjectKey))
}

func TestCleanupUnregisteredNamespace(t *testing.T) {
	ctx := context.Background()
	cleanup, svc, res := newCleanupFixture(t)

	p := newParams("u1", "abc", 100)
	p.ProviderNamespace = "tenant-b"
	created, err := svc.AddEntry(ctx, p)
	require.NoError(t, err)

	err = cleanup.Cleanup(ctx, created)
	assert.ErrorIs(t, err, registry_errors.ErrResidenceUnresolved)
	assert.ErrorContains(t, err, "tenant-b")
	assert.Equal(t, 0, res.count(created.ObjectKey))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
