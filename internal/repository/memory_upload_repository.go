package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"upload-registry/internal/domain/upload"
	registry_errors "upload-registry/pkg/errors"
)

// MemoryUploadRepository keeps records in process memory. It backs
// STORE_BACKEND=memory and the service tests.
type MemoryUploadRepository struct {
	mu      sync.RWMutex
	uploads map[string]upload.Upload
	now     func() time.Time
}

func NewMemoryUploadRepository() *MemoryUploadRepository {
	return &MemoryUploadRepository{
		uploads: make(map[string]upload.Upload),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryUploadRepository) Insert(_ context.Context, u *upload.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.uploads[u.ID]; exists {
		return registry_errors.ErrDuplicateIdentity
	}
	now := r.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Version = 1
	r.uploads[u.ID] = u.Clone()
	return nil
}

func (r *MemoryUploadRepository) FindByID(_ context.Context, id string) (upload.Upload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.uploads[id]
	if !ok {
		return upload.Upload{}, registry_errors.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryUploadRepository) FindByFields(_ context.Context, fields Fields) (upload.Upload, error) {
	if err := fields.validate(); err != nil {
		return upload.Upload{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *upload.Upload
	for _, u := range r.uploads {
		if !fields.matches(u) {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) {
			c := u
			found = &c
		}
	}
	if found == nil {
		return upload.Upload{}, registry_errors.ErrNotFound
	}
	return found.Clone(), nil
}

func (r *MemoryUploadRepository) Update(_ context.Context, u upload.Upload) (upload.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.uploads[u.ID]
	if !ok {
		return upload.Upload{}, registry_errors.ErrNotFound
	}
	if current.Version != u.Version {
		return upload.Upload{}, registry_errors.ErrVersionConflict
	}
	// identity and creation time stay as stored
	next := current.Clone()
	next.Resumable = u.Resumable
	next.ResumableID = u.ResumableID
	next.FilePath = u.FilePath
	next.ObjectOptions = u.ObjectOptions
	next.PartList = u.PartList
	next.PartData = u.PartData
	next.Version++
	next.UpdatedAt = r.now()
	next = next.Clone()

	r.uploads[u.ID] = next
	return next.Clone(), nil
}

func (r *MemoryUploadRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.uploads[id]; !ok {
		return registry_errors.ErrNotFound
	}
	delete(r.uploads, id)
	return nil
}

func (r *MemoryUploadRepository) ScanAll(_ context.Context) ([]upload.Upload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]upload.Upload, 0, len(r.uploads))
	for _, u := range r.uploads {
		all = append(all, u.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *MemoryUploadRepository) Ping(_ context.Context) error {
	return nil
}
