package services

import (
	"context"
	"errors"
	"fmt"

	"upload-registry/internal/domain/upload"
	"upload-registry/internal/repository"
	registry_errors "upload-registry/pkg/errors"
	"upload-registry/pkg/logger"
)

const DefaultMaxUpdateRetries = 5

type UploadService struct {
	repo       repository.UploadRepository
	logger     *logger.Logger
	maxRetries int
}

func NewUploadService(repo repository.UploadRepository, l *logger.Logger, maxRetries int) *UploadService {
	if l == nil {
		l = logger.Nop()
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxUpdateRetries
	}
	return &UploadService{
		repo:       repo,
		logger:     l.Named("uploads"),
		maxRetries: maxRetries,
	}
}

// Lookup identifies a record either by UploadID or by the identity tuple the
// id is derived from. With UploadID set, any identity field supplied must
// also match the stored record.
type Lookup struct {
	UploadID string
	UserID   string
	FileID   string
	FileName string
	FileSize *int64
}

// CheckExists returns the matching record, or nil without an error when no
// record matches.
func (s *UploadService) CheckExists(ctx context.Context, l Lookup) (*upload.Upload, error) {
	id := l.UploadID
	if id == "" {
		if l.UserID == "" {
			return nil, fmt.Errorf("%w: upload_id or user_id is required", registry_errors.ErrValidation)
		}
		var size int64
		if l.FileSize != nil {
			size = *l.FileSize
		}
		id = upload.ResolveID(l.UserID, l.FileID, l.FileName, size)
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, registry_errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !u.MatchesIdentity(l.UserID, l.FileID, l.FileName, l.FileSize) {
		return nil, nil
	}
	return &u, nil
}

// AddEntry creates a record. A concurrent or repeated add of the same
// identity fails with ErrDuplicateIdentity from the store itself.
func (s *UploadService) AddEntry(ctx context.Context, p upload.NewParams) (upload.Upload, error) {
	u, err := upload.New(p)
	if err != nil {
		return upload.Upload{}, err
	}
	if err := s.repo.Insert(ctx, &u); err != nil {
		if errors.Is(err, registry_errors.ErrDuplicateIdentity) {
			return upload.Upload{}, fmt.Errorf("%w: %s", registry_errors.ErrDuplicateIdentity, u.ID)
		}
		return upload.Upload{}, err
	}
	uploadsCreatedTotal.Inc()
	s.logger.WithContext(ctx).Infof("upload %s added for user %s", u.ID, u.UserID)
	return u, nil
}

// UpdateEntry merges p into the stored record. When another writer got there
// first the record is re-read and the merge applied again, so concurrent
// part appends are not lost.
func (s *UploadService) UpdateEntry(ctx context.Context, u upload.Upload, p upload.UpdateParams) (upload.Upload, error) {
	current, err := s.repo.FindByID(ctx, u.ID)
	if err != nil {
		return upload.Upload{}, err
	}
	if p.IsEmpty() {
		return current, nil
	}

	for attempt := 0; ; attempt++ {
		merged := current.Clone()
		if err := merged.Apply(p); err != nil {
			return upload.Upload{}, err
		}

		updated, err := s.repo.Update(ctx, merged)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, registry_errors.ErrVersionConflict) {
			return upload.Upload{}, err
		}
		if attempt >= s.maxRetries {
			updateConflictsTotal.Inc()
			return upload.Upload{}, err
		}

		s.logger.WithContext(ctx).Debugf("upload %s changed concurrently, retrying update (%d)", u.ID, attempt+1)
		fresh, err := s.repo.FindByID(ctx, u.ID)
		if err != nil {
			return upload.Upload{}, err
		}
		current = fresh
	}
}

// RemoveEntry deletes the record. Removing an absent record succeeds.
func (s *UploadService) RemoveEntry(ctx context.Context, u upload.Upload) error {
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, registry_errors.ErrNotFound) {
			return nil
		}
		return err
	}
	uploadsRemovedTotal.Inc()
	s.logger.WithContext(ctx).Infof("upload %s removed", u.ID)
	return nil
}

func (s *UploadService) GetByID(ctx context.Context, id string) (upload.Upload, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByResumableID finds the record owning a storage backend's resumable
// session id. It returns nil when there is none.
func (s *UploadService) FindByResumableID(ctx context.Context, userID, resumableID string) (*upload.Upload, error) {
	if resumableID == "" {
		return nil, fmt.Errorf("%w: resumable_id is required", registry_errors.ErrValidation)
	}
	fields := repository.Fields{"resumable_id": resumableID}
	if userID != "" {
		fields["user_id"] = userID
	}
	u, err := s.repo.FindByFields(ctx, fields)
	if err != nil {
		if errors.Is(err, registry_errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *UploadService) AllUploads(ctx context.Context) ([]upload.Upload, error) {
	return s.repo.ScanAll(ctx)
}

func (s *UploadService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
