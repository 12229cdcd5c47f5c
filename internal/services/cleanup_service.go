package services

import (
	"context"
	"errors"
	"fmt"

	"upload-registry/internal/domain/upload"
	"upload-registry/internal/residence"
	registry_errors "upload-registry/pkg/errors"
	"upload-registry/pkg/logger"
)

// ResidenceResolver finds the storage residence for a provider.
type ResidenceResolver interface {
	Resolve(name string, opts upload.ResidenceOptions) (residence.Residence, bool)
}

type CleanupService struct {
	uploads    *UploadService
	residences ResidenceResolver
	logger     *logger.Logger
}

func NewCleanupService(uploads *UploadService, residences ResidenceResolver, l *logger.Logger) *CleanupService {
	if l == nil {
		l = logger.Nop()
	}
	return &CleanupService{
		uploads:    uploads,
		residences: residences,
		logger:     l.Named("cleanup"),
	}
}

// Cleanup destroys the stored object and then removes the record. A record
// that is already gone counts as cleaned. The record is left in place when
// the residence is unknown or the destroy fails, so the call can be repeated.
func (s *CleanupService) Cleanup(ctx context.Context, u upload.Upload) error {
	current, err := s.uploads.GetByID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, registry_errors.ErrNotFound) {
			cleanupsTotal.WithLabelValues("already_gone").Inc()
			return nil
		}
		return err
	}

	name, opts := current.Residence()
	res, ok := s.residences.Resolve(name, opts)
	if !ok {
		cleanupsTotal.WithLabelValues("unresolved").Inc()
		return fmt.Errorf("%w: provider %q namespace %q location %q",
			registry_errors.ErrResidenceUnresolved, name, opts.Namespace, opts.Location)
	}

	log := s.logger.WithContext(ctx)
	if err := res.Destroy(ctx, current); err != nil {
		cleanupsTotal.WithLabelValues("failed").Inc()
		log.Warnf("destroy of upload %s failed: %v", current.ID, err)
		return err
	}
	if err := s.uploads.RemoveEntry(ctx, current); err != nil {
		cleanupsTotal.WithLabelValues("failed").Inc()
		return err
	}

	cleanupsTotal.WithLabelValues("cleaned").Inc()
	log.Infof("upload %s cleaned up from %s", current.ID, name)
	return nil
}
