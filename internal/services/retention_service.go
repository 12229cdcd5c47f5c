package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"upload-registry/config"
	"upload-registry/internal/domain/upload"
	"upload-registry/internal/repository"
	"upload-registry/pkg/logger"
)

// OlderThan returns the records created strictly before cutoff.
func (s *UploadService) OlderThan(ctx context.Context, cutoff time.Time) ([]upload.Upload, error) {
	var (
		candidates []upload.Upload
		err        error
	)
	if finder, ok := s.repo.(repository.CreatedBeforeFinder); ok {
		candidates, err = finder.CreatedBefore(ctx, cutoff)
	} else {
		candidates, err = s.repo.ScanAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	stale := make([]upload.Upload, 0, len(candidates))
	for _, u := range candidates {
		if u.CreatedAt.Before(cutoff) {
			stale = append(stale, u)
		}
	}
	return stale, nil
}

// SweepResult summarizes one retention pass.
type SweepResult struct {
	Action   string
	Cutoff   time.Time
	Found    int
	Handled  int
	Failed   int
	Duration time.Duration
}

type RetentionConfig struct {
	MaxAge   time.Duration
	Interval time.Duration
	Action   string
}

// RetentionService periodically finds records older than MaxAge and reports,
// removes or cleans them up.
type RetentionService struct {
	uploads *UploadService
	cleanup *CleanupService
	cfg     RetentionConfig
	logger  *logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRetentionService(uploads *UploadService, cleanup *CleanupService, cfg RetentionConfig, l *logger.Logger) (*RetentionService, error) {
	switch cfg.Action {
	case config.RetentionReport, config.RetentionRemove:
	case config.RetentionCleanup:
		if cleanup == nil {
			return nil, fmt.Errorf("retention action %q needs a cleanup service", cfg.Action)
		}
	default:
		return nil, fmt.Errorf("unknown retention action %q", cfg.Action)
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive")
	}
	if l == nil {
		l = logger.Nop()
	}
	return &RetentionService{
		uploads: uploads,
		cleanup: cleanup,
		cfg:     cfg,
		logger:  l.Named("retention"),
		now:     time.Now,
	}, nil
}

// Start runs a sweep immediately and then every Interval until ctx is done
// or Stop is called.
func (s *RetentionService) Start(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		s.logger.Warnf("retention interval not set, periodic sweeps disabled")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)

	s.logger.Infof("retention started: action=%s max_age=%s interval=%s", s.cfg.Action, s.cfg.MaxAge, s.cfg.Interval)
}

func (s *RetentionService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.logger.Infof("retention stopped")
}

func (s *RetentionService) run(ctx context.Context) {
	defer close(s.done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Concurrent calls are serialized. A failure
// on one record is counted and the sweep moves on.
func (s *RetentionService) RunOnce(ctx context.Context) SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result := SweepResult{
		Action: s.cfg.Action,
		Cutoff: s.now().Add(-s.cfg.MaxAge),
	}

	stale, err := s.uploads.OlderThan(ctx, result.Cutoff)
	if err != nil {
		s.logger.Errorf("retention scan failed: %v", err)
		result.Failed++
		s.finish(&result, start)
		return result
	}
	result.Found = len(stale)

	for _, u := range stale {
		if ctx.Err() != nil {
			break
		}
		if err := s.apply(ctx, u); err != nil {
			result.Failed++
			s.logger.Warnf("retention %s of upload %s failed: %v", s.cfg.Action, u.ID, err)
			continue
		}
		result.Handled++
	}

	s.finish(&result, start)
	return result
}

func (s *RetentionService) apply(ctx context.Context, u upload.Upload) error {
	switch s.cfg.Action {
	case config.RetentionRemove:
		return s.uploads.RemoveEntry(ctx, u)
	case config.RetentionCleanup:
		return s.cleanup.Cleanup(ctx, u)
	default:
		s.logger.Infof("stale upload %s user=%s created_at=%s", u.ID, u.UserID, u.CreatedAt.Format(time.RFC3339))
		return nil
	}
}

func (s *RetentionService) finish(result *SweepResult, start time.Time) {
	result.Duration = time.Since(start)

	retentionRunsTotal.Inc()
	retentionProcessedTotal.WithLabelValues(result.Action).Add(float64(result.Handled))
	retentionFailedTotal.Add(float64(result.Failed))
	retentionDurationSeconds.Observe(result.Duration.Seconds())

	s.logger.Infof("retention sweep done: action=%s found=%d handled=%d failed=%d duration=%s",
		result.Action, result.Found, result.Handled, result.Failed, result.Duration)
}
