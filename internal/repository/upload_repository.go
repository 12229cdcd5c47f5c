package repository

import (
	"context"
	"errors"
	"time"

	"upload-registry/internal/domain/upload"
	registry_errors "upload-registry/pkg/errors"

	"gorm.io/gorm"
)

const scanBatchSize = 500

type PostgresUploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &PostgresUploadRepository{db: db}
}

func (r *PostgresUploadRepository) Insert(ctx context.Context, u *upload.Upload) error {
	u.Version = 1
	res := r.db.WithContext(ctx).Create(u)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return registry_errors.ErrDuplicateIdentity
		}
		return res.Error
	}
	return nil
}

func (r *PostgresUploadRepository) FindByID(ctx context.Context, id string) (upload.Upload, error) {
	var u upload.Upload
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return upload.Upload{}, registry_errors.ErrNotFound
		}
		return upload.Upload{}, err
	}
	return u, nil
}

func (r *PostgresUploadRepository) FindByFields(ctx context.Context, fields Fields) (upload.Upload, error) {
	if err := fields.validate(); err != nil {
		return upload.Upload{}, err
	}
	var u upload.Upload
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}(fields)).
		Order("created_at ASC").
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return upload.Upload{}, registry_errors.ErrNotFound
		}
		return upload.Upload{}, err
	}
	return u, nil
}

// Update writes the mutable columns of u if the stored version still equals
// u.Version.
func (r *PostgresUploadRepository) Update(ctx context.Context, u upload.Upload) (upload.Upload, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&upload.Upload{}).
		Where("id = ? AND version = ?", u.ID, u.Version).
		Updates(map[string]interface{}{
			"resumable":      u.Resumable,
			"resumable_id":   u.ResumableID,
			"file_path":      u.FilePath,
			"object_options": u.ObjectOptions,
			"part_list":      u.PartList,
			"part_data":      u.PartData,
			"version":        u.Version + 1,
			"updated_at":     now,
		})
	if res.Error != nil {
		return upload.Upload{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, u.ID); err != nil {
			return upload.Upload{}, err
		}
		return upload.Upload{}, registry_errors.ErrVersionConflict
	}
	u.Version++
	u.UpdatedAt = now
	return u, nil
}

func (r *PostgresUploadRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&upload.Upload{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return registry_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUploadRepository) ScanAll(ctx context.Context) ([]upload.Upload, error) {
	var all []upload.Upload
	var batch []upload.Upload
	res := r.db.WithContext(ctx).
		Order("id ASC").
		FindInBatches(&batch, scanBatchSize, func(tx *gorm.DB, _ int) error {
			all = append(all, batch...)
			return nil
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return all, nil
}

// CreatedBefore narrows the scan in SQL. Callers must still treat the cutoff
// as exclusive.
func (r *PostgresUploadRepository) CreatedBefore(ctx context.Context, cutoff time.Time) ([]upload.Upload, error) {
	var uploads []upload.Upload
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

func (r *PostgresUploadRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
