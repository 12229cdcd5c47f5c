package repository

import (
	"context"
	"fmt"
	"time"

	"upload-registry/internal/domain/upload"
	registry_errors "upload-registry/pkg/errors"
)

// UploadRepository is the record store behind the upload lifecycle. Insert
// must enforce id uniqueness atomically; Update is a compare-and-swap on
// Upload.Version.
type UploadRepository interface {
	Insert(ctx context.Context, u *upload.Upload) error
	FindByID(ctx context.Context, id string) (upload.Upload, error)
	FindByFields(ctx context.Context, fields Fields) (upload.Upload, error)
	Update(ctx context.Context, u upload.Upload) (upload.Upload, error)
	Delete(ctx context.Context, id string) error
	ScanAll(ctx context.Context) ([]upload.Upload, error)

	Ping(ctx context.Context) error
}

// CreatedBeforeFinder is implemented by stores that can filter on creation
// time themselves instead of returning every record.
type CreatedBeforeFinder interface {
	CreatedBefore(ctx context.Context, cutoff time.Time) ([]upload.Upload, error)
}

// Fields is an equality predicate keyed by column name.
type Fields map[string]interface{}

var queryableColumns = map[string]struct{}{
	"user_id":            {},
	"file_id":            {},
	"file_name":          {},
	"file_size":          {},
	"provider_namespace": {},
	"provider_name":      {},
	"provider_location":  {},
	"bucket_name":        {},
	"object_key":         {},
	"resumable_id":       {},
}

func (f Fields) validate() error {
	if len(f) == 0 {
		return fmt.Errorf("%w: empty predicate", registry_errors.ErrInvalidInput)
	}
	for col := range f {
		if _, ok := queryableColumns[col]; !ok {
			return fmt.Errorf("%w: cannot query by %q", registry_errors.ErrInvalidInput, col)
		}
	}
	return nil
}

// matches evaluates f against u for stores without a query engine.
func (f Fields) matches(u upload.Upload) bool {
	for col, want := range f {
		var got interface{}
		switch col {
		case "user_id":
			got = u.UserID
		case "file_id":
			got = u.FileID
		case "file_name":
			got = u.FileName
		case "file_size":
			got = u.FileSize
		case "provider_namespace":
			got = u.ProviderNamespace
		case "provider_name":
			got = u.ProviderName
		case "provider_location":
			got = u.ProviderLocation
		case "bucket_name":
			got = u.BucketName
		case "object_key":
			got = u.ObjectKey
		case "resumable_id":
			got = u.ResumableID
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
