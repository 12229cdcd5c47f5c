package residence

import (
	"context"
	"fmt"

	"upload-registry/internal/domain/upload"
	"upload-registry/internal/storage"
)

// S3Residence destroys objects held in an S3 compatible bucket.
type S3Residence struct {
	client *storage.Client
}

func NewS3Residence(client *storage.Client) *S3Residence {
	return &S3Residence{client: client}
}

// Destroy aborts an unfinished multipart session, if the record carries one,
// and then deletes the object.
func (r *S3Residence) Destroy(ctx context.Context, u upload.Upload) error {
	if u.Resumable && u.ResumableID != "" {
		if err := r.client.AbortMultipartUpload(ctx, u.BucketName, u.ObjectKey, u.ResumableID); err != nil {
			return fmt.Errorf("abort multipart upload %s: %w", u.ResumableID, err)
		}
	}
	if u.ObjectKey == "" {
		return nil
	}
	if err := r.client.DeleteObject(ctx, u.BucketName, u.ObjectKey); err != nil {
		return fmt.Errorf("delete object %s: %w", u.ObjectKey, err)
	}
	return nil
}
