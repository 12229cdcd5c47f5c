package httpdto

import (
	"time"

	"upload-registry/internal/domain/upload"
)

// CheckUploadRequest is used for POST /uploads/check
type CheckUploadRequest struct {
	UploadID string `json:"upload_id"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize *int64 `json:"file_size"`
}

// CheckUploadResponse reports whether a matching record exists
type CheckUploadResponse struct {
	Exists bool       `json:"exists"`
	Upload *UploadDTO `json:"upload,omitempty"`
}

// CreateUploadRequest is used for POST /uploads. The owner is taken from the
// access token, never from the body.
type CreateUploadRequest struct {
	FileName          string                 `json:"file_name"`
	FilePath          string                 `json:"file_path"`
	FileSize          int64                  `json:"file_size"`
	FileID            string                 `json:"file_id" binding:"required"`
	ProviderNamespace string                 `json:"provider_namespace"`
	ProviderName      string                 `json:"provider_name" binding:"required"`
	ProviderLocation  string                 `json:"provider_location"`
	BucketName        string                 `json:"bucket_name"`
	ObjectKey         string                 `json:"object_key"`
	ObjectOptions     map[string]interface{} `json:"object_options"`
	Resumable         bool                   `json:"resumable"`
	ResumableID       string                 `json:"resumable_id"`
	PartList          []upload.Part          `json:"part_list"`
	PartData          map[string]interface{} `json:"part_data"`
}

func (r CreateUploadRequest) Params(userID string) upload.NewParams {
	return upload.NewParams{
		UserID:            userID,
		FileName:          r.FileName,
		FilePath:          r.FilePath,
		FileSize:          r.FileSize,
		FileID:            r.FileID,
		ProviderNamespace: r.ProviderNamespace,
		ProviderName:      r.ProviderName,
		ProviderLocation:  r.ProviderLocation,
		BucketName:        r.BucketName,
		ObjectKey:         r.ObjectKey,
		ObjectOptions:     r.ObjectOptions,
		Resumable:         r.Resumable,
		ResumableID:       r.ResumableID,
		PartList:          r.PartList,
		PartData:          r.PartData,
	}
}

// UpdateUploadRequest is used for PATCH /uploads/:id
type UpdateUploadRequest struct {
	Resumable     *bool                  `json:"resumable"`
	ResumableID   *string                `json:"resumable_id"`
	FilePath      *string                `json:"file_path"`
	ObjectOptions map[string]interface{} `json:"object_options"`
	PartData      map[string]interface{} `json:"part_data"`
	AddParts      []upload.Part          `json:"add_parts"`
}

func (r UpdateUploadRequest) Params() upload.UpdateParams {
	return upload.UpdateParams{
		Resumable:     r.Resumable,
		ResumableID:   r.ResumableID,
		FilePath:      r.FilePath,
		ObjectOptions: r.ObjectOptions,
		PartData:      r.PartData,
		AddParts:      r.AddParts,
	}
}

// ListStaleUploadsRequest holds query parameters for listing stale uploads
type ListStaleUploadsRequest struct {
	OlderThanSec int `form:"older_than_sec" binding:"required,min=1"`
}

// ListUploadsResponse is returned when listing uploads
type ListUploadsResponse struct {
	Uploads []UploadDTO `json:"uploads"`
	Total   int         `json:"total"`
}

// UploadDTO represents an upload record in API responses
type UploadDTO struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"user_id"`
	FileName          string                 `json:"file_name,omitempty"`
	FilePath          string                 `json:"file_path,omitempty"`
	FileSize          int64                  `json:"file_size"`
	FileID            string                 `json:"file_id"`
	ProviderNamespace string                 `json:"provider_namespace"`
	ProviderName      string                 `json:"provider_name"`
	ProviderLocation  string                 `json:"provider_location,omitempty"`
	BucketName        string                 `json:"bucket_name"`
	ObjectKey         string                 `json:"object_key"`
	ObjectOptions     map[string]interface{} `json:"object_options,omitempty"`
	Resumable         bool                   `json:"resumable"`
	ResumableID       string                 `json:"resumable_id,omitempty"`
	PartList          []upload.Part          `json:"part_list"`
	PartData          map[string]interface{} `json:"part_data,omitempty"`
	Version           int64                  `json:"version"`
	CreatedAt         string                 `json:"created_at"`
	UpdatedAt         string                 `json:"updated_at"`
}

func ToUploadDTO(u upload.Upload) UploadDTO {
	parts := []upload.Part(u.PartList)
	if parts == nil {
		parts = []upload.Part{}
	}
	return UploadDTO{
		ID:                u.ID,
		UserID:            u.UserID,
		FileName:          u.FileName,
		FilePath:          u.FilePath,
		FileSize:          u.FileSize,
		FileID:            u.FileID,
		ProviderNamespace: u.ProviderNamespace,
		ProviderName:      u.ProviderName,
		ProviderLocation:  u.ProviderLocation,
		BucketName:        u.BucketName,
		ObjectKey:         u.ObjectKey,
		ObjectOptions:     u.ObjectOptions,
		Resumable:         u.Resumable,
		ResumableID:       u.ResumableID,
		PartList:          parts,
		PartData:          u.PartData,
		Version:           u.Version,
		CreatedAt:         u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ToUploadDTOs(uploads []upload.Upload) []UploadDTO {
	out := make([]UploadDTO, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, ToUploadDTO(u))
	}
	return out
}
