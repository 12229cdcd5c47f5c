package upload

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultNamespace = "global"

// Part describes one completed chunk of a resumable upload.
type Part struct {
	Number int    `json:"number"`
	ETag   string `json:"etag"`
	Size   int64  `json:"size,omitempty"`
}

// Upload represents engine_uploads
type Upload struct {
	ID                string                    `gorm:"type:text;primaryKey" json:"id"`
	UserID            string                    `gorm:"type:text;not null;index" json:"user_id"`
	FileName          string                    `gorm:"type:text" json:"file_name,omitempty"`
	FilePath          string                    `gorm:"type:text" json:"file_path,omitempty"`
	FileSize          int64                     `gorm:"not null;default:0" json:"file_size"`
	FileID            string                    `gorm:"type:text" json:"file_id"`
	ProviderNamespace string                    `gorm:"type:text;not null;default:'global'" json:"provider_namespace"`
	ProviderName      string                    `gorm:"type:text;not null" json:"provider_name"`
	ProviderLocation  string                    `gorm:"type:text" json:"provider_location,omitempty"`
	BucketName        string                    `gorm:"type:text" json:"bucket_name"`
	ObjectKey         string                    `gorm:"type:text" json:"object_key"`
	ObjectOptions     datatypes.JSONMap         `json:"object_options,omitempty"`
	Resumable         bool                      `gorm:"not null;default:false" json:"resumable"`
	ResumableID       string                    `gorm:"type:text;index" json:"resumable_id,omitempty"`
	PartList          datatypes.JSONSlice[Part] `json:"part_list"`
	PartData          datatypes.JSONMap         `json:"part_data,omitempty"`
	Version           int64                     `gorm:"not null;default:0" json:"version"`
	CreatedAt         time.Time                 `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Upload) TableName() string {
	return "engine_uploads"
}

// UploadID is kept for callers written against the upload_id naming.
func (u Upload) UploadID() string {
	return u.ID
}

func (u Upload) DateCreated() time.Time {
	return u.CreatedAt
}

// ResidenceOptions narrows residence lookup; empty fields are not applied.
type ResidenceOptions struct {
	Namespace string
	Location  string
}

// Residence returns the provider name and the options used to locate the
// storage residence holding this upload's object.
func (u Upload) Residence() (string, ResidenceOptions) {
	return u.ProviderName, ResidenceOptions{
		Namespace: u.ProviderNamespace,
		Location:  u.ProviderLocation,
	}
}

// HasPart reports whether a part with the given number was already recorded.
func (u Upload) HasPart(number int) (Part, bool) {
	for _, p := range u.PartList {
		if p.Number == number {
			return p, true
		}
	}
	return Part{}, false
}

// Clone returns a copy that shares no mutable state with u.
func (u Upload) Clone() Upload {
	c := u
	if u.PartList != nil {
		c.PartList = append(datatypes.JSONSlice[Part]{}, u.PartList...)
	}
	c.ObjectOptions = cloneMap(u.ObjectOptions)
	c.PartData = cloneMap(u.PartData)
	return c
}

func cloneMap(m datatypes.JSONMap) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	c := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
