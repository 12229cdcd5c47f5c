package upload

import (
	"fmt"

	registry_errors "upload-registry/pkg/errors"

	"gorm.io/datatypes"
)

// NewParams is the fixed set of fields a caller may supply when creating an
// upload record. ID is normally left empty and derived by ResolveID.
type NewParams struct {
	ID                string                 `json:"id,omitempty"`
	UserID            string                 `json:"user_id"`
	FileName          string                 `json:"file_name,omitempty"`
	FilePath          string                 `json:"file_path,omitempty"`
	FileSize          int64                  `json:"file_size"`
	FileID            string                 `json:"file_id"`
	ProviderNamespace string                 `json:"provider_namespace,omitempty"`
	ProviderName      string                 `json:"provider_name"`
	ProviderLocation  string                 `json:"provider_location,omitempty"`
	BucketName        string                 `json:"bucket_name"`
	ObjectKey         string                 `json:"object_key"`
	ObjectOptions     map[string]interface{} `json:"object_options,omitempty"`
	Resumable         bool                   `json:"resumable"`
	ResumableID       string                 `json:"resumable_id,omitempty"`
	PartList          []Part                 `json:"part_list,omitempty"`
	PartData          map[string]interface{} `json:"part_data,omitempty"`
}

// New builds a validated record from params. Timestamps and version are left
// for the store to assign.
func New(p NewParams) (Upload, error) {
	u := Upload{
		ID:                p.ID,
		UserID:            p.UserID,
		FileName:          p.FileName,
		FilePath:          p.FilePath,
		FileSize:          p.FileSize,
		FileID:            p.FileID,
		ProviderNamespace: p.ProviderNamespace,
		ProviderName:      p.ProviderName,
		ProviderLocation:  p.ProviderLocation,
		BucketName:        p.BucketName,
		ObjectKey:         p.ObjectKey,
		ObjectOptions:     toJSONMap(p.ObjectOptions),
		Resumable:         p.Resumable,
		ResumableID:       p.ResumableID,
		PartList:          datatypes.JSONSlice[Part]{},
		PartData:          toJSONMap(p.PartData),
	}
	if u.ProviderNamespace == "" {
		u.ProviderNamespace = DefaultNamespace
	}
	if u.ID == "" {
		u.ID = ResolveID(u.UserID, u.FileID, u.FileName, u.FileSize)
	}
	for _, part := range p.PartList {
		if err := u.AppendPart(part); err != nil {
			return Upload{}, err
		}
	}
	if err := u.Validate(); err != nil {
		return Upload{}, err
	}
	return u, nil
}

// Validate checks the field constraints a stored record must satisfy.
func (u Upload) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: id is required", registry_errors.ErrValidation)
	}
	if u.UserID == "" {
		return fmt.Errorf("%w: user_id is required", registry_errors.ErrValidation)
	}
	if u.ProviderName == "" {
		return fmt.Errorf("%w: provider_name is required", registry_errors.ErrValidation)
	}
	if u.FileSize < 0 {
		return fmt.Errorf("%w: file_size must not be negative", registry_errors.ErrValidation)
	}
	if u.ResumableID != "" && !u.Resumable {
		return fmt.Errorf("%w: resumable_id set on a non-resumable upload", registry_errors.ErrValidation)
	}
	seen := make(map[int]struct{}, len(u.PartList))
	for _, p := range u.PartList {
		if p.Number <= 0 {
			return fmt.Errorf("%w: part number must be positive", registry_errors.ErrValidation)
		}
		if _, dup := seen[p.Number]; dup {
			return fmt.Errorf("%w: part %d listed twice", registry_errors.ErrValidation, p.Number)
		}
		seen[p.Number] = struct{}{}
	}
	return nil
}

// UpdateParams lists the mutable fields of a record. Nil fields are left as
// they are. AddParts is appended to the existing part list; identity fields
// cannot be changed.
type UpdateParams struct {
	Resumable     *bool                  `json:"resumable,omitempty"`
	ResumableID   *string                `json:"resumable_id,omitempty"`
	FilePath      *string                `json:"file_path,omitempty"`
	ObjectOptions map[string]interface{} `json:"object_options,omitempty"`
	PartData      map[string]interface{} `json:"part_data,omitempty"`
	AddParts      []Part                 `json:"add_parts,omitempty"`
}

func (p UpdateParams) IsEmpty() bool {
	return p.Resumable == nil && p.ResumableID == nil && p.FilePath == nil &&
		p.ObjectOptions == nil && p.PartData == nil && len(p.AddParts) == 0
}

// Apply merges p into u and validates the result. u is left unchanged when an
// error is returned.
func (u *Upload) Apply(p UpdateParams) error {
	merged := u.Clone()
	if p.Resumable != nil {
		merged.Resumable = *p.Resumable
	}
	if p.ResumableID != nil {
		merged.ResumableID = *p.ResumableID
	}
	if p.FilePath != nil {
		merged.FilePath = *p.FilePath
	}
	if p.ObjectOptions != nil {
		merged.ObjectOptions = toJSONMap(p.ObjectOptions)
	}
	if p.PartData != nil {
		merged.PartData = toJSONMap(p.PartData)
	}
	for _, part := range p.AddParts {
		if err := merged.AppendPart(part); err != nil {
			return err
		}
	}
	if err := merged.Validate(); err != nil {
		return err
	}
	*u = merged
	return nil
}

// AppendPart adds part to the end of the part list. Recording the same part
// twice is a no-op so a retried chunk does not fail; a different part under
// an already used number is rejected.
func (u *Upload) AppendPart(part Part) error {
	if part.Number <= 0 {
		return fmt.Errorf("%w: part number must be positive", registry_errors.ErrValidation)
	}
	if existing, ok := u.HasPart(part.Number); ok {
		if existing == part {
			return nil
		}
		return fmt.Errorf("%w: part %d already recorded with a different etag", registry_errors.ErrValidation, part.Number)
	}
	u.PartList = append(u.PartList, part)
	return nil
}

// MatchesIdentity reports whether every supplied identity field agrees
// with the record.
func (u Upload) MatchesIdentity(userID, fileID, fileName string, fileSize *int64) bool {
	if userID != "" && userID != u.UserID {
		return false
	}
	if fileID != "" && fileID != u.FileID {
		return false
	}
	if fileName != "" && fileName != u.FileName {
		return false
	}
	if fileSize != nil && *fileSize != u.FileSize {
		return false
	}
	return true
}

func toJSONMap(m map[string]interface{}) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	c := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
