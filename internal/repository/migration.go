package repository

import (
	"fmt"

	"upload-registry/internal/domain/upload"

	"gorm.io/gorm"
)

// InitSchema creates or migrates the engine_uploads table and its indexes.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&upload.Upload{}); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
