package services

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// BuildObjectKey returns a fresh storage key for a user's file, keeping the
// file extension.
func BuildObjectKey(userID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("uploads/%s/%s%s", userID, uuid.New().String(), ext)
}
