package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

const idPrefix = "upld-"

// ResolveID derives the deterministic upload id. Uploads agreeing on all four
// inputs collapse to the same id, which is what makes the store's primary key
// the dedup guard.
func ResolveID(userID, fileID, fileName string, fileSize int64) string {
	sum := sha256.Sum256([]byte(fileID + "-" + fileName + "-" + strconv.FormatInt(fileSize, 10)))
	return idPrefix + userID + "-" + hex.EncodeToString(sum[:])
}
