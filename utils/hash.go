package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// ContentHash derives a stable document id from content. Re-adding the
// same content always maps to the same document.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// PassageID names one chunk of a document.
func PassageID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", documentID, chunkIndex)
}
