package blobstore

import (
	"fmt"
	"regexp"
	"time"
)

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// SanitizeFileName replaces every character outside [A-Za-z0-9.-] with an
// underscore so the name is safe to embed in a storage path.
func SanitizeFileName(name string) string {
	return unsafePathChars.ReplaceAllString(name, "_")
}

// ObjectPath builds the storage path for a user's document:
// {userID}/{unix_ms}_{sanitized_name}. The millisecond prefix keeps paths
// unique across repeated uploads of the same file.
func ObjectPath(userID, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", userID, now.UnixMilli(), SanitizeFileName(fileName))
}
