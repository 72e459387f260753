package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for invoice ingestion.
// Synchronous Textract analysis supports these formats.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsSupportedKey reports whether an object key has an allowed extension.
func IsSupportedKey(key string) bool {
	idx := strings.LastIndexByte(key, '.')
	if idx < 0 {
		return false
	}
	_, ok := AllowedExtensions[NormalizeExt(key[idx:])]
	return ok
}
