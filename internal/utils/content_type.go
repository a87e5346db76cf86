package utils

import (
	"mime"
	"path/filepath"
)

// DetectContentType resolves a content type from the file extension.
// Captured assets are jpegs in practice, but the uploader should not
// assume that.
func DetectContentType(path string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(path)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
