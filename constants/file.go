package constants

import "strings"

// File formats the pipeline understands.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// MaxFileSizeBytes caps accepted uploads at 10 MB.
const MaxFileSizeBytes int64 = 10 << 20

// AllowedMimeTypes holds the accepted upload mime types.
var AllowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// extToMime maps normalized extensions to their canonical mime type.
var extToMime = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MimeForExt returns the canonical mime type for a file extension,
// or "" when the extension is not an accepted receipt format.
func MimeForExt(ext string) string {
	return extToMime[NormalizeExt(ext)]
}

// MimeAllowed reports whether a mime type is in the accepted set.
func MimeAllowed(mime string) bool {
	_, ok := AllowedMimeTypes[strings.ToLower(strings.TrimSpace(mime))]
	return ok
}

// MapMimeToFormat buckets a mime type into PDF or IMAGE. Returns "" for
// anything outside the accepted set.
func MapMimeToFormat(mime string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	if !MimeAllowed(m) {
		return ""
	}
	if m == "application/pdf" {
		return PDF
	}
	return IMAGE
}
