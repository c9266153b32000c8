package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// SanitizeName keeps only characters that are safe in a single path segment
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "")
}

// ExportPath builds the relative path of a stored document,
// e.g. exports/user-1/INV-1001_20260110T150405Z.pdf
func ExportPath(userID, name string, at time.Time, ext string) string {
	user := SanitizeName(userID)
	if user == "" {
		user = "unknown"
	}
	base := SanitizeName(name)
	if base == "" {
		base = "document"
	}
	ext = strings.TrimPrefix(ext, ".")
	return filepath.Join("exports", user, fmt.Sprintf("%s_%s.%s", base, at.UTC().Format("20060102T150405Z"), ext))
}
