package utils

import (
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// CleanText strips control characters and surrounding whitespace from user input
func CleanText(s string) string {
	return strings.TrimSpace(SanitizeString(s))
}
