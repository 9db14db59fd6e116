package middleware

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Input validation and sanitization utilities

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// SanitizeFilename keeps only the final path element of an uploaded file
// name so it can be used inside a storage key.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = SanitizeString(strings.NewReplacer("\n", "", "\t", " ").Replace(name))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "upload"
	}
	if len(name) > 200 {
		name = name[len(name)-200:]
	}
	return name
}

// ValidateID parses a positive integer path parameter
func ValidateID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", raw)
	}
	return id, nil
}

// ValidateTitle checks the draft title
func ValidateTitle(title string) (string, error) {
	title = SanitizeString(title)
	if title == "" {
		return "", fmt.Errorf("title is required")
	}
	if len([]rune(title)) > 255 {
		return "", fmt.Errorf("title must be at most 255 characters")
	}
	return title, nil
}
