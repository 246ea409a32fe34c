package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Snippet request limits
const (
	MaxScriptSize      = 256 * 1024 // 256KB
	MaxRequires        = 32
	MaxLibraryIDLength = 128

	// MaxRequestSize caps an encoded snippet request. JSON escaping can
	// grow a script beyond its decoded size.
	MaxRequestSize = 2*MaxScriptSize + 64*1024
)

// LibraryIDPattern allows alphanumeric, dots, hyphens and underscores
var LibraryIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateLibraryID checks an identifier before it reaches the registry
func ValidateLibraryID(id string) error {
	if id == "" {
		return fmt.Errorf("library id is required")
	}
	if len(id) > MaxLibraryIDLength {
		return fmt.Errorf("library id exceeds %d characters", MaxLibraryIDLength)
	}
	if !LibraryIDPattern.MatchString(id) {
		return fmt.Errorf("library id %q contains invalid characters", id)
	}
	return nil
}

// ValidateRequires checks a snippet's declared libraries
func ValidateRequires(ids []string) error {
	if len(ids) > MaxRequires {
		return fmt.Errorf("snippet requires %d libraries, maximum is %d", len(ids), MaxRequires)
	}
	for _, id := range ids {
		if err := ValidateLibraryID(id); err != nil {
			return err
		}
	}
	return nil
}

// ValidateScript checks snippet source is present and within size
func ValidateScript(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("script is empty")
	}
	if len(script) > MaxScriptSize {
		return fmt.Errorf("script size %d bytes exceeds maximum %d bytes", len(script), MaxScriptSize)
	}
	return nil
}
