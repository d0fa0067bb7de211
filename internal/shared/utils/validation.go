package utils

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Input limits (in bytes unless noted)
const (
	MaxContentSize = 2 * 1024 * 1024 // stored document/quote content
	MaxTitleLength = 512
	MaxIDLength    = 128
	MaxNameLength  = 256
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks an entity id for length and character safety
func ValidateID(id, field string, required bool) error {
	if id == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%s exceeds maximum length of %d", field, MaxIDLength)
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters", field)
	}
	return nil
}

// ValidateIDs applies ValidateID over a batch
func ValidateIDs(ids []string, field string) error {
	for _, v := range ids {
		if err := ValidateID(v, field, true); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTitle checks a title for length and UTF-8 validity
func ValidateTitle(title string) error {
	if len(title) > MaxTitleLength {
		return fmt.Errorf("title exceeds maximum length of %d", MaxTitleLength)
	}
	if !utf8.ValidString(title) {
		return fmt.Errorf("title is not valid UTF-8")
	}
	return nil
}

// ValidateContent checks stored content size
func ValidateContent(content string) error {
	if len(content) > MaxContentSize {
		return fmt.Errorf("content size %d exceeds maximum %d bytes", len(content), MaxContentSize)
	}
	return nil
}
