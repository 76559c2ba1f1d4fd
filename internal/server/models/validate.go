package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
)

const maxNameLength = 255

// Characters that may not appear in folder or file names.
const invalidNameChars = `/\:*?"<>|`

// ValidateName checks the shared naming rules for folders and files:
// non-empty, at most 255 characters, none of / \ : * ? " < > |.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", common.ErrValidation, maxNameLength)
	}
	if i := strings.IndexAny(name, invalidNameChars); i >= 0 {
		return fmt.Errorf("%w: name contains invalid character %q", common.ErrValidation, name[i])
	}
	return nil
}

// ValidateYear checks that an archival year, when set, is plausible.
func ValidateYear(year *int) error {
	if year == nil {
		return nil
	}
	current := time.Now().Year()
	if *year < 1900 || *year > current+10 {
		return fmt.Errorf("%w: year %d out of range", common.ErrValidation, *year)
	}
	return nil
}

// SanitizeFileName replaces invalid characters with underscores and trims
// leading/trailing spaces and dots, so that user-supplied names are safe to
// embed in a storage path.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(invalidNameChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ". ")
	if len(cleaned) > maxNameLength {
		cleaned = cleaned[:maxNameLength]
	}
	if cleaned == "" {
		cleaned = "unnamed"
	}
	return cleaned
}
