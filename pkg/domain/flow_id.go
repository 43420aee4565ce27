package domain

import (
	"fmt"
	"regexp"
)

var flowIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateFlowID checks that id is usable as a file name, key or table row.
func ValidateFlowID(id string) error {
	if !flowIDPattern.MatchString(id) {
		return fmt.Errorf("%q: %w", id, ErrInvalidFlowID)
	}
	return nil
}
