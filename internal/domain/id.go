package domain

import "github.com/google/uuid"

// newRunID creates a new unique run identifier.
func newRunID() string {
	return uuid.NewString()
}
