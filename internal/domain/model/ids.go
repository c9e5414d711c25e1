package model

import "github.com/google/uuid"

// ValidID reports whether id can key a participant, event or invitation row.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
