package utils

import (
	"strings"

	"github.com/google/uuid"
)

func NewID() string { return uuid.NewString() }

// IsDupKey matches unique-violation errors across drivers without pinning
// a driver-specific error type.
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
