package cart

import (
	"strings"

	"github.com/google/uuid"
)

const tempPrefix = "tmp-"

// tempID creates a client-side id for a line item the server has not
// confirmed yet.
func tempID() string {
	return tempPrefix + uuid.NewString()
}

// IsTemporary reports whether id was generated locally and is still
// waiting for reconciliation.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}
