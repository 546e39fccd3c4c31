package id

import (
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID returns random v4 identifiers without dashes so they stay inside the
// session id alphabet.
type UUID struct{}

func (UUID) New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
