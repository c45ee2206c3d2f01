package ingest

import (
	"strings"

	"github.com/google/uuid"
)

// NewRunID creates a random run id suitable for logs + API responses.
// Format: "run_" + 32 hex chars
func NewRunID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return "run_" + strings.ReplaceAll(id.String(), "-", ""), nil
}
