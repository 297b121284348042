package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mkvoss/tweakstash/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit    = 20
	MaxListLimit        = 100
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	MaxComposeItems     = 50
	DefaultStatsLimit   = 10
)

// DefaultUserID labels selections made without an identity layer in front
// (plain CLI usage). The identity collaborator supplies real user ids.
const DefaultUserID = "local"

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampLimit applies default and maximum bounds to a requested page size.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// validateSelection checks an ordered id list for compose/export/history use.
func validateSelection(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequest("tweak_ids is required and must not be empty")
	}
	if len(ids) > MaxComposeItems {
		return nil, errors.NewInvalidRequest("too many tweaks selected")
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, errors.NewInvalidRequest("tweak id must not be empty")
		}
		out = append(out, id)
	}
	return out, nil
}

// cleanOptionalString trims an optional string, dropping it if empty.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
