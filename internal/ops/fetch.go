package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID          string
	IncludeCode *bool // default: true (nil means default)
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	tweak.Tweak // embedded (copy, not pointer)
}

// Fetch retrieves a single tweak by id.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	t, err := db.GetTweakByID(ctx, database, id)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{
		Tweak: *t, // copy, not pointer
	}

	includeCode := true
	if input.IncludeCode != nil {
		includeCode = *input.IncludeCode
	}
	if !includeCode {
		output.Code = nil
	}

	return output, nil
}
