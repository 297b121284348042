package ops

import (
	"context"
	"database/sql"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// ComposeInput contains parameters for the Compose operation.
type ComposeInput struct {
	TweakIDs      []string // required, ordered, 1-50 items
	HideSensitive bool     // apply the redactor to each tweak's code
	Normalize     bool     // re-normalize code (stored fragments are normalized at ingest)
}

// ComposeOutput contains the result of the Compose operation.
type ComposeOutput struct {
	Document string `json:"document"`
	Chars    int    `json:"chars"`
	Parts    int    `json:"parts"`
}

// Compose merges the selected tweaks into one export-ready document.
// All-or-nothing: fails if any selected tweak is missing.
func Compose(ctx context.Context, database *sql.DB, cfg *config.Config, input ComposeInput) (*ComposeOutput, error) {
	ids, err := validateSelection(input.TweakIDs)
	if err != nil {
		return nil, err
	}

	var redactor *tweak.Redactor
	if input.HideSensitive {
		redactor, err = tweak.NewRedactor(cfg.RedactPatterns, cfg.RedactMask)
		if err != nil {
			return nil, errors.NewInvalidRequest("invalid redact pattern: " + err.Error())
		}
	}

	// Open a read-only transaction so all reads share a single point-in-time snapshot.
	tx, err := database.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.NewPersistence(err)
	}
	defer tx.Rollback() //nolint:errcheck

	select {
	case <-ctx.Done():
		return nil, errors.NewCancelled("compose")
	default:
	}

	tweaks, err := db.GetTweaksByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewPersistence(err)
	}

	doc := tweak.Compose(tweaks, tweak.ComposeOptions{
		Redactor:  redactor,
		Normalize: input.Normalize,
	})

	return &ComposeOutput{
		Document: doc,
		Chars:    tweak.CountChars(doc),
		Parts:    len(tweaks),
	}, nil
}
