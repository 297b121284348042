package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/history"
)

// SaveHistoryInput contains parameters for the SaveHistory operation.
type SaveHistoryInput struct {
	UserID     string   // required; opaque, already authenticated upstream
	TweakIDs   []string // required, ordered
	Name       *string  // optional user label
	IsFavorite bool
}

// SaveHistoryOutput contains the result of the SaveHistory operation.
type SaveHistoryOutput struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// SaveHistory records a user's selection as a new history entry with a
// server-assigned id and creation timestamp. The ordered id list is stored
// losslessly: reading the entry back decodes to the exact sequence saved.
func SaveHistory(ctx context.Context, database *sql.DB, input SaveHistoryInput) (*SaveHistoryOutput, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.NewInvalidRequest("user_id is required")
	}

	ids, err := validateSelection(input.TweakIDs)
	if err != nil {
		return nil, err
	}

	selectionJSON, err := history.EncodeSelection(ids)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	entry := &history.Entry{
		ID:         id,
		UserID:     userID,
		Name:       cleanOptionalString(input.Name),
		TweakIDs:   ids,
		IsFavorite: input.IsFavorite,
		CreatedAt:  time.Now().Unix(),
	}

	if err := db.InsertHistory(ctx, database, entry, selectionJSON); err != nil {
		return nil, err
	}

	return &SaveHistoryOutput{
		ID:        entry.ID,
		CreatedAt: entry.CreatedAt,
	}, nil
}
