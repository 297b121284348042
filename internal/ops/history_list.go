package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/history"
)

// HistoryForUserInput contains parameters for the HistoryForUser operation.
type HistoryForUserInput struct {
	UserID string // required
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// HistoryForUserOutput contains a user's history, newest first. A record
// whose stored selection fails to decode lands in Corrupt instead of
// aborting the fetch: partial success, not all-or-nothing.
type HistoryForUserOutput struct {
	Items      []history.Entry        `json:"items"`
	Corrupt    []history.CorruptEntry `json:"corrupt,omitempty"`
	Pagination Pagination             `json:"pagination"`
}

// HistoryForUser retrieves a user's past selections in reverse-chronological
// order (ties broken by insertion order).
func HistoryForUser(ctx context.Context, database *sql.DB, input HistoryForUserInput) (*HistoryForUserOutput, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.NewInvalidRequest("user_id is required")
	}

	limit := clampLimit(input.Limit, DefaultHistoryLimit, MaxHistoryLimit)
	offset := max(input.Offset, 0)

	rows, total, err := db.HistoryRowsForUser(ctx, database, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]history.Entry, 0, len(rows))
	var corrupt []history.CorruptEntry
	for _, r := range rows {
		ids, err := history.DecodeSelection(r.SelectionJSON)
		if err != nil {
			corrupt = append(corrupt, history.CorruptEntry{
				ID:    r.ID,
				Cause: errors.NewCorruptEntry(r.ID, err).Message,
			})
			continue
		}
		items = append(items, history.Entry{
			ID:         r.ID,
			UserID:     r.UserID,
			Name:       r.Name,
			TweakIDs:   ids,
			IsFavorite: r.IsFavorite,
			CreatedAt:  r.CreatedAt,
		})
	}

	hasMore := offset+len(rows) < total

	return &HistoryForUserOutput{
		Items:   items,
		Corrupt: corrupt,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
			Total:   total,
		},
	}, nil
}
