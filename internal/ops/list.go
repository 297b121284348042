package ops

import (
	"context"
	"database/sql"

	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	CategoryID    *string // optional filter
	IncludeHidden bool
	Limit         int // default: 20, max: 100
	Offset        int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Categories []tweak.Category `json:"categories"`
	Items      []tweak.Summary  `json:"items"`
	Pagination Pagination       `json:"pagination"`
	Sort       string           `json:"sort"`
}

// List retrieves the catalog: categories plus a page of tweak summaries.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	offset := max(input.Offset, 0)

	categories, err := db.ListCategories(ctx, database)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []tweak.Category{}
	}

	summaries, total, err := db.ListTweaks(ctx, database,
		cleanOptionalString(input.CategoryID), input.IncludeHidden, limit, offset)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []tweak.Summary{}
	}

	hasMore := offset+len(summaries) < total

	return &ListOutput{
		Categories: categories,
		Items:      summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
			Total:   total,
		},
		Sort: "title_asc",
	}, nil
}
