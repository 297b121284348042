package ops

import (
	"context"
	"database/sql"

	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// StatsInput contains parameters for the Stats operation.
type StatsInput struct {
	Limit int // max entries in the top-downloads list, default 10
}

// StatsOutput contains catalog usage statistics.
type StatsOutput struct {
	TotalTweaks    int             `json:"total_tweaks"`
	TotalDownloads int64           `json:"total_downloads"`
	TopDownloads   []tweak.Summary `json:"top_downloads"`
}

// Stats reports download totals and the most-downloaded tweaks.
func Stats(ctx context.Context, database *sql.DB, input StatsInput) (*StatsOutput, error) {
	limit := clampLimit(input.Limit, DefaultStatsLimit, MaxListLimit)

	top, err := db.TopDownloads(ctx, database, limit)
	if err != nil {
		return nil, err
	}

	totals, err := db.DownloadTotals(ctx, database)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{
		TotalTweaks:    totals.Tweaks,
		TotalDownloads: totals.Downloads,
		TopDownloads:   top,
	}, nil
}
