package ops

import (
	"context"
	"database/sql"
	"sync"

	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/errors"
)

// IncrementResult reports the outcome for a single tweak's counter.
type IncrementResult struct {
	TweakID string  `json:"tweak_id"`
	OK      bool    `json:"ok"`
	Error   *string `json:"error,omitempty"`
}

// IncrementOutput contains per-id results of a counter fan-out.
type IncrementOutput struct {
	Results []IncrementResult `json:"results"`
	Failed  int               `json:"failed"`
}

// IncrementDownloads bumps each selected tweak's download counter. The
// increments are issued as independent concurrent requests: the store's
// atomic UPDATE is the only arbiter, there is no client-side locking, and a
// failure on one id never prevents the others. Every failure is reported in
// the result, never swallowed.
func IncrementDownloads(ctx context.Context, database *sql.DB, tweakIDs []string) (*IncrementOutput, error) {
	ids, err := validateSelection(tweakIDs)
	if err != nil {
		return nil, err
	}

	results := make([]IncrementResult, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = IncrementResult{TweakID: id, OK: true}
			if err := db.IncrementDownloads(ctx, database, id); err != nil {
				msg := errors.NewCounterIncrement(id, err).Error()
				results[i].OK = false
				results[i].Error = &msg
			}
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}

	return &IncrementOutput{Results: results, Failed: failed}, nil
}
