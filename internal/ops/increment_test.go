package ops

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/mkvoss/tweakstash/internal/errors"
)

func TestIncrementDownloads_AllSucceed(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	ctx := context.Background()

	output, err := IncrementDownloads(ctx, database, []string{"tele", "anim"})
	if err != nil {
		t.Fatalf("IncrementDownloads failed: %v", err)
	}
	if output.Failed != 0 {
		t.Errorf("Failed = %d, want 0", output.Failed)
	}
	for _, r := range output.Results {
		if !r.OK {
			t.Errorf("result for %s should be OK: %v", r.TweakID, r.Error)
		}
	}

	fetched, err := Fetch(ctx, database, FetchInput{ID: "tele"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched.DownloadCount != 1 {
		t.Errorf("DownloadCount = %d, want 1", fetched.DownloadCount)
	}
}

func TestIncrementDownloads_PartialFailure(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	ctx := context.Background()

	output, err := IncrementDownloads(ctx, database, []string{"tele", "ghost", "anim"})
	if err != nil {
		t.Fatalf("IncrementDownloads failed: %v", err)
	}
	if output.Failed != 1 {
		t.Errorf("Failed = %d, want 1", output.Failed)
	}
	if len(output.Results) != 3 {
		t.Fatalf("Results length = %d, want 3 (order preserved)", len(output.Results))
	}

	// Results keep selection order
	if output.Results[0].TweakID != "tele" || !output.Results[0].OK {
		t.Errorf("tele should succeed: %+v", output.Results[0])
	}
	if output.Results[1].TweakID != "ghost" || output.Results[1].OK {
		t.Errorf("ghost should fail: %+v", output.Results[1])
	}
	if output.Results[1].Error == nil || !strings.Contains(*output.Results[1].Error, "ghost") {
		t.Errorf("failure should name the tweak: %v", output.Results[1].Error)
	}
	if output.Results[2].TweakID != "anim" || !output.Results[2].OK {
		t.Errorf("anim should succeed despite sibling failure: %+v", output.Results[2])
	}

	// The failed sibling did not roll back the successes
	fetched, err := Fetch(ctx, database, FetchInput{ID: "anim"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched.DownloadCount != 1 {
		t.Errorf("anim DownloadCount = %d, want 1", fetched.DownloadCount)
	}
}

func TestIncrementDownloads_EmptySelection(t *testing.T) {
	database := testDB(t)

	_, err := IncrementDownloads(context.Background(), database, nil)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestIncrementDownloads_ConcurrentCallers(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := IncrementDownloads(ctx, database, []string{"tele"}); err != nil {
				t.Errorf("IncrementDownloads failed: %v", err)
			}
		}()
	}
	wg.Wait()

	fetched, err := Fetch(ctx, database, FetchInput{ID: "tele"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched.DownloadCount != callers {
		t.Errorf("DownloadCount = %d, want %d (no lost updates)", fetched.DownloadCount, callers)
	}
}
