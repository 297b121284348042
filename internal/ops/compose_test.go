package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/errors"
)

func TestCompose_MultipleTweaks(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	cfg := config.DefaultConfig()

	output, err := Compose(context.Background(), database, cfg, ComposeInput{
		TweakIDs: []string{"anim", "tele"},
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if output.Parts != 2 {
		t.Errorf("Parts = %d, want 2", output.Parts)
	}
	if output.Chars == 0 {
		t.Error("Chars should not be 0")
	}

	// Selection order, not catalog order
	animIdx := strings.Index(output.Document, "# Disables UI animations")
	teleIdx := strings.Index(output.Document, "# Turns off telemetry reporting")
	if animIdx < 0 || teleIdx < 0 {
		t.Fatalf("both headers should be present:\n%s", output.Document)
	}
	if animIdx > teleIdx {
		t.Error("blocks should follow selection order")
	}

	if !strings.Contains(output.Document, "comment: takes effect after sign-out") {
		t.Errorf("header should carry the comment:\n%s", output.Document)
	}
	if !strings.Contains(output.Document, "report: - | downloads: 0") {
		t.Errorf("absent report count should render as placeholder:\n%s", output.Document)
	}
}

func TestCompose_MissingTweakFailsWhole(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	cfg := config.DefaultConfig()

	_, err := Compose(context.Background(), database, cfg, ComposeInput{
		TweakIDs: []string{"tele", "ghost"},
	})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCompose_EmptySelection(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	_, err := Compose(context.Background(), database, cfg, ComposeInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestCompose_TooManyItems(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	ids := make([]string, MaxComposeItems+1)
	for i := range ids {
		ids[i] = "x"
	}
	_, err := Compose(context.Background(), database, cfg, ComposeInput{TweakIDs: ids})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestCompose_HideSensitive(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	cfg := config.DefaultConfig()

	output, err := Compose(context.Background(), database, cfg, ComposeInput{
		TweakIDs:      []string{"secret"},
		HideSensitive: true,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if strings.Contains(output.Document, "abc123secret") {
		t.Errorf("secret should be masked:\n%s", output.Document)
	}
	if !strings.Contains(output.Document, "[REDACTED]") {
		t.Errorf("mask token should appear:\n%s", output.Document)
	}
}

func TestCompose_CustomMask(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	cfg := config.DefaultConfig()
	cfg.RedactMask = "<hidden>"

	output, err := Compose(context.Background(), database, cfg, ComposeInput{
		TweakIDs:      []string{"secret"},
		HideSensitive: true,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !strings.Contains(output.Document, "<hidden>") {
		t.Errorf("configured mask should be used:\n%s", output.Document)
	}
}

func TestCompose_BadRedactPattern(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	cfg := config.DefaultConfig()
	cfg.RedactPatterns = []string{"(unclosed"}

	_, err := Compose(context.Background(), database, cfg, ComposeInput{
		TweakIDs:      []string{"tele"},
		HideSensitive: true,
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for bad pattern, got %v", err)
	}
}

func TestCompose_NeverMutatesCounters(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	cfg := config.DefaultConfig()
	ctx := context.Background()

	for range 3 {
		if _, err := Compose(ctx, database, cfg, ComposeInput{TweakIDs: []string{"tele"}}); err != nil {
			t.Fatalf("Compose failed: %v", err)
		}
	}

	fetched, err := Fetch(ctx, database, FetchInput{ID: "tele"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched.DownloadCount != 0 {
		t.Errorf("compose must not touch counters, got %d", fetched.DownloadCount)
	}
}

func TestCompose_CancelledContext(t *testing.T) {
	database := testDB(t)
	seedCatalog(t, database)
	cfg := config.DefaultConfig()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compose(ctx, database, cfg, ComposeInput{TweakIDs: []string{"tele"}})
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}
