package ops

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

func stringPtr(s string) *string { return &s }

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// seedCatalog loads a small fixed catalog: two categories, three tweaks.
func seedCatalog(t *testing.T, database *sql.DB) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().Unix()

	categories := []tweak.Category{
		{ID: "privacy", Name: "Privacy", Position: 1},
		{ID: "perf", Name: "Performance", Position: 2},
	}
	for i := range categories {
		if err := db.UpsertCategory(ctx, database, &categories[i]); err != nil {
			t.Fatalf("UpsertCategory failed: %v", err)
		}
	}

	tweaks := []tweak.Tweak{
		{
			ID:          "tele",
			CategoryID:  "privacy",
			Title:       "Disable telemetry",
			Description: stringPtr("Turns off telemetry reporting"),
			Code:        stringPtr("Set-ItemProperty -Path HKLM:\\SOFTWARE\\Telemetry -Name Enabled -Value 0"),
			IsVisible:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "anim",
			CategoryID:  "perf",
			Title:       "Disable animations",
			Description: stringPtr("Disables UI animations"),
			Code:        stringPtr("Set-ItemProperty -Path HKCU:\\Control` Panel -Name Animations -Value 0"),
			Comment:     stringPtr("takes effect after sign-out"),
			IsVisible:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "secret",
			CategoryID:  "privacy",
			Title:       "Service token",
			Description: stringPtr("Registers the update service"),
			Code:        stringPtr("register-service --token=abc123secret"),
			IsVisible:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	for i := range tweaks {
		if err := db.InsertTweak(ctx, database, &tweaks[i]); err != nil {
			t.Fatalf("InsertTweak %s failed: %v", tweaks[i].ID, err)
		}
	}
}
