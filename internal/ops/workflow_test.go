package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkvoss/tweakstash/internal/db"
)

// TestFullWorkflow exercises the complete catalog lifecycle: seed import,
// browsing, composition preview, export with side effects, and history
// replay, all against one database.
func TestFullWorkflow(t *testing.T) {
	dataDir := t.TempDir()
	database, err := db.Init(dataDir)
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	workDir := t.TempDir()
	cfg := exportConfig(workDir)

	// Step 1: import a seed catalog
	seedPath := filepath.Join(workDir, "catalog.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0600))

	imported, err := Import(ctx, database, cfg, ImportInput{Path: seedPath})
	require.NoError(t, err)
	require.Equal(t, 2, imported.Categories)
	require.Equal(t, 3, imported.Imported)

	// Step 2: browse the catalog
	listed, err := List(ctx, database, ListInput{CategoryID: stringPtr("privacy")})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1, "hidden tweaks stay out of listings")
	require.Equal(t, "Disable telemetry", listed.Items[0].Title)

	// Step 3: inspect one tweak
	fetched, err := Fetch(ctx, database, FetchInput{ID: "tele"})
	require.NoError(t, err)
	require.NotNil(t, fetched.Code)
	require.Equal(t, int64(0), fetched.DownloadCount)

	// Step 4: preview a composition; counters must not move
	composed, err := Compose(ctx, database, cfg, ComposeInput{TweakIDs: []string{"tele"}})
	require.NoError(t, err)
	require.Contains(t, composed.Document, "# Turns off telemetry reporting")
	require.Contains(t, composed.Document, "Set-ItemProperty")

	fetched, err = Fetch(ctx, database, FetchInput{ID: "tele"})
	require.NoError(t, err)
	require.Equal(t, int64(0), fetched.DownloadCount, "preview must not count as a download")

	// Step 5: export to disk; counters and history follow
	exportPath := filepath.Join(workDir, "my-setup.ps1")
	exported, err := Export(ctx, database, cfg, ExportInput{
		TweakIDs:    []string{"tele"},
		Path:        exportPath,
		UserID:      "alice",
		HistoryName: stringPtr("my setup"),
	})
	require.NoError(t, err)
	require.Equal(t, exportPath, exported.Path)
	require.NotEmpty(t, exported.HistoryID)
	require.Zero(t, exported.Failed)

	payload, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Equal(t, composed.Document, strings.TrimSuffix(string(payload), "\n"))

	fetched, err = Fetch(ctx, database, FetchInput{ID: "tele"})
	require.NoError(t, err)
	require.Equal(t, int64(1), fetched.DownloadCount)

	// Step 6: replay the saved selection from history
	hist, err := HistoryForUser(ctx, database, HistoryForUserInput{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	require.Equal(t, exported.HistoryID, hist.Items[0].ID)
	require.Equal(t, []string{"tele"}, hist.Items[0].TweakIDs)
	require.NotNil(t, hist.Items[0].Name)
	require.Equal(t, "my setup", *hist.Items[0].Name)

	replayed, err := Compose(ctx, database, cfg, ComposeInput{TweakIDs: hist.Items[0].TweakIDs})
	require.NoError(t, err)
	require.Equal(t, composed.Document, replayed.Document)

	// Step 7: stats reflect the single download
	stats, err := Stats(ctx, database, StatsInput{})
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalDownloads)
	require.NotEmpty(t, stats.TopDownloads)
	require.Equal(t, "tele", stats.TopDownloads[0].ID)
}
