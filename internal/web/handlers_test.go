package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/ops"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

func stringPtr(s string) *string { return &s }

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	renderer := NewRenderer(templateSub, "test")

	return &Handlers{
		db:       database,
		cfg:      cfg,
		renderer: renderer,
	}
}

// seedTweak inserts a category (if needed) and one tweak.
func seedTweak(t *testing.T, database *sql.DB, id, title, code string) {
	t.Helper()
	ctx := context.Background()

	err := db.UpsertCategory(ctx, database, &tweak.Category{
		ID:       "general",
		Name:     "General",
		Position: 1,
	})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}

	now := time.Now().Unix()
	err = db.InsertTweak(ctx, database, &tweak.Tweak{
		ID:          id,
		CategoryID:  "general",
		Title:       title,
		Description: stringPtr("Does something useful"),
		Code:        stringPtr(code),
		IsVisible:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed tweak %q: %v", id, err)
	}
}

// --- HandleList ---

func TestHandleList_Default(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	req := httptest.NewRequest("GET", "/tweaks", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Disable telemetry") {
		t.Error("expected tweak title in response")
	}
	if !strings.Contains(body, "Tweaks") {
		t.Error("expected page title 'Tweaks' in response")
	}
}

func TestHandleList_Empty(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/tweaks", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No tweaks yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleList_CategoryFilter(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	req := httptest.NewRequest("GET", "/tweaks?category=no-such", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Disable telemetry") {
		t.Error("did not expect tweak outside filtered category")
	}
}

func TestHandleList_HtmxReturnsContentOnly(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	req := httptest.NewRequest("GET", "/tweaks", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("htmx response should not contain full layout")
	}
	if !strings.Contains(body, "Disable telemetry") {
		t.Error("htmx response should contain tweak data")
	}
}

func TestHandleList_InvalidLimitFallsBack(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/tweaks?limit=notanumber&offset=bad", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

// --- HandleDetail ---

func TestHandleDetail(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	req := httptest.NewRequest("GET", "/tweaks/tele", nil)
	req.SetPathValue("id", "tele")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Disable telemetry") {
		t.Error("expected tweak title in detail page")
	}
	if !strings.Contains(body, "Write-Host off") {
		t.Error("expected script body in detail page")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/tweaks/ghost", nil)
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// --- HandleCompose ---

func TestHandleCompose_NoSelection(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/tweaks/compose", nil)
	rec := httptest.NewRecorder()
	h.HandleCompose(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Enter tweak ids") {
		t.Error("expected empty compose prompt")
	}
}

func TestHandleCompose_Preview(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	req := httptest.NewRequest("GET", "/tweaks/compose?ids=tele", nil)
	rec := httptest.NewRecorder()
	h.HandleCompose(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Write-Host off") {
		t.Error("expected composed document in preview")
	}

	// Preview must never bump the counter
	fetched, err := ops.Fetch(context.Background(), h.db, ops.FetchInput{ID: "tele"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched.DownloadCount != 0 {
		t.Errorf("DownloadCount = %d, preview must not count as a download", fetched.DownloadCount)
	}
}

func TestHandleCompose_UnknownID(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/tweaks/compose?ids=ghost", nil)
	rec := httptest.NewRecorder()
	h.HandleCompose(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// --- HandleDownload ---

func TestHandleDownload(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	form := url.Values{}
	form.Set("ids", "tele")
	form.Set("name", "my setup")

	req := httptest.NewRequest("POST", "/tweaks/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleDownload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "my-setup") {
		t.Errorf("Content-Disposition = %q, want attachment with sanitized name", cd)
	}
	if !strings.Contains(rec.Body.String(), "Write-Host off") {
		t.Error("expected script body in download payload")
	}

	// Download bumps the counter and records history
	fetched, err := ops.Fetch(context.Background(), h.db, ops.FetchInput{ID: "tele"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched.DownloadCount != 1 {
		t.Errorf("DownloadCount = %d, want 1 after download", fetched.DownloadCount)
	}

	hist, err := ops.HistoryForUser(context.Background(), h.db, ops.HistoryForUserInput{UserID: ops.DefaultUserID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Items) != 1 {
		t.Fatalf("got %d history entries, want 1", len(hist.Items))
	}
	if hist.Items[0].Name == nil || *hist.Items[0].Name != "my setup" {
		t.Errorf("history name = %v, want %q", hist.Items[0].Name, "my setup")
	}
}

func TestHandleDownload_HistoryFailureStillServesPayload(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	if _, err := h.db.Exec(`DROP TABLE history`); err != nil {
		t.Fatalf("dropping history table: %v", err)
	}

	form := url.Values{}
	form.Set("ids", "tele")
	form.Set("name", "my setup")

	req := httptest.NewRequest("POST", "/tweaks/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleDownload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Write-Host off") {
		t.Error("payload should be served even when the history save fails")
	}

	// Counters are independent of the history failure
	fetched, err := ops.Fetch(context.Background(), h.db, ops.FetchInput{ID: "tele"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched.DownloadCount != 1 {
		t.Errorf("DownloadCount = %d, want 1", fetched.DownloadCount)
	}
}

func TestHandleDownload_UTF16(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	form := url.Values{}
	form.Set("ids", "tele")
	form.Set("encoding", "utf16")

	req := httptest.NewRequest("POST", "/tweaks/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleDownload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "utf-16") {
		t.Errorf("Content-Type = %q, want utf-16 charset", ct)
	}
	body := rec.Body.Bytes()
	if len(body) < 2 || body[0] != 0xFF || body[1] != 0xFE {
		t.Error("expected UTF-16 LE BOM at start of payload")
	}
}

func TestHandleDownload_EmptySelection(t *testing.T) {
	h := setupTest(t)

	form := url.Values{}
	form.Set("ids", "")

	req := httptest.NewRequest("POST", "/tweaks/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleDownload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// --- HandleHistory ---

func TestHandleHistory(t *testing.T) {
	h := setupTest(t)

	_, err := ops.SaveHistory(context.Background(), h.db, ops.SaveHistoryInput{
		UserID:   "local",
		TweakIDs: []string{"a", "b"},
		Name:     stringPtr("weekend setup"),
	})
	if err != nil {
		t.Fatalf("seed history: %v", err)
	}

	req := httptest.NewRequest("GET", "/history", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "weekend setup") {
		t.Error("expected history entry name in response")
	}
}

func TestHandleHistory_UserScoped(t *testing.T) {
	h := setupTest(t)

	_, err := ops.SaveHistory(context.Background(), h.db, ops.SaveHistoryInput{
		UserID:   "alice",
		TweakIDs: []string{"a"},
		Name:     stringPtr("alice-only"),
	})
	if err != nil {
		t.Fatalf("seed history: %v", err)
	}

	req := httptest.NewRequest("GET", "/history?user=bob", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "alice-only") {
		t.Error("history must be scoped to the requested user")
	}
}

// --- HandleStats ---

func TestHandleStats_HTML(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	h.HandleStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Stats") {
		t.Error("expected stats page title")
	}
}

func TestHandleStats_JSON(t *testing.T) {
	h := setupTest(t)
	seedTweak(t, h.db, "tele", "Disable telemetry", "Write-Host off")

	req := httptest.NewRequest("GET", "/stats", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var output map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &output); err != nil {
		t.Fatalf("failed to unmarshal stats JSON: %v", err)
	}
	if total := output["total_tweaks"].(float64); total != 1 {
		t.Errorf("total_tweaks = %v, want 1", total)
	}
}

// --- Server wiring ---

func TestServerRoutes(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv := NewServer(database, config.DefaultConfig(), "test", "127.0.0.1", 0)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	t.Run("root redirects to tweaks", func(t *testing.T) {
		client := &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		resp, err := client.Get(ts.URL + "/")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Errorf("status = %d, want 302", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/tweaks" {
			t.Errorf("Location = %q, want /tweaks", loc)
		}
	})

	t.Run("security headers present", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/tweaks")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
			t.Error("missing X-Content-Type-Options header")
		}
		if resp.Header.Get("X-Frame-Options") != "DENY" {
			t.Error("missing X-Frame-Options header")
		}
		if !strings.Contains(resp.Header.Get("Content-Security-Policy"), "default-src 'self'") {
			t.Error("missing Content-Security-Policy header")
		}
	})

	t.Run("static stylesheet served", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/static/style.css")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})
}
