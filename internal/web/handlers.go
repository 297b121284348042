package web

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/ops"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /tweaks — browse the catalog.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	input := ops.ListInput{
		CategoryID:    ptrString(category),
		IncludeHidden: parseBoolParam(r, "include_hidden"),
		Limit:         parseIntParam(r, "limit", 20),
		Offset:        parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Tweaks",
			Version: h.renderer.version,
			Nav:     "tweaks",
		},
		Categories: result.Categories,
		Items:      result.Items,
		Pagination: result.Pagination,
		Category:   category,
		Hidden:     input.IncludeHidden,
	})
}

// HandleDetail handles GET /tweaks/{id} — view a single tweak.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("tweak ID is required"))
		return
	}

	result, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	desc := ""
	if result.Description != nil {
		desc = *result.Description
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   result.Title,
			Version: h.renderer.version,
			Nav:     "tweaks",
		},
		Tweak:        result,
		RenderedHTML: renderMarkdown(desc),
		Header:       tweak.RenderHeader(&result.Tweak),
	})
}

// HandleCompose handles GET /tweaks/compose — preview a composed document.
func (h *Handlers) HandleCompose(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("ids")
	data := ComposePageData{
		PageData: PageData{
			Title:   "Compose",
			Version: h.renderer.version,
			Nav:     "tweaks",
		},
		IDs:           idsParam,
		HideSensitive: parseBoolParam(r, "hide_sensitive"),
		Normalize:     parseBoolParam(r, "normalize"),
	}

	ids := splitIDs(idsParam)
	if len(ids) == 0 {
		h.renderer.renderPage(w, r, "compose", data)
		return
	}

	result, err := ops.Compose(r.Context(), h.db, h.cfg, ops.ComposeInput{
		TweakIDs:      ids,
		HideSensitive: data.HideSensitive,
		Normalize:     data.Normalize,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data.Document = result.Document
	data.Chars = result.Chars
	data.Parts = result.Parts
	data.HasSelection = true
	h.renderer.renderPage(w, r, "compose", data)
}

// HandleDownload handles POST /tweaks/download — serve the composed document
// as a browser download. This is the one boundary that bumps download counters
// and records a history entry; the compose preview never does.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	ids := splitIDs(r.FormValue("ids"))
	encoding := r.FormValue("encoding")
	hideSensitive := r.FormValue("hide_sensitive") == "true" || r.FormValue("hide_sensitive") == "1"
	normalize := r.FormValue("normalize") == "true" || r.FormValue("normalize") == "1"

	composed, err := ops.Compose(r.Context(), h.db, h.cfg, ops.ComposeInput{
		TweakIDs:      ids,
		HideSensitive: hideSensitive,
		Normalize:     normalize,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	payload, mimeType, err := tweak.EncodeDocument(composed.Document, tweak.Encoding(encoding))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}

	name := r.FormValue("name")
	filename := fmt.Sprintf("%s-%s.ps1",
		downloadBasename(name), time.Now().UTC().Format("2006-01-02T150405"))

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)

	// Side effects after the payload is served: counter or history failures
	// must not break the download that already happened, but they must not
	// vanish either.
	if _, err := ops.IncrementDownloads(r.Context(), h.db, ids); err != nil {
		log.Printf("download: counter increment failed: %v", err)
	}
	userID := r.FormValue("user_id")
	if userID == "" {
		userID = ops.DefaultUserID
	}
	if _, err := ops.SaveHistory(r.Context(), h.db, ops.SaveHistoryInput{
		UserID:   userID,
		TweakIDs: ids,
		Name:     ptrString(name),
	}); err != nil {
		log.Printf("download: history save failed: %v", err)
	}
}

// HandleHistory handles GET /history — a user's saved selections.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = ops.DefaultUserID
	}

	result, err := ops.HistoryForUser(r.Context(), h.db, ops.HistoryForUserInput{
		UserID: userID,
		Limit:  parseIntParam(r, "limit", 20),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData: PageData{
			Title:   "History",
			Version: h.renderer.version,
			Nav:     "history",
		},
		UserID:     userID,
		Items:      result.Items,
		Corrupt:    result.Corrupt,
		Pagination: result.Pagination,
	})
}

// HandleStats handles GET /stats — download totals and top tweaks.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Stats(r.Context(), h.db, ops.StatsInput{
		Limit: parseIntParam(r, "limit", 10),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "stats", StatsPageData{
		PageData: PageData{
			Title:   "Stats",
			Version: h.renderer.version,
			Nav:     "stats",
		},
		Stats: result,
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// splitIDs parses a comma-separated id list, dropping empty segments.
func splitIDs(s string) []string {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// downloadBasename returns a filename-safe base for the download, defaulting
// to "tweaks".
func downloadBasename(name string) string {
	if strings.TrimSpace(name) == "" {
		return "tweaks"
	}
	return ops.SanitizeForFilename(name)
}
