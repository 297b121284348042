package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// ListRequest represents the arguments for tweak_list.
type ListRequest struct {
	CategoryID    *string `json:"category_id,omitempty"`
	IncludeHidden bool    `json:"include_hidden,omitempty"`
	Limit         int     `json:"limit,omitempty"`
	Offset        int     `json:"offset,omitempty"`
}

// FetchRequest represents the arguments for tweak_fetch.
type FetchRequest struct {
	ID          string `json:"id"`
	IncludeCode *bool  `json:"include_code,omitempty"`
}

// ComposeRequest represents the arguments for tweak_compose.
type ComposeRequest struct {
	TweakIDs      []string `json:"tweak_ids"`
	HideSensitive bool     `json:"hide_sensitive,omitempty"`
	Normalize     bool     `json:"normalize,omitempty"`
}

// ExportRequest represents the arguments for tweak_export.
type ExportRequest struct {
	TweakIDs      []string `json:"tweak_ids"`
	Path          string   `json:"path,omitempty"`
	Encoding      string   `json:"encoding,omitempty"`
	HideSensitive bool     `json:"hide_sensitive,omitempty"`
	Normalize     bool     `json:"normalize,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	Name          *string  `json:"name,omitempty"`
	SkipHistory   bool     `json:"skip_history,omitempty"`
	SkipCounters  bool     `json:"skip_counters,omitempty"`
}

// ImportRequest represents the arguments for tweak_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// StatsRequest represents the arguments for tweak_stats.
type StatsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HistorySaveRequest represents the arguments for history_save.
type HistorySaveRequest struct {
	UserID     string   `json:"user_id"`
	TweakIDs   []string `json:"tweak_ids"`
	Name       *string  `json:"name,omitempty"`
	IsFavorite bool     `json:"is_favorite,omitempty"`
}

// HistoryListRequest represents the arguments for history_list.
type HistoryListRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Handler implementations

// HandleList handles the tweak_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		CategoryID:    input.CategoryID,
		IncludeHidden: input.IncludeHidden,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the tweak_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:          input.ID,
		IncludeCode: input.IncludeCode,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCompose handles the tweak_compose tool call.
func (h *Handlers) HandleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[ComposeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Compose(ctx, h.db, h.cfg, ops.ComposeInput{
		TweakIDs:      input.TweakIDs,
		HideSensitive: input.HideSensitive,
		Normalize:     input.Normalize,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the tweak_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		TweakIDs:      input.TweakIDs,
		Path:          input.Path,
		Encoding:      input.Encoding,
		HideSensitive: input.HideSensitive,
		Normalize:     input.Normalize,
		UserID:        input.UserID,
		HistoryName:   input.Name,
		SkipHistory:   input.SkipHistory,
		SkipCounters:  input.SkipCounters,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the tweak_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: input.Mode,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStats handles the tweak_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[StatsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Stats(ctx, h.db, ops.StatsInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistorySave handles the history_save tool call.
func (h *Handlers) HandleHistorySave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[HistorySaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SaveHistory(ctx, h.db, ops.SaveHistoryInput{
		UserID:     input.UserID,
		TweakIDs:   input.TweakIDs,
		Name:       input.Name,
		IsFavorite: input.IsFavorite,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistoryList handles the history_list tool call.
func (h *Handlers) HandleHistoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[HistoryListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.HistoryForUser(ctx, h.db, ops.HistoryForUserInput{
		UserID: input.UserID,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if stashErr, ok := err.(*errors.StashError); ok {
		errorObj := map[string]any{
			"code":    stashErr.Code,
			"message": stashErr.Message,
			"status":  stashErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if stashErr.Code != errors.ErrInternal && stashErr.Details != nil {
			errorObj["details"] = stashErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
