package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var listToolDef = mcp.NewTool("tweak_list",
	mcp.WithDescription("Browse the tweak catalog grouped by category. Returns summaries without script bodies."),
	mcp.WithString("category_id",
		mcp.Description("Only list tweaks in this category"),
	),
	mcp.WithBoolean("include_hidden",
		mcp.Description("Include tweaks hidden from the catalog (default false)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max results per page (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Pagination offset (default 0)"),
	),
)

var fetchToolDef = mcp.NewTool("tweak_fetch",
	mcp.WithDescription("Fetch one tweak by id, including its script body."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Tweak id"),
	),
	mcp.WithBoolean("include_code",
		mcp.Description("Include the script body (default true)"),
	),
)

var composeToolDef = mcp.NewTool("tweak_compose",
	mcp.WithDescription("Compose selected tweaks into a single script document with per-tweak metadata headers. Does not touch counters or history."),
	mcp.WithArray("tweak_ids",
		mcp.Required(),
		mcp.Description("Ordered tweak ids to compose (1-50)"),
		mcp.WithStringItems(),
	),
	mcp.WithBoolean("hide_sensitive",
		mcp.Description("Mask secrets (api keys, passwords, tokens) in the output"),
	),
	mcp.WithBoolean("normalize",
		mcp.Description("Normalize line endings and blank runs in each fragment"),
	),
)

var exportToolDef = mcp.NewTool("tweak_export",
	mcp.WithDescription("Compose selected tweaks and write the document to a file, bumping download counters and recording a history entry."),
	mcp.WithArray("tweak_ids",
		mcp.Required(),
		mcp.Description("Ordered tweak ids to export (1-50)"),
		mcp.WithStringItems(),
	),
	mcp.WithString("path",
		mcp.Description("Destination path (default: ~/.tweakstash/exports/tweaks-<timestamp>.ps1)"),
	),
	mcp.WithString("encoding",
		mcp.Description("Output encoding: utf8 (default) or utf16"),
		mcp.Enum("utf8", "utf16"),
	),
	mcp.WithBoolean("hide_sensitive",
		mcp.Description("Mask secrets in the output"),
	),
	mcp.WithBoolean("normalize",
		mcp.Description("Normalize line endings and blank runs in each fragment"),
	),
	mcp.WithString("user_id",
		mcp.Description("User to record the history entry under (default \"local\")"),
	),
	mcp.WithString("name",
		mcp.Description("Label for the history entry and default filename"),
	),
	mcp.WithBoolean("skip_history",
		mcp.Description("Do not record a history entry"),
	),
	mcp.WithBoolean("skip_counters",
		mcp.Description("Do not bump download counters"),
	),
)

var importToolDef = mcp.NewTool("tweak_import",
	mcp.WithDescription("Load a YAML catalog seed file into the database."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the .yaml seed file"),
	),
	mcp.WithString("mode",
		mcp.Description("Conflict mode: error (default) or replace"),
		mcp.Enum("error", "replace"),
	),
)

var statsToolDef = mcp.NewTool("tweak_stats",
	mcp.WithDescription("Report download totals and the most-downloaded tweaks."),
	mcp.WithNumber("limit",
		mcp.Description("Max entries in the top-downloads list (default 10)"),
	),
)

var historySaveToolDef = mcp.NewTool("history_save",
	mcp.WithDescription("Save a named tweak selection to a user's history without exporting."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("User the entry belongs to"),
	),
	mcp.WithArray("tweak_ids",
		mcp.Required(),
		mcp.Description("Ordered tweak ids in the selection (1-50)"),
		mcp.WithStringItems(),
	),
	mcp.WithString("name",
		mcp.Description("Optional label for the entry"),
	),
	mcp.WithBoolean("is_favorite",
		mcp.Description("Mark the entry as a favorite"),
	),
)

var historyListToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List a user's saved selections, newest first. Corrupt entries are reported separately and never abort the listing."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("User whose history to list"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max results per page (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Pagination offset (default 0)"),
	),
)
