package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	TweakIDs      []string
	Path          string  // optional, default: ~/.tweakstash/exports/tweaks-<timestamp>.ps1
	Encoding      string  // "utf8" (default) or "utf16"
	HideSensitive bool    // apply redaction before writing
	Normalize     bool    // normalize each script fragment
	UserID        string  // optional, default "local"
	HistoryName   *string // optional label for the saved history entry
	SkipHistory   bool    // do not record a history entry
	SkipCounters  bool    // do not bump download counters
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string            `json:"path"`
	Bytes      int               `json:"bytes"`
	MIME       string            `json:"mime"`
	Encoding   string            `json:"encoding"`
	Parts      int               `json:"parts"`
	ExportedAt int64             `json:"exported_at"`
	Increments []IncrementResult `json:"increments,omitempty"`
	Failed     int               `json:"failed,omitempty"`
	// CounterError and HistoryError report side-effect failures after the
	// document was already written. Empty means the side effect succeeded
	// (or was skipped).
	CounterError string `json:"counter_error,omitempty"`
	HistoryID    string `json:"history_id,omitempty"`
	HistoryError string `json:"history_error,omitempty"`
}

// Export composes the selected tweaks into a single document, writes it to disk,
// then bumps download counters and records a history entry. Counter and history
// failures after a successful write do not fail the export; they are reported in
// the output instead.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	composed, err := Compose(ctx, database, cfg, ComposeInput{
		TweakIDs:      input.TweakIDs,
		HideSensitive: input.HideSensitive,
		Normalize:     input.Normalize,
	})
	if err != nil {
		return nil, err
	}

	payload, mimeType, err := tweak.EncodeDocument(composed.Document, tweak.Encoding(input.Encoding))
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	// Determine export path
	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(input.HistoryName, now)
		if err != nil {
			return nil, err
		}
	}

	// Validate ALL paths (both user-provided and default) for security.
	// This catches filename injection via malicious history names.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	// Ensure parent directory exists
	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to temp file first, then atomic rename to preserve existing file on failure
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := createExportFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(payload); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Ensure file is written
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// Check if destination is a symlink (os.Rename would follow it)
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// Finalize export by renaming temp file into place.
	//
	// Note: On Windows, os.Rename fails if the destination exists. We intentionally
	// fail safely (preserving the existing file) instead of doing a non-atomic
	// delete+rename that could lose the original if rename fails.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	success = true

	out := &ExportOutput{
		Path:       exportPath,
		Bytes:      len(payload),
		MIME:       mimeType,
		Encoding:   string(normalizeEncoding(input.Encoding)),
		Parts:      composed.Parts,
		ExportedAt: now.Unix(),
	}

	// The document is already on disk; counter and history side effects report
	// into the output rather than failing the export.
	if !input.SkipCounters {
		inc, err := IncrementDownloads(ctx, database, input.TweakIDs)
		if err != nil {
			out.CounterError = err.Error()
		} else {
			out.Increments = inc.Results
			out.Failed = inc.Failed
		}
	}

	if !input.SkipHistory {
		userID := input.UserID
		if userID == "" {
			userID = DefaultUserID
		}
		saved, err := SaveHistory(ctx, database, SaveHistoryInput{
			UserID:   userID,
			TweakIDs: input.TweakIDs,
			Name:     input.HistoryName,
		})
		if err != nil {
			out.HistoryError = err.Error()
		} else {
			out.HistoryID = saved.ID
		}
	}

	return out, nil
}

func normalizeEncoding(enc string) tweak.Encoding {
	if enc == "" {
		return tweak.EncodingUTF8
	}
	return tweak.Encoding(enc)
}

// defaultExportPath generates the default export path.
// Format: ~/.tweakstash/exports/<name>-<timestamp>.ps1 or tweaks-<timestamp>.ps1
func defaultExportPath(name *string, now time.Time) (string, error) {
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}

	timestamp := now.Format("2006-01-02T150405")
	base := "tweaks"
	if name != nil && *name != "" {
		// Sanitize to prevent path traversal/injection via malicious names
		base = SanitizeForFilename(*name)
	}

	filename := fmt.Sprintf("%s-%s.ps1", base, timestamp)
	return filepath.Join(exportsDir, filename), nil
}
