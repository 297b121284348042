package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/db"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// Import conflict modes.
const (
	ImportModeError   = "error"   // fail on the first duplicate id
	ImportModeReplace = "replace" // replace duplicates, preserving counters
)

// maxSeedFileSize limits seed files to 10MB to prevent memory exhaustion.
const maxSeedFileSize = 10 * 1024 * 1024

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string
	Mode string // "error" (default) or "replace"
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Categories int      `json:"categories"`
	Imported   int      `json:"imported"`
	Replaced   int      `json:"replaced"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// seedFile is the on-disk YAML shape for catalog seeds.
type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
}

type seedCategory struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Icon     *string     `yaml:"icon"`
	Position int         `yaml:"position"`
	Tweaks   []seedTweak `yaml:"tweaks"`
}

type seedTweak struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	Description *string `yaml:"description"`
	Code        *string `yaml:"code"`
	Comment     *string `yaml:"comment"`
	Hidden      bool    `yaml:"hidden"`
}

// Import loads a YAML catalog seed into the database. Script bodies are
// normalized at ingest so composition never re-normalizes stored code.
// All rows are written in one transaction; a duplicate in "error" mode
// rolls the whole import back.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	mode := input.Mode
	if mode == "" {
		mode = ImportModeError
	}
	if mode != ImportModeError && mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("mode must be %q or %q", ImportModeError, ImportModeReplace))
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openSeedFile(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open seed file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSeedFileSize+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read seed file: %w", err))
	}
	if len(data) > maxSeedFileSize {
		return nil, errors.NewInvalidRequest("seed file exceeds 10MB limit")
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid YAML: %v", err))
	}
	if len(seed.Categories) == 0 {
		return nil, errors.NewInvalidRequest("seed file has no categories")
	}

	now := time.Now().Unix()
	out := &ImportOutput{}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewPersistence(err)
	}
	defer tx.Rollback()

	for ci, sc := range seed.Categories {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("import")
		default:
		}

		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("category %d has no name", ci))
		}
		catID := strings.TrimSpace(sc.ID)
		if catID == "" {
			catID = SanitizeForFilename(strings.ToLower(name))
		}
		position := sc.Position
		if position == 0 {
			position = ci + 1
		}

		cat := &tweak.Category{
			ID:       catID,
			Name:     name,
			Icon:     cleanOptionalString(sc.Icon),
			Position: position,
		}
		if err := db.UpsertCategory(ctx, tx, cat); err != nil {
			return nil, err
		}
		out.Categories++

		for ti, st := range sc.Tweaks {
			title := strings.TrimSpace(st.Title)
			if title == "" {
				return nil, errors.NewInvalidRequest(
					fmt.Sprintf("tweak %d in category %q has no title", ti, name))
			}

			id := strings.TrimSpace(st.ID)
			if id == "" {
				id, err = generateULID()
				if err != nil {
					return nil, err
				}
			}

			var code *string
			if st.Code != nil {
				normalized := tweak.NormalizeScript(*st.Code)
				code = &normalized
			}

			t := &tweak.Tweak{
				ID:          id,
				CategoryID:  catID,
				Title:       title,
				Description: cleanOptionalString(st.Description),
				Code:        code,
				Comment:     cleanOptionalString(st.Comment),
				IsVisible:   !st.Hidden,
				CreatedAt:   now,
				UpdatedAt:   now,
			}

			switch mode {
			case ImportModeReplace:
				existing, err := db.GetTweakByID(ctx, tx, id)
				if err != nil && !errors.Is(err, errors.ErrNotFound) {
					return nil, err
				}
				if err := db.UpsertTweak(ctx, tx, t); err != nil {
					return nil, err
				}
				if existing != nil {
					out.Replaced++
				} else {
					out.Imported++
				}
			default:
				if err := db.InsertTweak(ctx, tx, t); err != nil {
					if errors.Is(err, errors.ErrConflict) {
						return nil, errors.NewConflict(
							fmt.Sprintf("tweak %q already exists (use --mode replace to overwrite)", id))
					}
					return nil, err
				}
				out.Imported++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewPersistence(err)
	}

	return out, nil
}
