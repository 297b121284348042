package ops

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/errors"
)

// watchDebounce is how long to wait after the last write event before
// re-importing. Editors often emit several events per save.
const watchDebounce = 500 * time.Millisecond

// WatchInput contains parameters for the Watch operation.
type WatchInput struct {
	Path string // seed file to watch
	Mode string // import mode applied on each reload, default "replace"
}

// Watch re-imports a seed file whenever it changes on disk. It blocks until
// ctx is cancelled. Each reload runs as a full Import, so a broken edit rolls
// back and the previous catalog stays live.
func Watch(ctx context.Context, database *sql.DB, cfg *config.Config, input WatchInput) error {
	mode := input.Mode
	if mode == "" {
		mode = ImportModeReplace
	}

	// Validate up front so a bad path fails before the first event.
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create watcher: %w", err))
	}
	defer watcher.Close()

	// Watch the parent directory, not the file: editors that save via
	// rename (vim, VS Code) replace the inode, which would orphan a
	// file-level watch.
	target := filepath.Clean(input.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to watch directory: %w", err))
	}

	// Initial load so the catalog reflects the file at startup.
	if out, err := Import(ctx, database, cfg, ImportInput{Path: target, Mode: mode}); err != nil {
		log.Printf("watch: initial import failed: %v", err)
	} else {
		log.Printf("watch: loaded %d tweaks across %d categories from %s",
			out.Imported+out.Replaced, out.Categories, target)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: restart the timer on every event in the burst.
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			out, err := Import(ctx, database, cfg, ImportInput{Path: target, Mode: mode})
			if err != nil {
				log.Printf("watch: reload failed, keeping previous catalog: %v", err)
				continue
			}
			log.Printf("watch: reloaded %d tweaks across %d categories",
				out.Imported+out.Replaced, out.Categories)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: watcher error: %v", werr)
		}
	}
}
