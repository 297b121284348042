//go:build windows

package ops

import (
	"os"

	"github.com/mkvoss/tweakstash/internal/errors"
)

// createExportFile opens the export target for writing. Windows has no
// O_NOFOLLOW; symlink creation there needs elevated privileges, and
// ValidatePath already rejects symlinked targets before we get here.
func createExportFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

// openSeedFile opens a seed file for reading. See createExportFile for why
// there is no O_NOFOLLOW equivalent on this platform.
func openSeedFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return f, nil
}
