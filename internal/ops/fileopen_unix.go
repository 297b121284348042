//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/mkvoss/tweakstash/internal/errors"
)

// createExportFile opens the export target for writing with O_NOFOLLOW so a
// symlink planted at the final path component cannot redirect the script
// document elsewhere. O_CLOEXEC keeps the descriptor from leaking across exec.
//
// O_NOFOLLOW only covers the last component; directory components are handled
// by ValidatePath, which requires the file to sit directly in an allowed
// directory.
func createExportFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write to symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openSeedFile opens a seed file for reading with the same O_NOFOLLOW guard,
// so imports cannot be pointed at arbitrary files through a symlink.
func openSeedFile(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot read from symlink")
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
