//go:build !windows

package artifact

import (
	"io"
	"os"

	"github.com/google/renameio/v2"
)

// writeAtomic streams r to dst through a temp file renamed into place, so an
// interrupted job never leaves a truncated file behind.
func writeAtomic(dst string, r io.Reader, perm os.FileMode) error {
	t, err := renameio.TempFile("", dst)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	if _, err := io.Copy(t, r); err != nil {
		return err
	}
	if err := t.Chmod(perm); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}
