package fs

import (
	"context"
	"os"
)

// renameWithRetry publishes a finished snapshot directory. Antivirus and
// indexers on Windows commonly hold a handle for a moment, hence the retry.
func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
