package fs

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrSourceChanged is returned when a file is modified while it is being copied.
var ErrSourceChanged = errors.New("source changed during copy")

// copyWithRetry copies one file, retrying transient errors. It refuses to
// finish a copy whose source was replaced or rewritten mid-way.
func copyWithRetry(ctx context.Context, f FS, src, dst string) error {
	return retry(ctx, "copy", func() error {
		before, err := f.Stat(src)
		if err != nil {
			return err
		}

		if err := copyOnce(src, dst, before.Mode.Perm()); err != nil {
			return err
		}

		after, err := f.Stat(src)
		if err != nil {
			return err
		}
		if sourceChanged(before, after) {
			return ErrSourceChanged
		}
		return nil
	})
}

func sourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	if now.Size != orig.Size {
		return true
	}
	return false
}

func copyOnce(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}
