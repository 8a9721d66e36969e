package fs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// copyTree walks src and mirrors it under dst. Symlinks are recreated as
// links rather than followed. The caller owns cleanup of dst on error.
func copyTree(ctx context.Context, f FS, src, dst string) (int64, error) {
	root, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !root.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", src)
	}
	if err := os.Mkdir(dst, root.Mode().Perm()|0o700); err != nil {
		return 0, err
	}

	var written int64
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)

		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.Mkdir(target, info.Mode().Perm()|0o700)

		case d.Type().IsRegular():
			if err := f.CopyFile(ctx, path, target); err != nil {
				return fmt.Errorf("copying %s: %w", rel, err)
			}
			info, err := d.Info()
			if err == nil {
				written += info.Size()
			}
			return nil

		default:
			// sockets, devices and pipes have no meaningful copy
			return nil
		}
	})
	return written, err
}
