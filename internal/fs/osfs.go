package fs

import (
	"context"
	"os"
	"path/filepath"
)

// OSFS is the concrete FS backed by the local OS filesystem.
// Platform-specific details (such as inode extraction) live in build-tagged files.
type OSFS struct{}

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fromOS(path, st), nil
}

func (o *OSFS) ReadDir(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// removed between listing and stat
			continue
		}
		out = append(out, fromOS(filepath.Join(path, e.Name()), info))
	}
	return out, nil
}

func (o *OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (o *OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (o *OSFS) CopyFile(ctx context.Context, src, dst string) error {
	return copyWithRetry(ctx, o, src, dst)
}

func (o *OSFS) CopyTree(ctx context.Context, src, dst string) (int64, error) {
	return copyTree(ctx, o, src, dst)
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, oldPath, newPath)
}

func fromOS(path string, st os.FileInfo) FileInfo {
	return FileInfo{
		Path:  path,
		Name:  st.Name(),
		Size:  st.Size(),
		Mode:  st.Mode(),
		MTime: st.ModTime(),
		Inode: inodeOf(st),
	}
}
