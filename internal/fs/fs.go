// Package fs defines the filesystem abstraction used by snapkeep.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"io/fs"
	"time"
)

type FileInfo struct {
	Path  string
	Name  string
	Size  int64
	Mode  fs.FileMode
	MTime time.Time
	Inode uint64
}

// IsDir reports whether the entry is a directory.
func (f FileInfo) IsDir() bool { return f.Mode.IsDir() }

type FS interface {
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]FileInfo, error)
	CopyFile(ctx context.Context, src, dst string) error
	// CopyTree copies the directory src to dst, which must not exist yet,
	// and returns the number of file bytes written.
	CopyTree(ctx context.Context, src, dst string) (int64, error)
	Rename(ctx context.Context, oldPath, newPath string) error
	MkdirAll(path string) error
	RemoveAll(path string) error
}
