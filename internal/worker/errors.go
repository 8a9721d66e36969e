package worker

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a snapshot could not be taken.
type ErrorKind string

const (
	SourceNotFound ErrorKind = "source_not_found"
	CopyFailed     ErrorKind = "copy_failed"
)

var (
	// ErrSourceNotFound matches any BackupError of kind SourceNotFound.
	ErrSourceNotFound = errors.New("source folder not found")
	// ErrCopyFailed matches any BackupError of kind CopyFailed.
	ErrCopyFailed = errors.New("copy failed")
)

// BackupError is returned by Execute. The destination root never holds a
// partial snapshot when one is returned.
type BackupError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	switch e.Kind {
	case SourceNotFound:
		if e.Err != nil {
			return fmt.Sprintf("source folder %q not found: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("source folder %q not found", e.Path)
	default:
		return fmt.Sprintf("copy to %q failed: %v", e.Path, e.Err)
	}
}

func (e *BackupError) Unwrap() error { return e.Err }

// Is lets callers use errors.Is(err, ErrSourceNotFound) and friends.
func (e *BackupError) Is(target error) bool {
	switch target {
	case ErrSourceNotFound:
		return e.Kind == SourceNotFound
	case ErrCopyFailed:
		return e.Kind == CopyFailed
	}
	return false
}
