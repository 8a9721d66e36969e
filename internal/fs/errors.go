package fs

import (
	"errors"
	"syscall"
)

// isTransient decides whether an operation is worth retrying. A file that
// changed under us is retried too: the next attempt copies the new content.
func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, ErrSourceChanged) {
		return true
	}
	return false
}
