package rename

import (
	"errors"
	"fmt"
	"net/http"
	"os"
)

// InvalidNameError reports a new name that cannot be used as a base name.
type InvalidNameError struct {
	Path string
	Name string
}

func (e *InvalidNameError) Error() string {
	if e.Name == "" {
		return "empty new name for " + e.Path
	}
	return fmt.Sprintf("invalid new name %q for %s: must not contain a path separator", e.Name, e.Path)
}
func (e *InvalidNameError) StatusCode() int { return http.StatusBadRequest }

// RenameFailedError reports a failed rename. Applied counts the renames of
// the batch that completed before the failure; they are not undone.
type RenameFailedError struct {
	Path    string
	Dest    string
	Applied int
	Err     error
}

func (e *RenameFailedError) Error() string {
	return fmt.Sprintf("rename %s -> %s: %v (%d applied before failure)", e.Path, e.Dest, e.Err, e.Applied)
}
func (e *RenameFailedError) Unwrap() error { return e.Err }
func (e *RenameFailedError) StatusCode() int {
	if errors.Is(e.Err, os.ErrExist) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsInvalidName reports whether err is or wraps an *InvalidNameError.
func IsInvalidName(err error) bool {
	var in *InvalidNameError
	return errors.As(err, &in)
}

// IsRenameFailed reports whether err is or wraps a *RenameFailedError.
func IsRenameFailed(err error) bool {
	var rf *RenameFailedError
	return errors.As(err, &rf)
}
