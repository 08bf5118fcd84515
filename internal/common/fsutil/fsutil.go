package fsutil

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/Pictures/inbox
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists. Errors other than "not exist"
// (e.g. permission denied) count as existing so the caller surfaces the real
// error on open.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// NotFoundError reports a missing file.
type NotFoundError struct{ Path string }

func (e *NotFoundError) Error() string   { return "file not found: " + e.Path }
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }
func (e *NotFoundError) Is(target error) bool {
	return target == os.ErrNotExist
}

// ReadError reports a file that exists but could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string   { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *ReadError) Unwrap() error   { return e.Err }
func (e *ReadError) StatusCode() int { return http.StatusInternalServerError }

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ReadFile checks that path exists and reads it, returning *NotFoundError or
// *ReadError on failure.
func ReadFile(path string) ([]byte, error) {
	if !PathExists(path) {
		return nil, &NotFoundError{Path: path}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return b, nil
}
