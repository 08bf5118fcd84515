package naming

import (
	"errors"
	"net/http"
)

// InvalidPathError reports a placeholder identifier handed over instead of a
// real filesystem path.
type InvalidPathError struct{ Path string }

func (e *InvalidPathError) Error() string {
	return "invalid file path " + `"` + e.Path + `"` +
		": this looks like a temporary browser identifier, not a file on disk. " +
		"Select the image with the file picker or pass its full path"
}
func (e *InvalidPathError) StatusCode() int { return http.StatusBadRequest }

// EmptyNameError reports a model reply that sanitized down to nothing.
type EmptyNameError struct{ Raw string }

func (e *EmptyNameError) Error() string {
	return "model returned no usable file name"
}
func (e *EmptyNameError) StatusCode() int { return http.StatusUnprocessableEntity }

// IsInvalidPath reports whether err is or wraps an *InvalidPathError.
func IsInvalidPath(err error) bool {
	var ip *InvalidPathError
	return errors.As(err, &ip)
}

// IsEmptyName reports whether err is or wraps an *EmptyNameError.
func IsEmptyName(err error) bool {
	var en *EmptyNameError
	return errors.As(err, &en)
}
