package compress

import (
	"errors"
	"fmt"
)

var errEmptyImage = errors.New("image has zero width or height")

// DecodeError reports that the input is not a supported or intact image.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode image: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a JPEG encoder failure.
type EncodeError struct {
	Quality int
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode jpeg (quality %d): %v", e.Quality, e.Err)
}
func (e *EncodeError) Unwrap() error { return e.Err }

// BudgetUnmetError reports that no quality or scale produced an encoding
// within Budget bytes. Smallest is the smallest size reached, or -1.
type BudgetUnmetError struct {
	Budget   int
	Smallest int
}

func (e *BudgetUnmetError) Error() string {
	return fmt.Sprintf("cannot compress image to %d bytes (smallest attempt: %d bytes)", e.Budget, e.Smallest)
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsBudgetUnmet reports whether err is or wraps a *BudgetUnmetError.
func IsBudgetUnmet(err error) bool {
	var be *BudgetUnmetError
	return errors.As(err, &be)
}
