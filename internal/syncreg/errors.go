package syncreg

import (
	"errors"
	"fmt"
)

// LoadErrorCode categorizes registry load failures.
type LoadErrorCode string

const (
	// ErrCodeCorruptState indicates persisted rows that cannot be decoded.
	ErrCodeCorruptState LoadErrorCode = "CORRUPT_STATE"

	// ErrCodeReadFailed indicates the rows could not be read at all.
	ErrCodeReadFailed LoadErrorCode = "READ_FAILED"
)

// LoadError reports a failed registry load. The registry returned with it
// is always empty.
type LoadError struct {
	Code      LoadErrorCode
	Message   string
	CubeIndex int64 // -1 when not tied to a cube
	Err       error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.CubeIndex >= 0 {
		msg = fmt.Sprintf("%s (cube=%d)", msg, e.CubeIndex)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is a corrupt-state load error.
// Uses errors.As to handle wrapped errors.
func IsCorrupt(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == ErrCodeCorruptState
	}
	return false
}

func corrupt(index int64, format string, args ...any) *LoadError {
	return &LoadError{Code: ErrCodeCorruptState, Message: fmt.Sprintf(format, args...), CubeIndex: index}
}
