package querysql

import (
	"errors"
	"fmt"
)

// CompileErrorCode categorizes compilation failures.
type CompileErrorCode string

const (
	// ErrCodeUnsupportedPredicate indicates a predicate with no SQL lowering.
	ErrCodeUnsupportedPredicate CompileErrorCode = "UNSUPPORTED_PREDICATE"

	// ErrCodeTypeMismatch indicates operands that do not fit the attribute
	// type, where SQLite affinity rules would change the comparison.
	ErrCodeTypeMismatch CompileErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnknownAttribute indicates an attribute missing from the catalog.
	ErrCodeUnknownAttribute CompileErrorCode = "UNKNOWN_ATTRIBUTE"

	// ErrCodeTooComplex indicates the DNF expansion exceeded its limit.
	ErrCodeTooComplex CompileErrorCode = "TOO_COMPLEX"
)

// CompileError reports why an expression could not be compiled.
type CompileError struct {
	Code      CompileErrorCode
	Message   string
	Attr      string
	Predicate string // structural key of the offending predicate
}

func (e *CompileError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("%s: %s (attr=%s)", e.Code, e.Message, e.Attr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupported reports whether err asks the caller to fall back to an
// in-memory scan. Unknown attributes are not in this class: a scan would
// fail the same way.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		switch ce.Code {
		case ErrCodeUnsupportedPredicate, ErrCodeTypeMismatch, ErrCodeTooComplex:
			return true
		}
	}
	return false
}
