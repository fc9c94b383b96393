package extract

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrInvalidPDF is returned when the file cannot be opened as a PDF
	// document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrEmptyPage is returned when the invoice page yields no text. The
	// batch still emits a record for the file; this error becomes its
	// error reason.
	ErrEmptyPage = errors.New("invoice page contains no extractable text")
)

// Error reasons recorded on partially extracted records. These are values,
// not errors: a missing field is a normal outcome of layout drift.
const (
	ReasonIdentifierNotFound = "account identifier not found"
)

// ExtractionError wraps errors with context about which file and operation
// failed.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "PageText", "Extract").
	Op string

	// Err is the underlying error.
	Err error

	// SourceFile is the PDF the failure relates to.
	SourceFile string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.SourceFile != "" {
		return fmt.Sprintf("extract: %s failed for %s: %v", e.Op, e.SourceFile, e.Err)
	}
	return fmt.Sprintf("extract: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
