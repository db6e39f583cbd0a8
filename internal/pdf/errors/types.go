package errors

import (
	"fmt"
)

// ExtractionError describes a failure while turning a PDF document into field descriptors
type ExtractionError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of extraction failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeMalformedAnnotation
	ErrorTypeInvalidPageGeometry
	ErrorTypeDocumentTooLarge
	ErrorTypeCorruptedData
)

// Sentinels for errors.Is comparisons. Matching is by Type only.
var (
	ErrMalformedAnnotation = &ExtractionError{Type: ErrorTypeMalformedAnnotation, Message: "malformed annotation"}
	ErrInvalidPageGeometry = &ExtractionError{Type: ErrorTypeInvalidPageGeometry, Message: "invalid page geometry"}
	ErrDocumentTooLarge    = &ExtractionError{Type: ErrorTypeDocumentTooLarge, Message: "document too large"}
	ErrCorruptedData       = &ExtractionError{Type: ErrorTypeCorruptedData, Message: "corrupted data"}
)

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.PageNumber > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.PageNumber)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an ExtractionError of the same type
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeMalformedAnnotation:
		return "MALFORMED_ANNOTATION"
	case ErrorTypeInvalidPageGeometry:
		return "INVALID_PAGE_GEOMETRY"
	case ErrorTypeDocumentTooLarge:
		return "DOCUMENT_TOO_LARGE"
	case ErrorTypeCorruptedData:
		return "CORRUPTED_DATA"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether extraction of the rest of the document can continue
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeMalformedAnnotation, ErrorTypeInvalidPageGeometry:
		return true // local to one annotation or page
	default:
		return false
	}
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(errorType ErrorType, message string) *ExtractionError {
	return &ExtractionError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
	}
}

// NewPageError creates a new ExtractionError bound to a page
func NewPageError(errorType ErrorType, pageNumber int, message string) *ExtractionError {
	e := NewExtractionError(errorType, message)
	e.PageNumber = pageNumber
	return e
}

// WrapError wraps an existing error as an ExtractionError
func WrapError(err error, errorType ErrorType, message string) *ExtractionError {
	if err == nil {
		return nil
	}
	e := NewExtractionError(errorType, message)
	e.Err = err
	return e
}

// WithContext returns a copy of the error carrying additional context
func (e *ExtractionError) WithContext(context string) *ExtractionError {
	c := *e
	c.Context = context
	return &c
}

// IsRecoverableError reports whether err is a recoverable ExtractionError
func IsRecoverableError(err error) bool {
	for err != nil {
		if e, ok := err.(*ExtractionError); ok {
			return e.Recoverable
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
