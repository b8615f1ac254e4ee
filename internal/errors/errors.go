// Package errors provides a lightweight structured error type for
// category-based classification across the render batch and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a plutogen error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryStorage ErrorCategory = "storage"
	CategoryWebring ErrorCategory = "webring"
	CategoryDeploy  ErrorCategory = "deploy"

	// Render and output errors
	CategoryRender     ErrorCategory = "render"
	CategoryFeed       ErrorCategory = "feed"
	CategoryFilesystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryEditor   ErrorCategory = "editor"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the batch
	SeverityError   ErrorSeverity = "error"   // Fails one page, batch continues
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
)

// SiteError is a structured error with category, severity, and context
type SiteError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SiteError
type ContextFields map[string]any

// Error implements the error interface
func (e *SiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SiteError) WithContext(key string, value any) *SiteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new SiteError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SiteError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with default error severity
func WrapError(err error, category ErrorCategory, message string) *SiteError {
	return Wrap(err, category, SeverityError, message)
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := err.(*SiteError); ok {
		return se.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SiteError
func GetCategory(err error) ErrorCategory {
	if se, ok := err.(*SiteError); ok {
		return se.Category
	}
	return CategoryInternal
}

// IsFatal reports whether an error should abort the whole batch
func IsFatal(err error) bool {
	if se, ok := err.(*SiteError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}
