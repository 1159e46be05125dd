package domain

import "errors"

// ErrorKind is a stable machine-readable failure category reported to callers.
type ErrorKind string

const (
	ErrorKindClassification ErrorKind = "classification_error"
	ErrorKindConversion     ErrorKind = "conversion_error"
	ErrorKindFontResolution ErrorKind = "font_resolution_error"
	ErrorKindRender         ErrorKind = "render_error"
)

// ClassificationError reports unrecognizable or truncated input.
type ClassificationError struct {
	Cause string
	Err   error
}

// Error formats the failure for logs and API responses.
func (e *ClassificationError) Error() string {
	return "classification failed: " + e.Cause
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ClassificationError) Unwrap() error { return e.Err }

// ConversionError reports an external transcoding failure or timeout.
type ConversionError struct {
	Cause string
	Err   error
}

// Error formats the failure for logs and API responses.
func (e *ConversionError) Error() string {
	return "conversion failed: " + e.Cause
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ConversionError) Unwrap() error { return e.Err }

// FontResolutionError reports a missing or invalid font resource.
type FontResolutionError struct {
	Cause string
	Err   error
}

// Error formats the failure for logs and API responses.
func (e *FontResolutionError) Error() string {
	return "font resolution failed: " + e.Cause
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *FontResolutionError) Unwrap() error { return e.Err }

// RenderError reports invalid render parameters.
type RenderError struct {
	Cause string
	Err   error
}

// Error formats the failure for logs and API responses.
func (e *RenderError) Error() string {
	return "render failed: " + e.Cause
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *RenderError) Unwrap() error { return e.Err }

// KindOf maps an error chain to its taxonomy kind, or empty when unrecognized.
func KindOf(err error) ErrorKind {
	var classificationErr *ClassificationError
	if errors.As(err, &classificationErr) {
		return ErrorKindClassification
	}
	var conversionErr *ConversionError
	if errors.As(err, &conversionErr) {
		return ErrorKindConversion
	}
	var fontErr *FontResolutionError
	if errors.As(err, &fontErr) {
		return ErrorKindFontResolution
	}
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return ErrorKindRender
	}
	return ""
}

// CauseOf extracts the human-readable cause from a taxonomy error,
// falling back to the full error string.
func CauseOf(err error) string {
	var classificationErr *ClassificationError
	if errors.As(err, &classificationErr) {
		return classificationErr.Cause
	}
	var conversionErr *ConversionError
	if errors.As(err, &conversionErr) {
		return conversionErr.Cause
	}
	var fontErr *FontResolutionError
	if errors.As(err, &fontErr) {
		return fontErr.Cause
	}
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return renderErr.Cause
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
