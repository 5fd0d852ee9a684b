package converter

import "fmt"

// ValidationError reports project data the exporter refuses to encode
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// EncodingError reports a broken invariant while writing track bytes.
// It signals a defect upstream of the serializer, never bad user input.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return "midi encoding: " + e.Reason
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
