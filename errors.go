package confschema

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for validation failures.
const (
	ErrCodeMin   = "min"
	ErrCodeMax   = "max"
	ErrCodeOneOf = "oneof"

	ErrCodeInvalidType = "invalid_type"
)

// Diagnostic codes reported while applying configuration text.
const (
	ErrCodeUnknownProperty  = "unknown_property"
	ErrCodeMalformedSection = "malformed_section"
	ErrCodeMalformedLine    = "malformed_line"
	ErrCodeInvalidValue     = "invalid_value"
	ErrCodeNullProperty     = "null_property"
)

// Schema errors. They are fatal: a store cannot be built from a schema that fails with one of these.
var (
	ErrUnknownSectionType  = errors.New("confschema: unknown section type")
	ErrUnknownPropertyType = errors.New("confschema: unknown property type")
	ErrMissingField        = errors.New("confschema: missing required field")
	ErrInvalidValues       = errors.New("confschema: invalid values field")
	ErrInvalidDefault      = errors.New("confschema: invalid default")
	ErrUnknownValueList    = errors.New("confschema: unknown value list")
	ErrDuplicateName       = errors.New("confschema: duplicate name")
)

var (
	// ErrNilStore is returned when an operation receives a nil store.
	ErrNilStore = errors.New("confschema: store is nil")

	// ErrNotFound is returned when a named section does not exist.
	ErrNotFound = errors.New("confschema: not found")

	// ErrUnwritable is returned by Store.Write when a value or line would not parse back
	// to the same state.
	ErrUnwritable = errors.New("confschema: value cannot be written to a config file")
)

// ValidationError aggregates property-level constraint violations.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "config validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("config validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "config validation failed: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FieldError represents a single constraint violation.
type FieldError struct {
	FieldPath string // Qualified key (e.g., "cpu.cycles")
	Code      string // Error code (e.g., "min", "oneof")
	Message   string // Human-readable description
}

// Severity ranks a Diagnostic.
type Severity int

const (
	// SeverityWarning marks input that was skipped, such as an unknown property.
	SeverityWarning Severity = iota
	// SeverityError marks input that was rejected, such as a value of the wrong kind.
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a recoverable problem found while applying configuration text.
// It never aborts a parse.
type Diagnostic struct {
	Source   string // e.g. "file:dosbox.conf" or "env:APP_SOUND__RATE"
	Line     int    // 1-based line number, 0 when not line-based
	Section  string
	Key      string
	Code     string
	Severity Severity
	Message  string
}

// Error formats the diagnostic as "source:line: code section.key (message)".
func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.Source != "" {
		b.WriteString(d.Source)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Code)
	if d.Section != "" || d.Key != "" {
		fmt.Fprintf(&b, " %s", qualify(d.Section, d.Key))
	}
	if d.Message != "" {
		fmt.Fprintf(&b, " (%s)", d.Message)
	}
	return b.String()
}

// DiagnosticsError wraps the diagnostics of a parse when the caller asked for strictness.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

// Error lists every diagnostic on its own line.
func (e *DiagnosticsError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "config parse: no diagnostics"
	}

	var b strings.Builder
	if len(e.Diagnostics) == 1 {
		b.WriteString("config parse: 1 diagnostic\n")
	} else {
		fmt.Fprintf(&b, "config parse: %d diagnostics\n", len(e.Diagnostics))
	}
	for i := range e.Diagnostics {
		fmt.Fprintf(&b, "  - %s\n", e.Diagnostics[i].Error())
	}
	return strings.TrimRight(b.String(), "\n")
}

// SchemaError locates a fatal problem in a schema document.
type SchemaError struct {
	Section  string
	Property string
	Message  string
	Err      error
}

// Error names the section or property and the underlying sentinel.
func (e *SchemaError) Error() string {
	loc := e.Section
	if e.Property != "" {
		loc = qualify(e.Section, e.Property)
	}
	if e.Message == "" {
		return fmt.Sprintf("schema %s: %v", loc, e.Err)
	}
	return fmt.Sprintf("schema %s: %v: %s", loc, e.Err, e.Message)
}

// Unwrap returns the sentinel so errors.Is matches it.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

func qualify(section, key string) string {
	if key == "" {
		return section
	}
	return section + "." + key
}
