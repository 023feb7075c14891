package confschema

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError_Error_SingleError(t *testing.T) {
	ve := &ValidationError{
		FieldErrors: []FieldError{
			{
				FieldPath: "cpu.cycles",
				Code:      ErrCodeMax,
				Message:   "value 99999999 exceeds maximum 100000",
			},
		},
	}

	got := ve.Error()
	want := "config validation failed: 1 error\n  - cpu.cycles: max (value 99999999 exceeds maximum 100000)"

	if got != want {
		t.Errorf("ValidationError.Error() with single error\ngot:  %q\nwant: %q", got, want)
	}
}

func TestValidationError_Error_MultipleErrors(t *testing.T) {
	ve := &ValidationError{
		FieldErrors: []FieldError{
			{FieldPath: "cpu.cycles", Code: ErrCodeMin, Message: "value 0 is below minimum 1"},
			{FieldPath: "cpu.core", Code: ErrCodeOneOf, Message: `value "turbo" must be one of: auto, dynamic`},
		},
	}

	got := ve.Error()

	if !strings.HasPrefix(got, "config validation failed: 2 errors\n") {
		t.Errorf("ValidationError.Error() header incorrect\ngot: %q", got)
	}

	expectedErrors := []string{
		"  - cpu.cycles: min (value 0 is below minimum 1)",
		`  - cpu.core: oneof (value "turbo" must be one of: auto, dynamic)`,
	}
	for _, expected := range expectedErrors {
		if !strings.Contains(got, expected) {
			t.Errorf("ValidationError.Error() missing expected error\ngot:  %q\nwant to contain: %q", got, expected)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("ValidationError.Error() should not end with a newline")
	}
}

func TestValidationError_Error_NoErrors(t *testing.T) {
	ve := &ValidationError{}

	if got, want := ve.Error(), "config validation failed: no errors"; got != want {
		t.Errorf("ValidationError.Error() with no errors\ngot:  %q\nwant: %q", got, want)
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{ErrCodeMin, "min"},
		{ErrCodeMax, "max"},
		{ErrCodeOneOf, "oneof"},
		{ErrCodeInvalidType, "invalid_type"},
		{ErrCodeUnknownProperty, "unknown_property"},
		{ErrCodeMalformedSection, "malformed_section"},
		{ErrCodeMalformedLine, "malformed_line"},
		{ErrCodeInvalidValue, "invalid_value"},
		{ErrCodeNullProperty, "null_property"},
	}

	for _, tt := range tests {
		if tt.code != tt.want {
			t.Errorf("error code = %q, want %q", tt.code, tt.want)
		}
	}
}

func TestDiagnostic_Error(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "file line with key",
			d: Diagnostic{
				Source: "file:dosbox.conf", Line: 3, Section: "sound", Key: "bogus",
				Code: ErrCodeUnknownProperty, Message: "property is not defined by the schema",
			},
			want: "file:dosbox.conf:3: unknown_property sound.bogus (property is not defined by the schema)",
		},
		{
			name: "section only",
			d:    Diagnostic{Source: "config", Line: 1, Code: ErrCodeMalformedSection, Message: "missing closing bracket"},
			want: "config:1: malformed_section (missing closing bracket)",
		},
		{
			name: "no line",
			d:    Diagnostic{Source: "env:APP_CPU__CYCLES", Section: "cpu", Key: "cycles", Code: ErrCodeInvalidValue},
			want: "env:APP_CPU__CYCLES: invalid_value cpu.cycles",
		},
		{
			name: "no source",
			d:    Diagnostic{Section: "cpu", Code: ErrCodeMalformedLine},
			want: "malformed_line cpu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Error(); got != tt.want {
				t.Errorf("Diagnostic.Error()\ngot:  %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestDiagnosticsError_Error(t *testing.T) {
	de := &DiagnosticsError{Diagnostics: []Diagnostic{
		{Source: "config", Line: 1, Code: ErrCodeMalformedSection},
		{Source: "config", Line: 2, Section: "cpu", Key: "x", Code: ErrCodeUnknownProperty},
	}}

	want := "config parse: 2 diagnostics\n  - config:1: malformed_section\n  - config:2: unknown_property cpu.x"
	if got := de.Error(); got != want {
		t.Errorf("DiagnosticsError.Error()\ngot:  %q\nwant: %q", got, want)
	}

	single := &DiagnosticsError{Diagnostics: de.Diagnostics[:1]}
	if got := single.Error(); !strings.HasPrefix(got, "config parse: 1 diagnostic\n") {
		t.Errorf("DiagnosticsError.Error() single header incorrect: %q", got)
	}
}

func TestSchemaError(t *testing.T) {
	tests := []struct {
		name string
		err  *SchemaError
		want string
	}{
		{
			name: "property with message",
			err:  &SchemaError{Section: "cpu", Property: "cycles", Err: ErrMissingField, Message: "help"},
			want: "schema cpu.cycles: confschema: missing required field: help",
		},
		{
			name: "section only",
			err:  &SchemaError{Section: "cpu", Err: ErrDuplicateName},
			want: "schema cpu: confschema: duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("SchemaError.Error()\ngot:  %q\nwant: %q", got, tt.want)
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.err.Err)
			}
		})
	}
}

func TestSeverity_String(t *testing.T) {
	if SeverityWarning.String() != "warning" || SeverityError.String() != "error" {
		t.Errorf("Severity strings = %q, %q", SeverityWarning, SeverityError)
	}
}
