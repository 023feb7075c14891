package confschema

import (
	"fmt"
	"strings"
)

// Validate checks every property against its advisory constraints: integer bounds and
// allowed values. Out-of-range writes are accepted by SetValue and only reported here.
// Returns nil or a *ValidationError listing every violation.
func (s *Store) Validate() error {
	if s == nil {
		return ErrNilStore
	}

	var fieldErrors []FieldError
	for _, sec := range s.sections {
		for _, p := range sec.props {
			fieldErrors = append(fieldErrors, validateProperty(qualify(sec.name, p.name), p)...)
		}
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{FieldErrors: fieldErrors}
	}
	return nil
}

// validateProperty checks one property against its bounds and allowed values.
func validateProperty(fieldPath string, p *Property) []FieldError {
	var errors []FieldError

	if p.Bounded() {
		value := p.cur.num
		if value < p.min {
			errors = append(errors, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeMin,
				Message:   fmt.Sprintf("value %d is below minimum %d", value, p.min),
			})
		}
		if value > p.max {
			errors = append(errors, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeMax,
				Message:   fmt.Sprintf("value %d exceeds maximum %d", value, p.max),
			})
		}
	}

	if !p.Allowed() {
		errors = append(errors, FieldError{
			FieldPath: fieldPath,
			Code:      ErrCodeOneOf,
			Message:   fmt.Sprintf("value %q must be one of: %s", p.cur.String(), strings.Join(p.allowed, ", ")),
		})
	}

	return errors
}
