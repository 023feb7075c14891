package confschema

import (
	"fmt"
	"reflect"
	"strings"
)

// tagConfig holds parsed directives from a struct field's `conf` tag.
type tagConfig struct {
	key      string // Qualified property key or line section name (key:sound.rate)
	required bool   // Missing property is an error (required or required:true)
}

// parseTag parses a `conf` struct tag.
// Tag format: "directive1:value1,directive2:value2,..."
// Boolean directives can omit `:true` (e.g., "required" == "required:true").
func parseTag(tag string) tagConfig {
	cfg := tagConfig{}

	if tag == "" {
		return cfg
	}

	for _, directive := range strings.Split(tag, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		name, value, _ := strings.Cut(directive, ":")
		switch strings.TrimSpace(name) {
		case "key":
			cfg.key = strings.TrimSpace(value)
		case "required":
			// Anything other than an explicit "false" keeps the field required
			cfg.required = value != "false"
		}
	}

	return cfg
}

// Decode copies current values into the struct pointed to by dst. Fields are matched by
// their `conf:"key:section.property"` tag; untagged fields and nested structs without a
// tag are walked recursively. A tag naming a line section fills a []string field.
// Missing properties are skipped unless the field is marked required.
func (s *Store) Decode(dst any) error {
	if s == nil {
		return ErrNilStore
	}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode: destination must be a non-nil pointer to struct, got %T", dst)
	}

	var fieldErrors []FieldError
	s.decodeStruct(v.Elem(), "", &fieldErrors)
	if len(fieldErrors) > 0 {
		return &ValidationError{FieldErrors: fieldErrors}
	}
	return nil
}

func (s *Store) decodeStruct(v reflect.Value, parentPath string, fieldErrors *[]FieldError) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldPath := field.Name
		if parentPath != "" {
			fieldPath = parentPath + "." + field.Name
		}

		tagCfg := parseTag(field.Tag.Get("conf"))
		fieldValue := v.Field(i)

		if tagCfg.key == "" {
			if fieldValue.Kind() == reflect.Struct {
				s.decodeStruct(fieldValue, fieldPath, fieldErrors)
			}
			continue
		}

		if fieldValue.Kind() == reflect.Slice && fieldValue.Type().Elem().Kind() == reflect.String {
			sec, ok := s.Section(tagCfg.key)
			if ok && sec.kind == SectionLines {
				fieldValue.Set(reflect.ValueOf(sec.Lines()))
				continue
			}
		}

		p, ok := s.Lookup(tagCfg.key)
		if !ok {
			if tagCfg.required {
				*fieldErrors = append(*fieldErrors, FieldError{
					FieldPath: fieldPath,
					Code:      ErrCodeUnknownProperty,
					Message:   fmt.Sprintf("property %q is not defined", tagCfg.key),
				})
			}
			continue
		}

		if err := assignValue(fieldValue, p.cur); err != nil {
			*fieldErrors = append(*fieldErrors, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeInvalidType,
				Message:   err.Error(),
			})
		}
	}
}

// assignValue stores a Value into a struct field of a compatible kind.
func assignValue(field reflect.Value, v Value) error {
	if v.kind == KindNull {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(v.String())
		return nil
	case reflect.Bool:
		if b, ok := v.Bool(); ok {
			field.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := v.Int(); ok {
			if field.OverflowInt(i) {
				return fmt.Errorf("value %d overflows %s", i, field.Type())
			}
			field.SetInt(i)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := v.Int(); ok {
			if i < 0 || field.OverflowUint(uint64(i)) {
				return fmt.Errorf("value %d overflows %s", i, field.Type())
			}
			field.SetUint(uint64(i))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		if f, ok := v.Double(); ok {
			field.SetFloat(f)
			return nil
		}
		if i, ok := v.Int(); ok {
			field.SetFloat(float64(i))
			return nil
		}
	}
	return fmt.Errorf("cannot assign %s value to %s", v.kind, field.Type())
}
