package confschema

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
)

// Schema is a decoded schema document. It is input only: once a Store is built from it,
// nothing keeps a reference to it.
type Schema struct {
	// ValueLists holds named lists that property Values fields may reference.
	ValueLists map[string][]string
	// Sections in document order.
	Sections []SectionSchema
}

// SectionSchema describes one section of a schema document.
type SectionSchema struct {
	Name       string
	Type       string // "property" or "line"
	Properties []PropertySchema
}

// PropertySchema describes one property definition as found in the document.
// Scalar fields hold decoded document values: nil, string, bool, int64 or float64.
type PropertySchema struct {
	Name       string
	Type       string
	Help       *string
	Changeable string
	Default    any
	Values     any // nil, string (value_list reference) or []any
	Min        *int64
	Max        *int64
}

// BuildSections turns a schema into sections with fully resolved properties.
// Properties with no usable default become Null and are reported to logger.
func BuildSections(schema *Schema, logger zerolog.Logger) ([]*Section, error) {
	if schema == nil {
		return nil, &SchemaError{Err: ErrMissingField, Message: "empty schema"}
	}

	legacyBounds := !usesMinMax(schema)
	sections := make([]*Section, 0, len(schema.Sections))
	for _, ss := range schema.Sections {
		switch ss.Type {
		case "property":
			props := make([]*Property, 0, len(ss.Properties))
			for _, ps := range ss.Properties {
				p, err := buildProperty(ss.Name, ps, schema.ValueLists, legacyBounds)
				if err != nil {
					return nil, err
				}
				if p.Kind() == KindNull {
					logger.Warn().
						Str("event", "schema.null_default").
						Str("section", ss.Name).
						Str("key", ps.Name).
						Msg("property has no usable default")
				}
				props = append(props, p)
			}
			sections = append(sections, NewPropertySection(ss.Name, props...))
		case "line":
			sections = append(sections, NewLineSection(ss.Name))
		default:
			return nil, &SchemaError{
				Section: ss.Name,
				Err:     ErrUnknownSectionType,
				Message: fmt.Sprintf("%q (only 'property' and 'line' are allowed)", ss.Type),
			}
		}
	}
	return sections, nil
}

// usesMinMax reports whether any property declares min or max. Such a schema is in the
// current format, where a Values array always lists allowed values.
func usesMinMax(schema *Schema) bool {
	for _, ss := range schema.Sections {
		for _, ps := range ss.Properties {
			if ps.Min != nil || ps.Max != nil {
				return true
			}
		}
	}
	return false
}

func buildProperty(section string, ps PropertySchema, lists map[string][]string, legacyBounds bool) (*Property, error) {
	fail := func(err error, msg string) error {
		return &SchemaError{Section: section, Property: ps.Name, Err: err, Message: msg}
	}

	if ps.Type == "" {
		return nil, fail(ErrMissingField, "type")
	}
	if ps.Help == nil {
		return nil, fail(ErrMissingField, "help")
	}

	opts := []PropertyOption{
		WithHelp(*ps.Help),
		WithChangeable(ParseChangeable(ps.Changeable)),
	}

	var def Value
	switch ps.Type {
	case "path", "string", "multi":
		s, isNull, ok := textDefault(ps.Default)
		if !ok {
			return nil, fail(ErrInvalidDefault, fmt.Sprintf("expected text, got %T", ps.Default))
		}
		if !isNull {
			if ps.Type == "path" {
				def = PathValue(s)
			} else {
				def = StringValue(s)
			}
		}
	case "hex":
		s, isNull, ok := textDefault(ps.Default)
		if !ok {
			return nil, fail(ErrInvalidDefault, fmt.Sprintf("expected hex text, got %T", ps.Default))
		}
		if !isNull {
			def = HexValue(s)
		}
	case "bool":
		switch d := ps.Default.(type) {
		case nil:
		case bool:
			def = BoolValue(d)
		default:
			return nil, fail(ErrInvalidDefault, fmt.Sprintf("expected bool, got %T", ps.Default))
		}
	case "int":
		if ps.Default != nil {
			i, ok := toInt64(ps.Default)
			if !ok {
				return nil, fail(ErrInvalidDefault, fmt.Sprintf("expected integer, got %v", ps.Default))
			}
			def = IntValue(i)
		}
		lo, hi, rest, err := intBounds(ps, legacyBounds)
		if err != nil {
			return nil, fail(ErrInvalidValues, err.Error())
		}
		opts = append(opts, WithBounds(lo, hi))
		ps.Values = rest
	case "double":
		if ps.Default != nil {
			f, ok := toFloat64(ps.Default)
			if !ok {
				return nil, fail(ErrInvalidDefault, fmt.Sprintf("expected number, got %v", ps.Default))
			}
			def = DoubleValue(f)
		}
	default:
		return nil, fail(ErrUnknownPropertyType, strconv.Quote(ps.Type))
	}

	allowed, err := allowedValues(ps.Values, lists)
	if err != nil {
		return nil, &SchemaError{Section: section, Property: ps.Name, Err: err}
	}
	if len(allowed) > 0 {
		opts = append(opts, WithAllowedValues(allowed...))
	}

	return NewProperty(ps.Name, def, opts...), nil
}

// textDefault accepts a string or an absent default.
func textDefault(v any) (s string, isNull, ok bool) {
	switch d := v.(type) {
	case nil:
		return "", true, true
	case string:
		return d, false, true
	default:
		return "", false, false
	}
}

// intBounds reads the bounds from min/max. With legacyBounds set, a schema in the earlier
// format without min/max keys, a two-element integer Values array is read as [min, max].
// Values that are not bounds are returned for use as allowed values.
func intBounds(ps PropertySchema, legacyBounds bool) (lo, hi int64, rest any, err error) {
	if ps.Min != nil || ps.Max != nil {
		lo, hi = math.MinInt64, math.MaxInt64
		if ps.Min != nil {
			lo = *ps.Min
		}
		if ps.Max != nil {
			hi = *ps.Max
		}
		if lo > hi {
			return 0, 0, nil, fmt.Errorf("min %d exceeds max %d", lo, hi)
		}
		return lo, hi, ps.Values, nil
	}

	list, ok := ps.Values.([]any)
	if !legacyBounds || !ok || len(list) != 2 {
		return 0, 0, ps.Values, nil
	}
	a, aok := toInt64(list[0])
	b, bok := toInt64(list[1])
	if !aok || !bok {
		return 0, 0, ps.Values, nil
	}
	if a > b {
		return 0, 0, nil, fmt.Errorf("min %d exceeds max %d", a, b)
	}
	return a, b, nil, nil
}

// allowedValues resolves a Values field: a name in the shared value lists, an inline
// list, or nothing.
func allowedValues(v any, lists map[string][]string) ([]string, error) {
	switch vals := v.(type) {
	case nil:
		return nil, nil
	case string:
		list, ok := lists[vals]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownValueList, vals)
		}
		return append([]string(nil), list...), nil
	case []string:
		return append([]string(nil), vals...), nil
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case int, int64:
				i, _ := toInt64(it)
				out = append(out, strconv.FormatInt(i, 10))
			default:
				return nil, fmt.Errorf("%w: list item %v of type %T", ErrInvalidValues, item, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: only a string or a list is allowed, got %T", ErrInvalidValues, v)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// NewStoreFromSchema builds a Store from a decoded schema.
func NewStoreFromSchema(schema *Schema, logger zerolog.Logger) (*Store, error) {
	sections, err := BuildSections(schema, logger)
	if err != nil {
		return nil, err
	}
	return NewStore(sections...)
}

// Loader builds a Store from a schema source and applies config files to it in order
// (later files override earlier ones). The resulting Store is not safe for concurrent use.
type Loader struct {
	schema     SchemaSource
	files      []string
	validators []Validator
	logger     zerolog.Logger
	strict     bool // Fail when any config line produced a diagnostic (default: false)
}

// NewLoader creates a Loader with no schema, no config files and lenient parsing.
func NewLoader() *Loader {
	return &Loader{
		files:      make([]string, 0),
		validators: make([]Validator, 0),
		logger:     zerolog.Nop(),
	}
}

// WithSchema sets the schema source.
func (l *Loader) WithSchema(src SchemaSource) *Loader {
	l.schema = src
	return l
}

// WithConfigFile adds config files. Files are applied in order.
func (l *Loader) WithConfigFile(paths ...string) *Loader {
	l.files = append(l.files, paths...)
	return l
}

// WithValidator adds a custom validator, run after all config files are applied.
func (l *Loader) WithValidator(v Validator) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// WithLogger sets the logger for schema warnings and config diagnostics.
func (l *Loader) WithLogger(logger zerolog.Logger) *Loader {
	l.logger = logger
	return l
}

// Strict makes Load fail with a *DiagnosticsError when any config line is rejected.
// Default: false, since config files are expected to drift from the schema.
func (l *Loader) Strict(strict bool) *Loader {
	l.strict = strict
	return l
}

// Load reads the schema, builds the store, applies every config file and runs the
// custom validators. Schema failures and unreadable config files are returned as
// errors. Line-level problems are collected in the returned reports, one per file.
func (l *Loader) Load(ctx context.Context) (*Store, []*Report, error) {
	if l.schema == nil {
		return nil, nil, fmt.Errorf("load: no schema source configured")
	}

	schema, err := l.schema.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load schema %s: %w", l.schema.Name(), err)
	}

	store, err := NewStoreFromSchema(schema, l.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build store from %s: %w", l.schema.Name(), err)
	}
	l.logger.Debug().
		Str("event", "schema.loaded").
		Str("source", l.schema.Name()).
		Int("sections", len(store.sections)).
		Int("properties", len(store.index)).
		Msg("schema loaded")

	reports := make([]*Report, 0, len(l.files))
	var diags []Diagnostic
	for _, path := range l.files {
		report, err := store.ParseFile(path, WithParserLogger(l.logger))
		if err != nil {
			return nil, reports, fmt.Errorf("parse config: %w", err)
		}
		reports = append(reports, report)
		diags = append(diags, report.Diagnostics...)
		l.logger.Info().
			Str("event", "config.loaded").
			Str("source", report.Source).
			Int("lines", report.Lines).
			Int("diagnostics", len(report.Diagnostics)).
			Msg("config file applied")
	}

	if l.strict && len(diags) > 0 {
		return nil, reports, &DiagnosticsError{Diagnostics: diags}
	}

	var fieldErrors []FieldError
	for i, validator := range l.validators {
		err := validator.Validate(ctx, store)
		if err == nil {
			continue
		}
		var valErr *ValidationError
		if errors.As(err, &valErr) {
			fieldErrors = append(fieldErrors, valErr.FieldErrors...)
			continue
		}
		return nil, reports, fmt.Errorf("validator %d failed: %w", i, err)
	}
	if len(fieldErrors) > 0 {
		return nil, reports, &ValidationError{FieldErrors: fieldErrors}
	}

	return store, reports, nil
}
