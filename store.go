package confschema

import (
	"fmt"

	"github.com/Azhovan/confschema/internal/normalize"
)

// Store owns the realized sections and properties of a configuration.
// Sections keep schema order. Lookups are case-insensitive.
// A Store is not safe for concurrent mutation; wrap it in a lock when sharing it.
type Store struct {
	sections []*Section
	bySect   map[string]int
	index    map[string]propertyRef
}

// propertyRef locates a property by position, never by pointer into transient data.
type propertyRef struct {
	section  int
	property int
}

// NewStore builds a store from sections. Section names and property names within a
// section must be unique (case-insensitively).
func NewStore(sections ...*Section) (*Store, error) {
	s := &Store{}
	if err := s.Reload(sections...); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces all sections and rebuilds the lookup index from scratch.
// On error the store is left unchanged.
func (s *Store) Reload(sections ...*Section) error {
	bySect := make(map[string]int, len(sections))
	index := make(map[string]propertyRef)

	for si, sec := range sections {
		name := normalize.Name(sec.name)
		if _, dup := bySect[name]; dup {
			return &SchemaError{Section: sec.name, Err: ErrDuplicateName}
		}
		bySect[name] = si

		for pi, p := range sec.props {
			key := normalize.Key(sec.name, p.name)
			if _, dup := index[key]; dup {
				return &SchemaError{Section: sec.name, Property: p.name, Err: ErrDuplicateName}
			}
			index[key] = propertyRef{section: si, property: pi}
		}
	}

	s.sections = append([]*Section(nil), sections...)
	s.bySect = bySect
	s.index = index
	return nil
}

// Sections returns the sections in order.
func (s *Store) Sections() []*Section {
	return append([]*Section(nil), s.sections...)
}

// Section returns the named section.
func (s *Store) Section(name string) (*Section, bool) {
	i, ok := s.bySect[normalize.Name(name)]
	if !ok {
		return nil, false
	}
	return s.sections[i], true
}

// Find returns the property addressed by section and property name.
// An unknown property is a normal outcome, reported by ok == false.
func (s *Store) Find(section, property string) (*Property, bool) {
	ref, ok := s.index[normalize.Key(section, property)]
	if !ok {
		return nil, false
	}
	return s.sections[ref.section].props[ref.property], true
}

// Lookup returns the property addressed by a qualified "section.property" key.
func (s *Store) Lookup(key string) (*Property, bool) {
	section, property, ok := normalize.SplitKey(key)
	if !ok {
		return nil, false
	}
	return s.Find(section, property)
}

// Value returns the current value of a property, or Null when it does not exist.
func (s *Store) Value(section, property string) (Value, bool) {
	p, ok := s.Find(section, property)
	if !ok {
		return NullValue(), false
	}
	return p.cur, true
}

// Keys returns the qualified keys of all properties in store order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.index))
	for _, sec := range s.sections {
		for _, p := range sec.props {
			keys = append(keys, qualify(sec.name, p.name))
		}
	}
	return keys
}

// SetValue coerces text into the property's existing kind and replaces its value.
// Failures return a *Diagnostic and leave the prior value untouched. Setting a Null
// property is a no-op. Bounds and allowed values are not enforced here; see Validate.
func (s *Store) SetValue(section, property, text string) error {
	return s.apply(section, property, text, Origin{Source: SourceSet})
}

// SetValueFrom is SetValue with an explicit origin, for callers that apply values from
// their own sources (environment, command line).
func (s *Store) SetValueFrom(section, property, text string, origin Origin) error {
	return s.apply(section, property, text, origin)
}

func (s *Store) apply(section, property, text string, origin Origin) error {
	p, ok := s.Find(section, property)
	if !ok {
		return &Diagnostic{
			Source:   origin.Source,
			Line:     origin.Line,
			Section:  section,
			Key:      property,
			Code:     ErrCodeUnknownProperty,
			Severity: SeverityWarning,
			Message:  "property is not defined by the schema",
		}
	}
	if p.def.kind == KindNull {
		return nil
	}
	if err := p.set(text, origin); err != nil {
		return &Diagnostic{
			Source:   origin.Source,
			Line:     origin.Line,
			Section:  section,
			Key:      property,
			Code:     ErrCodeInvalidValue,
			Severity: SeverityError,
			Message:  err.Error(),
		}
	}
	return nil
}

// Reset restores every property to its default and empties line sections.
func (s *Store) Reset() {
	for _, sec := range s.sections {
		sec.clearLines()
		for _, p := range sec.props {
			p.reset()
		}
	}
}

// AppendLine adds a raw line to a line section.
func (s *Store) AppendLine(section, line string) error {
	sec, ok := s.Section(section)
	if !ok {
		return fmt.Errorf("append line: section %q: %w", section, ErrNotFound)
	}
	if sec.kind != SectionLines {
		return fmt.Errorf("append line: section %q is not a line section", section)
	}
	sec.appendLine(line)
	return nil
}
