package confschema

// SectionKind distinguishes typed property sections from raw line sections.
type SectionKind int

const (
	// SectionProperties holds typed properties.
	SectionProperties SectionKind = iota
	// SectionLines holds opaque passthrough lines (e.g. an autoexec block).
	SectionLines
)

// String returns the schema spelling of k.
func (k SectionKind) String() string {
	if k == SectionLines {
		return "line"
	}
	return "property"
}

// Section is a named group of properties or of raw lines. It owns its properties.
type Section struct {
	name  string
	kind  SectionKind
	props []*Property
	lines []string
}

// NewPropertySection creates a section holding the given properties in order.
func NewPropertySection(name string, props ...*Property) *Section {
	return &Section{
		name:  name,
		kind:  SectionProperties,
		props: props,
	}
}

// NewLineSection creates an empty raw-line section.
func NewLineSection(name string) *Section {
	return &Section{
		name: name,
		kind: SectionLines,
	}
}

// Name returns the section name as spelled in the schema.
func (s *Section) Name() string { return s.name }

// Kind reports whether the section holds properties or lines.
func (s *Section) Kind() SectionKind { return s.kind }

// Properties returns the section's properties in schema order.
func (s *Section) Properties() []*Property {
	return append([]*Property(nil), s.props...)
}

// Lines returns a copy of the raw lines collected for a line section.
func (s *Section) Lines() []string {
	return append([]string(nil), s.lines...)
}

func (s *Section) appendLine(line string) {
	s.lines = append(s.lines, line)
}

func (s *Section) clearLines() {
	s.lines = nil
}
