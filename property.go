package confschema

import "strings"

// Changeable describes when a property may legitimately be changed after startup.
// The Store does not enforce it; callers query CanChange before applying a change.
type Changeable int

const (
	// Always allows changes at any time.
	Always Changeable = iota
	// OnlyAtStart allows changes only before the caller starts running.
	OnlyAtStart
	// WhenIdle allows changes at start and while the caller is idle.
	WhenIdle
)

// String returns the schema spelling of c.
func (c Changeable) String() string {
	switch c {
	case OnlyAtStart:
		return "OnlyAtStart"
	case WhenIdle:
		return "WhenIdle"
	default:
		return "Always"
	}
}

// ParseChangeable maps a schema string to a Changeable. Unknown or empty input yields Always.
func ParseChangeable(s string) Changeable {
	switch s {
	case "OnlyAtStart":
		return OnlyAtStart
	case "WhenIdle":
		return WhenIdle
	default:
		return Always
	}
}

// RunState is the caller's lifecycle phase, used with Property.CanChange.
type RunState int

const (
	// Starting is the phase before the caller runs; every property may change.
	Starting RunState = iota
	// Idle permits Always and WhenIdle changes.
	Idle
	// Running permits only Always changes.
	Running
)

// Property is a named, typed configuration value with a default and advisory constraints.
type Property struct {
	name       string
	def        Value
	cur        Value
	allowed    []string
	min        int64
	max        int64
	changeable Changeable
	help       string
	origin     Origin
}

// PropertyOption configures a Property created with NewProperty.
type PropertyOption func(*Property)

// WithAllowedValues sets the suggested value list. The slice is copied.
func WithAllowedValues(values ...string) PropertyOption {
	return func(p *Property) {
		p.allowed = append([]string(nil), values...)
	}
}

// WithBounds sets the inclusive integer bounds. Both zero means unconstrained.
func WithBounds(min, max int64) PropertyOption {
	return func(p *Property) {
		p.min = min
		p.max = max
	}
}

// WithChangeable sets the mutability class.
func WithChangeable(c Changeable) PropertyOption {
	return func(p *Property) {
		p.changeable = c
	}
}

// WithHelp sets the help text.
func WithHelp(help string) PropertyOption {
	return func(p *Property) {
		p.help = help
	}
}

// NewProperty creates a property whose current value starts at def.
func NewProperty(name string, def Value, opts ...PropertyOption) *Property {
	p := &Property{
		name:   name,
		def:    def,
		cur:    def,
		origin: Origin{Source: SourceDefault},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the property name as spelled in the schema.
func (p *Property) Name() string { return p.name }

// Default returns the schema default.
func (p *Property) Default() Value { return p.def }

// Value returns the current value.
func (p *Property) Value() Value { return p.cur }

// Kind returns the kind fixed by the default. It never changes.
func (p *Property) Kind() Kind { return p.def.kind }

// Changeable returns when the property may be changed.
func (p *Property) Changeable() Changeable { return p.changeable }

// Help returns the help text.
func (p *Property) Help() string { return p.help }

// Origin returns where the current value came from.
func (p *Property) Origin() Origin { return p.origin }

// AllowedValues returns a copy of the suggested values.
func (p *Property) AllowedValues() []string {
	return append([]string(nil), p.allowed...)
}

// Bounds returns the integer bounds and whether they are set.
func (p *Property) Bounds() (min, max int64, ok bool) {
	return p.min, p.max, p.Bounded()
}

// Bounded reports whether the property carries integer bounds.
func (p *Property) Bounded() bool {
	return p.def.kind == KindInt && (p.min != 0 || p.max != 0)
}

// InRange reports whether the current value lies within the bounds.
// Properties without bounds are always in range.
func (p *Property) InRange() bool {
	if !p.Bounded() {
		return true
	}
	return p.cur.num >= p.min && p.cur.num <= p.max
}

// Allowed reports whether the current value is one of the allowed values.
// An empty allowed list accepts everything. Text comparison ignores case.
func (p *Property) Allowed() bool {
	if len(p.allowed) == 0 {
		return true
	}
	if p.cur.kind == KindNull || p.cur.kind == KindBool {
		return true
	}
	current := p.cur.String()
	for _, a := range p.allowed {
		if strings.EqualFold(a, current) {
			return true
		}
	}
	return false
}

// CanChange reports whether a change is legitimate in the given run state.
func (p *Property) CanChange(state RunState) bool {
	switch p.changeable {
	case OnlyAtStart:
		return state == Starting
	case WhenIdle:
		return state != Running
	default:
		return true
	}
}

// set coerces text into the property's kind and replaces the payload.
// On error the current value is untouched.
func (p *Property) set(text string, origin Origin) error {
	v, err := p.cur.Coerce(text)
	if err != nil {
		return err
	}
	p.cur = v
	p.origin = origin
	return nil
}

// reset restores the default value.
func (p *Property) reset() {
	p.cur = p.def
	p.origin = Origin{Source: SourceDefault}
}
