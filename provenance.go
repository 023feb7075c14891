package confschema

import "strconv"

// SourceDefault marks a property still holding its schema default.
const SourceDefault = "default"

// SourceSet marks a value applied programmatically through Store.SetValue.
const SourceSet = "set"

// Origin records where a property's current value came from.
type Origin struct {
	Source string // "default", "set", "file:dosbox.conf", "env:APP_SOUND__RATE"
	Line   int    // 1-based line in Source, 0 when not line-based
}

// String formats the origin as "source" or "source:line".
func (o Origin) String() string {
	if o.Line > 0 {
		return o.Source + ":" + strconv.Itoa(o.Line)
	}
	return o.Source
}

// PropertyProvenance describes where one property's value came from.
type PropertyProvenance struct {
	Key        string // Qualified key as spelled in the schema (e.g., "sound.rate")
	SourceName string
	Line       int
}

// Provenance lists the origin of every property in store order.
func (s *Store) Provenance() []PropertyProvenance {
	var out []PropertyProvenance
	for _, sec := range s.sections {
		for _, p := range sec.props {
			out = append(out, PropertyProvenance{
				Key:        qualify(sec.name, p.name),
				SourceName: p.origin.Source,
				Line:       p.origin.Line,
			})
		}
	}
	return out
}
