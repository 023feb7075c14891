package confschema

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

// dumpFormat selects the dump encoding.
type dumpFormat int

const (
	formatText dumpFormat = iota
	formatJSON
	formatTOML
	formatYAML
)

// dumpConfig holds options for Dump.
type dumpConfig struct {
	withSources  bool       // Include source attribution for each property (text only)
	withDefaults bool       // Include the default next to each property (text only)
	format       dumpFormat // Output encoding
	indent       string     // Indentation for JSON output (default: "  ")
}

// WithSources includes source attribution for each property in text output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// WithDefaults includes the default value of each property in text output.
func WithDefaults() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withDefaults = true
	}
}

// AsJSON outputs configuration as JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = formatJSON
	}
}

// AsTOML outputs configuration as TOML. Null properties are omitted.
func AsTOML() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = formatTOML
	}
}

// AsYAML outputs configuration as YAML.
func AsYAML() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = formatYAML
	}
}

// WithIndent sets the indentation for JSON output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// Dump writes the effective configuration of store to w.
// Returns an error if encoding or writing fails.
func Dump(w io.Writer, store *Store, opts ...DumpOption) error {
	if store == nil {
		return ErrNilStore
	}

	config := dumpConfig{
		indent: "  ",
	}
	for _, opt := range opts {
		opt(&config)
	}

	switch config.format {
	case formatJSON:
		return dumpAsJSON(w, store, config)
	case formatTOML:
		return dumpAsTOML(w, store)
	case formatYAML:
		return dumpAsYAML(w, store)
	default:
		return dumpAsText(w, store, config)
	}
}

// dumpAsText outputs configuration in text format (key: value).
func dumpAsText(w io.Writer, store *Store, config dumpConfig) error {
	for _, sec := range store.sections {
		if sec.kind == SectionLines {
			line := fmt.Sprintf("%s: [%s]\n", sec.name, strings.Join(sec.lines, ", "))
			if _, err := io.WriteString(w, line); err != nil {
				return fmt.Errorf("write error: %w", err)
			}
			continue
		}

		for _, p := range sec.props {
			line := fmt.Sprintf("%s: %s", qualify(sec.name, p.name), formatValue(p.cur))
			if config.withDefaults {
				line += fmt.Sprintf(" (default: %s)", formatValue(p.def))
			}
			if config.withSources {
				line += fmt.Sprintf(" (source: %s)", p.origin)
			}
			line += "\n"

			if _, err := io.WriteString(w, line); err != nil {
				return fmt.Errorf("write error: %w", err)
			}
		}
	}
	return nil
}

// dumpAsJSON outputs configuration as nested JSON objects.
func dumpAsJSON(w io.Writer, store *Store, config dumpConfig) error {
	result := buildNested(store, true)

	var data []byte
	var err error
	if config.indent != "" {
		data, err = json.MarshalIndent(result, "", config.indent)
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

func dumpAsTOML(w io.Writer, store *Store) error {
	data, err := toml.Marshal(buildNested(store, false))
	if err != nil {
		return fmt.Errorf("toml marshal error: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

func dumpAsYAML(w io.Writer, store *Store) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(buildNested(store, true)); err != nil {
		return fmt.Errorf("yaml marshal error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// buildNested maps section name → property name → value. Line sections map to their
// lines. keepNull controls whether Null properties appear as nil.
func buildNested(store *Store, keepNull bool) map[string]any {
	result := make(map[string]any, len(store.sections))
	for _, sec := range store.sections {
		if sec.kind == SectionLines {
			lines := sec.Lines()
			if lines == nil {
				lines = []string{}
			}
			result[sec.name] = lines
			continue
		}

		props := make(map[string]any, len(sec.props))
		for _, p := range sec.props {
			if p.cur.kind == KindNull && !keepNull {
				continue
			}
			props[p.name] = p.cur.Interface()
		}
		result[sec.name] = props
	}
	return result
}

// formatValue formats a value for text output. Text kinds are quoted.
func formatValue(v Value) string {
	switch v.kind {
	case KindNull:
		return "<null>"
	case KindPath, KindString, KindHex:
		return fmt.Sprintf("%q", v.text)
	default:
		return v.String()
	}
}
