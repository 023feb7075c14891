package schemafile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azhovan/confschema"
	"gopkg.in/yaml.v3"
)

// Options configures file source behavior.
type Options struct {
	// Format: "json" or "yaml". Auto-detected from extension if empty.
	Format string
}

type fileSource struct {
	path string
	opts Options
}

// New creates a file-based schema source. The file is read on every Load.
func New(path string, opts Options) confschema.SchemaSource {
	return &fileSource{
		path: path,
		opts: opts,
	}
}

// Load reads and decodes the schema file. A missing file is an error: no configuration
// can be built without a schema.
func (f *fileSource) Load(ctx context.Context) (*confschema.Schema, error) {
	format := f.opts.Format
	if format == "" {
		format = inferFormat(f.path)
	}
	switch format {
	case "json", "yaml", "yml":
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: json, yaml)", format)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read schema file %s: %w", f.path, err)
	}

	schema, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", f.path, err)
	}
	return schema, nil
}

// Name returns a human-readable identifier for this source.
func (f *fileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

func inferFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

// Parse decodes a schema document. JSON input is accepted as YAML flow syntax.
//
// Document shape:
//
//	value_list: {name: [text, ...]}
//	sections:
//	  <name>: {type: property|line, properties: {<name>: {type, default, help, changeable, values, min, max}}}
func Parse(data []byte) (*confschema.Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &confschema.SchemaError{Err: confschema.ErrMissingField, Message: "empty document"}
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: schema root must be a mapping", root.Line)
	}

	schema := &confschema.Schema{ValueLists: make(map[string][]string)}
	var haveSections bool
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, resolve(root.Content[i+1])
		switch key {
		case "value_list":
			lists, err := decodeValueLists(val)
			if err != nil {
				return nil, err
			}
			schema.ValueLists = lists
		case "sections":
			sections, err := decodeSections(val)
			if err != nil {
				return nil, err
			}
			schema.Sections = sections
			haveSections = true
		}
	}
	if !haveSections {
		return nil, &confschema.SchemaError{Err: confschema.ErrMissingField, Message: "sections"}
	}
	return schema, nil
}

func decodeValueLists(n *yaml.Node) (map[string][]string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: value_list must be a mapping", n.Line)
	}
	lists := make(map[string][]string, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, val := n.Content[i].Value, resolve(n.Content[i+1])
		if val.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: value_list %q must be a list", val.Line, name)
		}
		items := make([]string, 0, len(val.Content))
		for _, item := range val.Content {
			item = resolve(item)
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: value_list %q items must be scalars", item.Line, name)
			}
			items = append(items, item.Value)
		}
		lists[name] = items
	}
	return lists, nil
}

func decodeSections(n *yaml.Node) ([]confschema.SectionSchema, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: sections must be a mapping", n.Line)
	}
	sections := make([]confschema.SectionSchema, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, body := n.Content[i].Value, resolve(n.Content[i+1])
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: section %q must be a mapping", body.Line, name)
		}

		sec := confschema.SectionSchema{Name: name}
		for j := 0; j+1 < len(body.Content); j += 2 {
			key, val := body.Content[j].Value, resolve(body.Content[j+1])
			switch key {
			case "type":
				sec.Type = val.Value
			case "properties":
				props, err := decodeProperties(name, val)
				if err != nil {
					return nil, err
				}
				sec.Properties = props
			}
		}
		if sec.Type == "" {
			return nil, &confschema.SchemaError{Section: name, Err: confschema.ErrMissingField, Message: "type"}
		}
		if sec.Type == "property" && sec.Properties == nil {
			return nil, &confschema.SchemaError{Section: name, Err: confschema.ErrMissingField, Message: "properties"}
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func decodeProperties(section string, n *yaml.Node) ([]confschema.PropertySchema, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: properties of section %q must be a mapping", n.Line, section)
	}
	props := make([]confschema.PropertySchema, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, body := n.Content[i].Value, resolve(n.Content[i+1])
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: property %s.%s must be a mapping", body.Line, section, name)
		}
		ps, err := decodeProperty(section, name, body)
		if err != nil {
			return nil, err
		}
		props = append(props, ps)
	}
	return props, nil
}

func decodeProperty(section, name string, body *yaml.Node) (confschema.PropertySchema, error) {
	ps := confschema.PropertySchema{Name: name}

	var defaultNode *yaml.Node
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, val := body.Content[i].Value, resolve(body.Content[i+1])
		switch key {
		case "type":
			ps.Type = val.Value
		case "help":
			help := val.Value
			ps.Help = &help
		case "changeable":
			ps.Changeable = val.Value
		case "default":
			defaultNode = val
		case "values":
			v, err := decodeAny(val)
			if err != nil {
				return ps, err
			}
			ps.Values = v
		case "min", "max":
			if isNull(val) {
				continue
			}
			var bound int64
			if err := val.Decode(&bound); err != nil {
				return ps, fmt.Errorf("line %d: %s of %s.%s: %w", val.Line, key, section, name, err)
			}
			if key == "min" {
				ps.Min = &bound
			} else {
				ps.Max = &bound
			}
		}
	}

	if defaultNode != nil {
		def, err := decodeDefault(ps.Type, defaultNode)
		if err != nil {
			return ps, fmt.Errorf("default of %s.%s: %w", section, name, err)
		}
		ps.Default = def
	}
	return ps, nil
}

// decodeDefault keeps the raw scalar text for textual property types, so unquoted YAML
// such as `default: 0x220` stays a hex literal instead of becoming an integer.
func decodeDefault(propType string, n *yaml.Node) (any, error) {
	switch propType {
	case "path", "string", "multi", "hex":
		if n.Kind == yaml.ScalarNode && !isNull(n) {
			return n.Value, nil
		}
	}
	return decodeAny(n)
}

// decodeAny converts a node into nil, string, bool, int64, float64, []any or map[string]any.
func decodeAny(n *yaml.Node) (any, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			err := n.Decode(&b)
			return b, err
		case "!!int":
			var i int64
			err := n.Decode(&i)
			return i, err
		case "!!float":
			var f float64
			err := n.Decode(&f)
			return f, err
		default:
			return n.Value, nil
		}
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := decodeAny(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		var m map[string]any
		if err := n.Decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// resolve follows alias nodes to their anchors.
func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
