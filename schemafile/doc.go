// Package schemafile loads configuration schemas from JSON or YAML files.
//
// Format is auto-detected from extension (.json, .yaml, .yml). Both formats are decoded
// through the same order-preserving YAML node tree, so sections and properties keep
// the order in which the document lists them.
//
// Example:
//
//	source := schemafile.New("res/config.json", schemafile.Options{})
//	loader := confschema.NewLoader().WithSchema(source)
package schemafile
