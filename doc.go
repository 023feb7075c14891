// Package confschema provides a schema-driven configuration store with typed, constrained properties.
//
// Quick Start:
//
//	store, reports, err := confschema.NewLoader().
//	    WithSchema(schemafile.New("res/config.json", schemafile.Options{})).
//	    WithConfigFile("dosbox.conf").
//	    Load(context.Background())
//
//	rate, _ := store.Value("sound", "rate")
//	err = store.SetValue("cpu", "cycles", "3000")
//
// Config file format:
//
//	# comment (also '%' or a leading space)
//	[section]
//	property=value
//
// Values are coerced into the kind declared by the schema; the kind never changes.
// Unknown properties and malformed lines are reported as diagnostics and never abort a parse.
// Integer bounds and allowed values are advisory: see Store.Validate.
//
// See example_test.go for detailed usage.
package confschema
