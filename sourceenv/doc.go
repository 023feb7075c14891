// Package sourceenv overrides store properties from environment variables.
//
// Key normalization: SOUND__RATE → sound.rate, CPU__CPU_TYPE → cpu.cpu_type
//
// Example:
//
//	diags, err := sourceenv.Apply(store, sourceenv.Options{Prefix: "CONFSCHEMA_"})
package sourceenv
