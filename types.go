package confschema

import (
	"context"
)

// SchemaSource provides a decoded schema document (files, embedded resources, tests).
type SchemaSource interface {
	// Load reads and decodes the schema. A missing or malformed document is an error.
	Load(ctx context.Context) (*Schema, error)

	// Name identifies the source in errors and logs (e.g., "file:config.json").
	Name() string
}

// Validator performs custom checks on a loaded store.
// Use for cross-property or semantic validation.
type Validator interface {
	// Validate checks the store. Return *ValidationError for property-level errors.
	Validate(ctx context.Context, store *Store) error
}

// ValidatorFunc is a function adapter for Validator interface.
type ValidatorFunc func(ctx context.Context, store *Store) error

// Validate calls f(ctx, store).
func (f ValidatorFunc) Validate(ctx context.Context, store *Store) error {
	return f(ctx, store)
}
