package sourceenv

import (
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/Azhovan/confschema"
	"github.com/Azhovan/confschema/internal/normalize"
)

// Options configures environment variable overrides.
type Options struct {
	// Prefix filters vars starting with prefix (stripped before normalization).
	// Empty = consider all vars.
	// Prefix matching behavior is controlled by CaseSensitive.
	Prefix string

	// CaseSensitive controls prefix matching (default: false).
	// When false, prefix matching is case-insensitive (APP_ matches app_, App_, etc.).
	// Property lookup is always case-insensitive.
	CaseSensitive bool

	// Environ supplies "KEY=value" pairs. Default: os.Environ.
	Environ func() []string
}

// Apply sets store properties from environment variables named
// <Prefix><SECTION>__<PROPERTY>. Vars without a "__" separator are ignored.
// Vars that address unknown properties or carry unusable values are returned as
// diagnostics; they never abort the pass. Vars are applied in name order.
func Apply(store *confschema.Store, opts Options) ([]confschema.Diagnostic, error) {
	if store == nil {
		return nil, confschema.ErrNilStore
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}

	vars := environ()
	sort.Strings(vars)

	var diags []confschema.Diagnostic
	for _, env := range vars {
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		key := name
		if opts.Prefix != "" {
			var hasPrefix bool
			if opts.CaseSensitive {
				hasPrefix = strings.HasPrefix(key, opts.Prefix)
			} else {
				hasPrefix = strings.HasPrefix(strings.ToUpper(key), strings.ToUpper(opts.Prefix))
			}

			if !hasPrefix {
				continue
			}
			key = key[len(opts.Prefix):]
		}

		// Normalize: SOUND__RATE → sound.rate
		section, property, ok := normalize.SplitKey(normalize.ToLowerDotPath(key))
		if !ok || strings.Contains(property, ".") {
			continue
		}

		err := store.SetValueFrom(section, property, value, confschema.Origin{Source: "env:" + name})
		if err == nil {
			continue
		}
		var d *confschema.Diagnostic
		if errors.As(err, &d) {
			diags = append(diags, *d)
			continue
		}
		return diags, err
	}
	return diags, nil
}
