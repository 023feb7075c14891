// Package app wires the configuration store and the message table for the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azhovan/confschema"
	"github.com/Azhovan/confschema/lang"
	"github.com/Azhovan/confschema/schemafile"
	"github.com/Azhovan/confschema/sourceenv"
	"github.com/rs/zerolog"
)

// Resource file names inside the resource directory.
const (
	SchemaFile   = "config.json"
	LanguageFile = "default.lang"
)

// UserConfigName is the file name of the per-user config.
const UserConfigName = "confschema.conf"

// Options configures a Context.
type Options struct {
	SchemaPath string // required
	EnvPrefix  string // environment overrides, e.g. "CONFSCHEMA_"; empty disables them
	Logger     zerolog.Logger
}

// Context holds the configuration store and message table of one run.
type Context struct {
	opts     Options
	schema   confschema.SchemaSource
	store    *confschema.Store
	messages *lang.Messages
	files    []string
	logger   zerolog.Logger
}

// New loads the schema and builds a store holding defaults, then applies environment
// overrides. Schema problems are fatal.
func New(ctx context.Context, opts Options) (*Context, error) {
	if opts.SchemaPath == "" {
		return nil, errors.New("app: schema path is required")
	}
	c := &Context{
		opts:     opts,
		schema:   schemafile.New(opts.SchemaPath, schemafile.Options{}),
		messages: lang.New(),
		logger:   opts.Logger,
	}

	store, err := c.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	c.store = store
	return c, nil
}

// Store returns the live store.
func (c *Context) Store() *confschema.Store { return c.store }

// Messages returns the message table.
func (c *Context) Messages() *lang.Messages { return c.messages }

// ConfigFiles returns the config files applied so far, in order.
func (c *Context) ConfigFiles() []string { return append([]string(nil), c.files...) }

// LoadConfig applies a config file to the live store and remembers it for Rebuild.
func (c *Context) LoadConfig(path string) (*confschema.Report, error) {
	c.logger.Info().Str("event", "config.load").Str("path", path).Msg("load config file")
	report, err := c.store.ParseFile(path, confschema.WithParserLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.files = append(c.files, path)
	c.logger.Trace().Str("event", "config.loaded").Int("diagnostics", len(report.Diagnostics)).Msg("config applied")
	return report, nil
}

// Rebuild produces a fresh store from the schema, every config file loaded so far and
// the environment. The live store is not touched.
func (c *Context) Rebuild(ctx context.Context) (*confschema.Store, error) {
	store, _, err := confschema.NewLoader().
		WithSchema(c.schema).
		WithConfigFile(c.files...).
		WithLogger(c.logger).
		Load(ctx)
	if err != nil {
		return nil, err
	}

	if c.opts.EnvPrefix != "" {
		diags, err := sourceenv.Apply(store, sourceenv.Options{Prefix: c.opts.EnvPrefix})
		if err != nil {
			return nil, fmt.Errorf("apply environment: %w", err)
		}
		for i := range diags {
			c.logger.Warn().
				Str("event", "config."+diags[i].Code).
				Str("source", diags[i].Source).
				Msg(diags[i].Message)
		}
	}
	return store, nil
}

// LoadLanguage merges a language file into the message table.
func (c *Context) LoadLanguage(path string) error {
	c.logger.Info().Str("event", "lang.load").Str("path", path).Msg("load language file")
	m, err := lang.Load(path)
	if err != nil {
		return err
	}
	c.messages.Merge(m)
	return nil
}

// SaveLanguage writes the message table to path.
func (c *Context) SaveLanguage(path string) error {
	c.logger.Info().Str("event", "lang.save").Str("path", path).Msg("save language file")
	return c.messages.Save(path)
}

// Msg returns the message text for name, or name when it is not defined.
func (c *Context) Msg(name string) string {
	return c.messages.Get(name)
}

// WriteUserConfig writes the live store with help comments to path, creating the
// directory when needed.
func (c *Context) WriteUserConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := c.store.Save(path, confschema.WithHelpComments()); err != nil {
		return err
	}
	c.logger.Info().Str("event", "config.user_written").Str("path", path).Msg("user config written")
	return nil
}

// EraseConfig removes a config file. A file that is already gone is not an error.
func (c *Context) EraseConfig(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("erase config file: %w", err)
	}
	c.logger.Info().Str("event", "config.erased").Str("path", path).Msg("config file erased")
	return nil
}

// UserConfigPath returns the per-user config file location.
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, "confschema", UserConfigName), nil
}
