// Package cli provides the command-line interface for confschema.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Azhovan/confschema"
	"github.com/Azhovan/confschema/internal/app"
	xlog "github.com/Azhovan/confschema/internal/log"
	"github.com/Azhovan/confschema/internal/reload"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// EnvPrefix selects environment overrides (CONFSCHEMA_SOUND__RATE=22050).
const EnvPrefix = "CONFSCHEMA_"

// flags holds the root command's persistent flags.
type flags struct {
	resDir    string
	schema    string
	confs     []string
	lang      string
	eraseConf bool
	userConf  bool
	debug     int
	watch     bool
}

// runner carries what every command needs once flags are parsed.
type runner struct {
	flags   flags
	logger  zerolog.Logger
	ctx     *app.Context
	reports []*confschema.Report
	out     io.Writer
}

// NewRootCmd creates the root command.
func NewRootCmd(version, commit, buildDate string) *cobra.Command {
	r := &runner{}

	rootCmd := &cobra.Command{
		Use:   "confschema",
		Short: "Load and inspect schema-driven configuration files",
		Long: `confschema builds a typed configuration from a schema (res/config.json), applies the
user config file and any --conf files on top of it, and reports every line it could not use.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			r.out = cmd.OutOrStdout()
			return r.setup(cmd.Context(), cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.runRoot(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&r.flags.resDir, "res", "res", "Resource directory holding the schema and default language file")
	pf.StringVar(&r.flags.schema, "schema", "", "Schema file (default <res>/config.json)")
	pf.StringArrayVar(&r.flags.confs, "conf", nil, "Config file to apply; repeat to apply several in order")
	pf.StringVar(&r.flags.lang, "lang", "", "Language file (default <res>/default.lang when present)")
	pf.BoolVar(&r.flags.eraseConf, "eraseconf", false, "Erase the loaded config file (or the user config file) and exit")
	pf.BoolVar(&r.flags.userConf, "userconf", false, "Create the user level config file and exit")
	pf.CountVar(&r.flags.debug, "debug", "Turn debugging information on (repeat for trace)")
	rootCmd.Flags().BoolVar(&r.flags.watch, "watch", false, "Keep running and reload when the last config file changes")

	rootCmd.AddCommand(
		newDumpCmd(r),
		newValidateCmd(r),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			// Version needs no schema.
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "confschema %s\n", version)
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
				fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", buildDate)
			},
		},
	)
	return rootCmd
}

// setup configures logging, builds the store and applies config and language files.
func (r *runner) setup(ctx context.Context, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	xlog.Configure(xlog.Config{Level: xlog.LevelForVerbosity(r.flags.debug), Output: logOut, Console: true})
	r.logger = xlog.WithComponent("cli")
	r.logger.Debug().Int("debug", r.flags.debug).Msg("debug mode is on")

	schemaPath := r.flags.schema
	if schemaPath == "" {
		schemaPath = filepath.Join(r.flags.resDir, app.SchemaFile)
	}
	c, err := app.New(ctx, app.Options{SchemaPath: schemaPath, EnvPrefix: EnvPrefix, Logger: r.logger})
	if err != nil {
		return fmt.Errorf("cannot parse config manifest: %w", err)
	}
	r.ctx = c

	if r.flags.eraseConf || r.flags.userConf {
		// These act on files, not on their content.
		return nil
	}

	userPath, err := app.UserConfigPath()
	if err == nil {
		if _, statErr := os.Stat(userPath); statErr == nil {
			r.flags.confs = append([]string{userPath}, r.flags.confs...)
		}
	}
	for _, path := range r.flags.confs {
		report, err := c.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("cannot parse config file: %w", err)
		}
		r.reports = append(r.reports, report)
	}

	langPath := r.flags.lang
	if langPath == "" {
		candidate := filepath.Join(r.flags.resDir, app.LanguageFile)
		if _, err := os.Stat(candidate); err == nil {
			langPath = candidate
		}
	}
	if langPath != "" {
		if err := c.LoadLanguage(langPath); err != nil {
			return fmt.Errorf("cannot load language file: %w", err)
		}
	}
	return nil
}

func (r *runner) runRoot(ctx context.Context) error {
	switch {
	case r.flags.eraseConf:
		return r.erase()
	case r.flags.userConf:
		path, err := app.UserConfigPath()
		if err != nil {
			return err
		}
		if err := r.ctx.WriteUserConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "user config written to %s\n", path)
		return nil
	case r.flags.watch:
		return r.watch(ctx)
	}

	r.printReports()
	return confschema.Dump(r.out, r.ctx.Store())
}

// erase removes the last config file given with --conf, or the user config file.
func (r *runner) erase() error {
	var path string
	if n := len(r.flags.confs); n > 0 {
		path = r.flags.confs[n-1]
	} else {
		p, err := app.UserConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := r.ctx.EraseConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "erased %s\n", path)
	return nil
}

func (r *runner) watch(ctx context.Context) error {
	files := r.ctx.ConfigFiles()
	if len(files) == 0 {
		return errors.New("--watch needs a config file")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	holder := reload.NewHolder(r.ctx.Store(), r.ctx.Rebuild, files[len(files)-1],
		reload.WithLogger(xlog.WithComponent("reload")))
	events := make(chan reload.Event, 8)
	holder.RegisterListener(events)

	if err := holder.StartWatcher(ctx); err != nil {
		return err
	}
	defer holder.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			for _, c := range ev.Changes {
				fmt.Fprintf(r.out, "%s: %s -> %s\n", c.Key, c.Old, c.New)
			}
		}
	}
}

func (r *runner) printReports() {
	for _, report := range r.reports {
		for i := range report.Diagnostics {
			fmt.Fprintf(r.out, "%s\n", report.Diagnostics[i].Error())
		}
	}
}

func newDumpCmd(r *runner) *cobra.Command {
	var (
		format  string
		sources bool
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []confschema.DumpOption
			switch format {
			case "", "text":
			case "json":
				opts = append(opts, confschema.AsJSON())
			case "toml":
				opts = append(opts, confschema.AsTOML())
			case "yaml":
				opts = append(opts, confschema.AsYAML())
			default:
				return fmt.Errorf("unknown format %q (text, json, toml, yaml)", format)
			}
			if sources {
				opts = append(opts, confschema.WithSources())
			}
			return confschema.Dump(cmd.OutOrStdout(), r.ctx.Store(), opts...)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, toml or yaml")
	cmd.Flags().BoolVar(&sources, "sources", false, "Show where each value came from (text format)")
	return cmd
}

func newValidateCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report config lines that were not applied and values outside their constraints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.printReports()
			if err := r.ctx.Store().Validate(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), err.Error())
				return errors.New("configuration is not valid")
			}
			for _, report := range r.reports {
				if err := report.Err(); err != nil {
					return errors.New("configuration has diagnostics")
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}
