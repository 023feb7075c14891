package confschema

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/renameio/v2"
)

// WriteOption configures Store.Write and Store.Save.
type WriteOption func(*writeConfig)

type writeConfig struct {
	withHelp     bool // Emit help text as '#' comments above each property
	onlyModified bool // Skip properties still at their default
}

// WithHelpComments writes each property's help text as comment lines above it.
func WithHelpComments() WriteOption {
	return func(cfg *writeConfig) {
		cfg.withHelp = true
	}
}

// OnlyModified writes only properties whose value differs from the default.
// Sections left empty are still written so line sections keep their position.
func OnlyModified() WriteOption {
	return func(cfg *writeConfig) {
		cfg.onlyModified = true
	}
}

// Write serializes the store in config file format, sections in order.
// Null properties are omitted; they cannot be read back. A value containing '=' or a
// line break, or a line that would read back as a comment or header, fails with
// ErrUnwritable before anything is written.
func (s *Store) Write(w io.Writer, opts ...WriteOption) error {
	if s == nil {
		return ErrNilStore
	}
	var cfg writeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := s.checkWritable(cfg); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for i, sec := range s.sections {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "[%s]\n", sec.name)

		if sec.kind == SectionLines {
			for _, line := range sec.lines {
				bw.WriteString(line)
				bw.WriteString("\n")
			}
			continue
		}

		for _, p := range sec.props {
			if p.def.kind == KindNull {
				continue
			}
			if cfg.onlyModified && p.cur.Equal(p.def) {
				continue
			}
			if cfg.withHelp && p.help != "" {
				for _, h := range strings.Split(strings.TrimRight(p.help, "\n"), "\n") {
					fmt.Fprintf(bw, "# %s\n", h)
				}
			}
			fmt.Fprintf(bw, "%s=%s\n", p.name, p.cur.String())
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// checkWritable rejects content Write would emit but the parser would read differently.
func (s *Store) checkWritable(cfg writeConfig) error {
	for _, sec := range s.sections {
		if sec.kind == SectionLines {
			for i, line := range sec.lines {
				if line == "" || strings.ContainsAny(line, "\r\n") || strings.ContainsRune("%# [", rune(line[0])) {
					return fmt.Errorf("%w: [%s] line %d %q", ErrUnwritable, sec.name, i+1, line)
				}
			}
			continue
		}
		for _, p := range sec.props {
			if p.def.kind == KindNull || (cfg.onlyModified && p.cur.Equal(p.def)) {
				continue
			}
			if strings.ContainsAny(p.cur.String(), "=\r\n") {
				return fmt.Errorf("%w: %s value %q", ErrUnwritable, qualify(sec.name, p.name), p.cur.String())
			}
		}
	}
	return nil
}

// Save writes the store to path atomically: the file is either fully replaced or untouched.
func (s *Store) Save(path string, opts ...WriteOption) error {
	if s == nil {
		return ErrNilStore
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer pendingFile.Cleanup() //nolint:errcheck // no-op once committed

	if err := s.Write(pendingFile, opts...); err != nil {
		return fmt.Errorf("write config data: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}
