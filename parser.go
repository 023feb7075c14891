package confschema

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// maxLineSize bounds a single config line.
const maxLineSize = 1024 * 1024

// Parser applies configuration text to a Store one line at a time.
//
// Its only state between lines is the current section. Comment lines start with '%',
// '#' or a space; a '[' line opens a section; any other line is a "name=value"
// assignment, or raw content when the current section is a line section.
type Parser struct {
	store   *Store
	source  string
	current string
	line    int
	cleared map[*Section]bool
	diags   []Diagnostic
	logger  zerolog.Logger
}

// ParseOption configures a Parser.
type ParseOption func(*Parser)

// WithSourceName sets the source recorded in diagnostics and provenance (e.g. "file:dosbox.conf").
func WithSourceName(name string) ParseOption {
	return func(p *Parser) {
		p.source = name
	}
}

// WithParserLogger sets the logger diagnostics are reported to. Default: disabled.
func WithParserLogger(logger zerolog.Logger) ParseOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a parser that mutates store.
func NewParser(store *Store, opts ...ParseOption) *Parser {
	p := &Parser{
		store:   store,
		source:  "config",
		cleared: make(map[*Section]bool),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CurrentSection returns the name of the section currently open, or "".
func (p *Parser) CurrentSection() string { return p.current }

// LineNumber returns the number of lines processed so far.
func (p *Parser) LineNumber() int { return p.line }

// Diagnostics returns the diagnostics collected so far.
func (p *Parser) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), p.diags...)
}

// ParseLine processes one line without its terminator. It returns the diagnostic the line
// produced, if any; the diagnostic is also collected.
func (p *Parser) ParseLine(line string) *Diagnostic {
	p.line++
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return nil
	}

	switch line[0] {
	case '%', '#', ' ':
		return nil
	case '[':
		return p.parseSection(line)
	default:
		if sec, ok := p.store.Section(p.current); ok && sec.kind == SectionLines {
			sec.appendLine(line)
			return nil
		}
		return p.parseProperty(line)
	}
}

func (p *Parser) parseSection(line string) *Diagnostic {
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return p.report(ErrCodeMalformedSection, SeverityError, "", "", "missing closing bracket")
	}
	name := strings.TrimSpace(line[1:end])
	if name == "" {
		return p.report(ErrCodeMalformedSection, SeverityError, "", "", "empty section name")
	}

	p.current = name
	sec, ok := p.store.Section(name)
	if !ok {
		p.logger.Debug().
			Str("event", "config.unknown_section").
			Str("source", p.source).
			Int("line", p.line).
			Str("section", name).
			Msg("section is not defined by the schema")
		return nil
	}
	// A line section is rebuilt by each parse so re-parsing the same file is idempotent.
	if sec.kind == SectionLines && !p.cleared[sec] {
		sec.clearLines()
		p.cleared[sec] = true
	}
	return nil
}

func (p *Parser) parseProperty(line string) *Diagnostic {
	parts := strings.Split(line, "=")
	if len(parts) != 2 {
		msg := "expected exactly one '='"
		if len(parts) == 1 {
			msg = "missing '='"
		}
		return p.report(ErrCodeMalformedLine, SeverityError, p.current, "", msg)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return p.report(ErrCodeMalformedLine, SeverityError, p.current, "", "missing property name")
	}

	if prop, ok := p.store.Find(p.current, name); ok && prop.Kind() == KindNull {
		return p.report(ErrCodeNullProperty, SeverityWarning, p.current, name,
			"schema declares no usable type for this property; value ignored")
	}

	err := p.store.apply(p.current, name, parts[1], Origin{Source: p.source, Line: p.line})
	if err == nil {
		return nil
	}
	d, ok := err.(*Diagnostic)
	if !ok {
		d = &Diagnostic{Code: ErrCodeInvalidValue, Severity: SeverityError, Section: p.current, Key: name, Message: err.Error()}
	}
	d.Source, d.Line = p.source, p.line
	return p.record(d)
}

func (p *Parser) report(code string, sev Severity, section, key, msg string) *Diagnostic {
	return p.record(&Diagnostic{
		Source:   p.source,
		Line:     p.line,
		Section:  section,
		Key:      key,
		Code:     code,
		Severity: sev,
		Message:  msg,
	})
}

func (p *Parser) record(d *Diagnostic) *Diagnostic {
	p.diags = append(p.diags, *d)
	p.logger.Warn().
		Str("event", "config."+d.Code).
		Str("source", d.Source).
		Int("line", d.Line).
		Str("section", d.Section).
		Str("key", d.Key).
		Msg(d.Message)
	return d
}

// Parse reads r to the end, applying every line. Per-line problems, including lines
// longer than the line limit, are collected as diagnostics; only a read error stops the
// parse, leaving earlier lines applied.
func (p *Parser) Parse(r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		buf     []byte
		tooLong bool
	)
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(buf) > 0 || tooLong {
					p.finishLine(buf, tooLong)
				}
				return nil
			}
			return fmt.Errorf("read %s at line %d: %w", p.source, p.line+1, err)
		}

		if !tooLong {
			if len(buf)+len(frag) > maxLineSize {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, frag...)
			}
		}
		if isPrefix {
			continue
		}
		p.finishLine(buf, tooLong)
		buf, tooLong = buf[:0], false
	}
}

// finishLine applies one complete line, or reports it when it was over the limit.
func (p *Parser) finishLine(line []byte, tooLong bool) {
	if !tooLong {
		p.ParseLine(string(line))
		return
	}
	p.line++
	p.report(ErrCodeMalformedLine, SeverityError, p.current, "",
		fmt.Sprintf("line exceeds %d bytes; skipped", maxLineSize))
}

// Report summarizes one parse.
type Report struct {
	Source      string
	Lines       int
	Diagnostics []Diagnostic
}

// Err returns a *DiagnosticsError when the parse produced diagnostics, nil otherwise.
func (r *Report) Err() error {
	if r == nil || len(r.Diagnostics) == 0 {
		return nil
	}
	return &DiagnosticsError{Diagnostics: append([]Diagnostic(nil), r.Diagnostics...)}
}

func (p *Parser) summary() *Report {
	return &Report{
		Source:      p.source,
		Lines:       p.line,
		Diagnostics: p.Diagnostics(),
	}
}

// ParseReader applies configuration text from r to the store.
func (s *Store) ParseReader(r io.Reader, opts ...ParseOption) (*Report, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	p := NewParser(s, opts...)
	err := p.Parse(r)
	return p.summary(), err
}

// ParseFile applies the config file at path to the store. A missing or unreadable file
// is an error; per-line problems are returned in the Report.
func (s *Store) ParseFile(path string, opts ...ParseOption) (*Report, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()

	opts = append([]ParseOption{WithSourceName("file:" + filepath.Base(path))}, opts...)
	return s.ParseReader(f, opts...)
}
