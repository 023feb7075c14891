// Package lang stores named message strings loaded from language files.
//
// Language file format:
//
//	:NAME
//	text line 1
//	text line 2
//	.
//
// A line starting with ':' opens an entry, a line that is exactly "." commits it, and
// every line in between is kept verbatim followed by a newline. Lines outside an entry
// are ignored.
package lang

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

var (
	// ErrUnknownMessage is returned by Lookup for names that were never set.
	ErrUnknownMessage = errors.New("lang: unknown message")

	// ErrUnrepresentable is returned by Write for an entry the file format cannot hold:
	// a name spanning lines, or a text line that is exactly "." or starts with ':'.
	ErrUnrepresentable = errors.New("lang: message cannot be written")
)

// Messages is a flat name → text table. Names are kept as written. Not safe for
// concurrent mutation.
type Messages struct {
	entries map[string]string
	order   []string
}

// New creates an empty table.
func New() *Messages {
	return &Messages{entries: make(map[string]string)}
}

// Set adds or replaces a message. New names are appended to the write order.
// A non-empty text is stored with a trailing newline, the form Read produces.
func (m *Messages) Set(name, text string) {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, ok := m.entries[name]; !ok {
		m.order = append(m.order, name)
	}
	m.entries[name] = text
}

// Lookup returns the text for name.
func (m *Messages) Lookup(name string) (string, error) {
	text, ok := m.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMessage, name)
	}
	return text, nil
}

// Get returns the text for name, or name itself when it has no entry, so a missing
// translation still shows something readable.
func (m *Messages) Get(name string) string {
	if text, ok := m.entries[name]; ok {
		return text
	}
	return name
}

// Len returns the number of entries.
func (m *Messages) Len() int { return len(m.entries) }

// Names returns the entry names in the order they were first set.
func (m *Messages) Names() []string {
	return append([]string(nil), m.order...)
}

// SortedNames returns the entry names in lexical order.
func (m *Messages) SortedNames() []string {
	names := m.Names()
	sort.Strings(names)
	return names
}

// Merge copies every entry of other into m, replacing existing texts.
func (m *Messages) Merge(other *Messages) {
	for _, name := range other.order {
		m.Set(name, other.entries[name])
	}
}

// Read parses language file text from r into m. Entries already in m are replaced
// when the input names them again.
func (m *Messages) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		name    string
		text    strings.Builder
		inEntry bool
	)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, ":"):
			name = line[1:]
			text.Reset()
			inEntry = true
		case line == ".":
			if inEntry {
				m.Set(name, text.String())
			}
			inEntry = false
		case inEntry:
			text.WriteString(line)
			text.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read language data: %w", err)
	}
	return nil
}

// Write serializes every entry in write order. Nothing is written when an entry would
// not read back unchanged; the error wraps ErrUnrepresentable and names the entry.
func (m *Messages) Write(w io.Writer) error {
	for _, name := range m.order {
		if err := checkEntry(name, m.entries[name]); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	for _, name := range m.order {
		bw.WriteString(":")
		bw.WriteString(name)
		bw.WriteString("\n")
		bw.WriteString(m.entries[name])
		bw.WriteString(".\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write language data: %w", err)
	}
	return nil
}

// checkEntry reports whether name and text survive a Write/Read cycle.
func checkEntry(name, text string) error {
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%w: name %q spans lines", ErrUnrepresentable, name)
	}
	if text == "" {
		return nil
	}
	for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case line == ".":
			return fmt.Errorf("%w: %s line %d is a lone '.'", ErrUnrepresentable, name, i+1)
		case strings.HasPrefix(line, ":"):
			return fmt.Errorf("%w: %s line %d starts with ':'", ErrUnrepresentable, name, i+1)
		case strings.HasSuffix(line, "\r"):
			return fmt.Errorf("%w: %s line %d ends with a carriage return", ErrUnrepresentable, name, i+1)
		}
	}
	return nil
}

// Load reads the language file at path. A missing or unreadable file is an error.
func Load(path string) (*Messages, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open language file %s: %w", path, err)
	}
	defer f.Close()

	m := New()
	if err := m.Read(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes the table to path atomically.
func (m *Messages) Save(path string) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending language file: %w", err)
	}
	defer pendingFile.Cleanup() //nolint:errcheck // no-op once committed

	if err := m.Write(pendingFile); err != nil {
		return err
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace language file: %w", err)
	}
	return nil
}
