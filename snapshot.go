package confschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

// MaxSnapshotSize is the maximum allowed snapshot size (100MB).
const MaxSnapshotSize = 100 * 1024 * 1024

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = "1.0"

// Snapshot errors.
var (
	// ErrSnapshotTooLarge is returned when a snapshot exceeds MaxSnapshotSize.
	ErrSnapshotTooLarge = errors.New("confschema: snapshot exceeds 100MB size limit")

	// ErrNilSnapshot is returned when WriteSnapshot receives a nil snapshot.
	ErrNilSnapshot = errors.New("confschema: snapshot is nil")

	// ErrUnsupportedVersion is returned when reading a snapshot with unknown version.
	ErrUnsupportedVersion = errors.New("confschema: unsupported snapshot version")
)

// supportedVersions lists snapshot format versions that can be read.
var supportedVersions = map[string]bool{
	"1.0": true,
}

// ConfigSnapshot represents a point-in-time capture of a store.
type ConfigSnapshot struct {
	// Version is the snapshot format version (currently "1.0")
	Version string `json:"version"`

	// Timestamp is when the snapshot was created
	Timestamp time.Time `json:"timestamp"`

	// Config maps qualified keys ("sound.rate") to values. Line sections map their
	// name to the list of lines.
	Config map[string]any `json:"config"`

	// Provenance tracks the source of each property value.
	Provenance []PropertyProvenance `json:"provenance"`
}

// SnapshotOption configures snapshot creation behavior.
type SnapshotOption func(*snapshotConfig)

// snapshotConfig holds internal configuration for snapshot creation.
type snapshotConfig struct {
	excludeKeys []string // Qualified keys to exclude
}

// WithExcludeKeys excludes the given qualified keys (e.g., "sdl.mapperfile") from the snapshot.
func WithExcludeKeys(keys ...string) SnapshotOption {
	return func(cfg *snapshotConfig) {
		cfg.excludeKeys = append(cfg.excludeKeys, keys...)
	}
}

// CreateSnapshot captures the current state of store.
func CreateSnapshot(store *Store, opts ...SnapshotOption) (*ConfigSnapshot, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	snapCfg := &snapshotConfig{}
	for _, opt := range opts {
		opt(snapCfg)
	}

	return &ConfigSnapshot{
		Version:    SnapshotVersion,
		Timestamp:  time.Now().UTC(),
		Config:     applyExclusions(flattenStore(store), snapCfg.excludeKeys),
		Provenance: store.Provenance(),
	}, nil
}

// flattenStore returns qualified key → plain value for every property, and section
// name → lines for line sections.
func flattenStore(store *Store) map[string]any {
	result := make(map[string]any)
	for _, sec := range store.sections {
		if sec.kind == SectionLines {
			lines := sec.Lines()
			if lines == nil {
				lines = []string{}
			}
			result[sec.name] = lines
			continue
		}
		for _, p := range sec.props {
			result[qualify(sec.name, p.name)] = p.cur.Interface()
		}
	}
	return result
}

// applyExclusions filters out excluded keys from the config map.
// Matching is case-insensitive.
func applyExclusions(config map[string]any, exclude []string) map[string]any {
	if len(exclude) == 0 {
		return config
	}

	excludeSet := make(map[string]bool)
	for _, key := range exclude {
		excludeSet[strings.ToLower(key)] = true
	}

	result := make(map[string]any)
	for key, value := range config {
		if !excludeSet[strings.ToLower(key)] {
			result[key] = value
		}
	}
	return result
}

// ExpandPathWithTime expands template variables using the provided timestamp.
// Replaces all {{timestamp}} occurrences with the time formatted as 20060102-150405.
func ExpandPathWithTime(template string, t time.Time) string {
	timestamp := t.UTC().Format("20060102-150405")
	return strings.ReplaceAll(template, "{{timestamp}}", timestamp)
}

// WriteSnapshot persists a snapshot to disk atomically.
// Supports {{timestamp}} in path, expanded from snapshot.Timestamp so the file name
// matches the content. Returns ErrSnapshotTooLarge if the encoding exceeds 100MB.
func WriteSnapshot(snapshot *ConfigSnapshot, pathTemplate string) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}

	targetPath := ExpandPathWithTime(pathTemplate, snapshot.Timestamp)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if len(data) > MaxSnapshotSize {
		return ErrSnapshotTooLarge
	}

	dir := filepath.Dir(targetPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	if err := renameio.WriteFile(targetPath, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", targetPath, err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
// JSON numbers in Config decode as float64.
func ReadSnapshot(path string) (*ConfigSnapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot %s: %w", path, err)
	}
	if info.Size() > MaxSnapshotSize {
		return nil, ErrSnapshotTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var snap ConfigSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if !supportedVersions[snap.Version] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, snap.Version)
	}
	return &snap, nil
}
