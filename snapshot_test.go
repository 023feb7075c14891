package confschema

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCreateSnapshot(t *testing.T) {
	store := newTestStore(t)
	parseString(t, store, "[sound]\nrate=44100\n[autoexec]\nmount c .\n")

	before := time.Now().UTC()
	snap, err := CreateSnapshot(store)
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	if snap.Version != SnapshotVersion {
		t.Errorf("Version = %q, want %q", snap.Version, SnapshotVersion)
	}
	if snap.Timestamp.Before(before.Add(-time.Second)) || snap.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v, want recent UTC", snap.Timestamp)
	}

	want := map[string]any{
		"sound.rate":       int64(44100),
		"sound.enabled":    true,
		"cpu.core":         false,
		"cpu.cycles":       int64(3000),
		"cpu.type":         "auto",
		"cpu.tag":          "x",
		"sblaster.sbbase":  "220",
		"sblaster.mixer":   1.0,
		"sblaster.oplrate": nil,
		"dosbox.captures":  "capture",
		"autoexec":         []string{"mount c ."},
	}
	if diff := cmp.Diff(want, snap.Config); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}

	if len(snap.Provenance) != len(store.Keys()) {
		t.Fatalf("Provenance has %d entries, want %d", len(snap.Provenance), len(store.Keys()))
	}
	if got := snap.Provenance[0]; got != (PropertyProvenance{Key: "sound.rate", SourceName: "config", Line: 2}) {
		t.Errorf("Provenance[0] = %+v", got)
	}
}

func TestCreateSnapshot_Exclusions(t *testing.T) {
	store := newTestStore(t)

	snap, err := CreateSnapshot(store, WithExcludeKeys("CPU.Tag", "autoexec"), WithExcludeKeys("missing.key"))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"cpu.tag", "autoexec"} {
		if _, ok := snap.Config[key]; ok {
			t.Errorf("%s should be excluded", key)
		}
	}
	if _, ok := snap.Config["cpu.type"]; !ok {
		t.Error("cpu.type should be kept")
	}
}

func TestCreateSnapshot_NilStore(t *testing.T) {
	if _, err := CreateSnapshot(nil); !errors.Is(err, ErrNilStore) {
		t.Errorf("CreateSnapshot(nil) = %v, want ErrNilStore", err)
	}
}

func TestExpandPathWithTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		template string
		want     string
	}{
		{"snap-{{timestamp}}.json", "snap-20240309-130507.json"},
		{"{{timestamp}}/{{timestamp}}.json", "20240309-130507/20240309-130507.json"},
		{"plain.json", "plain.json"},
	}
	for _, tt := range tests {
		if got := ExpandPathWithTime(tt.template, ts); got != tt.want {
			t.Errorf("ExpandPathWithTime(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t)
	if err := store.SetValue("cpu", "cycles", "4000"); err != nil {
		t.Fatal(err)
	}

	snap, err := CreateSnapshot(store)
	if err != nil {
		t.Fatal(err)
	}
	snap.Timestamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	template := filepath.Join(dir, "nested", "snap-{{timestamp}}.json")
	if err := WriteSnapshot(snap, template); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	path := filepath.Join(dir, "nested", "snap-20240102-030405.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("snapshot not written at expanded path: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("snapshot permissions = %o, want 600", perm)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !got.Timestamp.Equal(snap.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, snap.Timestamp)
	}
	if got.Config["cpu.cycles"] != 4000.0 {
		t.Errorf("cpu.cycles = %#v, want 4000", got.Config["cpu.cycles"])
	}
	if diff := cmp.Diff(snap.Provenance, got.Provenance); diff != "" {
		t.Errorf("Provenance mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSnapshot_Nil(t *testing.T) {
	if err := WriteSnapshot(nil, filepath.Join(t.TempDir(), "x.json")); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("WriteSnapshot(nil) = %v, want ErrNilSnapshot", err)
	}
}

func TestReadSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()

	unsupported := filepath.Join(dir, "v9.json")
	data, _ := json.Marshal(map[string]any{"version": "9.0", "config": map[string]any{}})
	if err := os.WriteFile(unsupported, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(unsupported); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("ReadSnapshot(v9) = %v, want ErrUnsupportedVersion", err)
	}

	garbage := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(garbage, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(garbage); err == nil || !strings.Contains(err.Error(), "parse snapshot") {
		t.Errorf("ReadSnapshot(garbage) = %v", err)
	}

	if _, err := ReadSnapshot(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadSnapshot(missing) = %v, want os.ErrNotExist", err)
	}
}
