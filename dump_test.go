package confschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func TestDump_Text(t *testing.T) {
	store := newTestStore(t)
	parseString(t, store, "[cpu]\ncycles=5000\n[autoexec]\nmount c .\nc:\n")

	var buf bytes.Buffer
	if err := Dump(&buf, store); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	want := `sound.rate: 22050
sound.enabled: true
cpu.core: false
cpu.cycles: 5000
cpu.type: "auto"
cpu.tag: "x"
sblaster.sbbase: "220"
sblaster.mixer: 1
sblaster.oplrate: <null>
dosbox.captures: "capture"
autoexec: [mount c ., c:]
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Dump() mismatch (-want +got):\n%s", diff)
	}
}

func TestDump_WithSourcesAndDefaults(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.ParseReader(strings.NewReader("[cpu]\ncycles=5000\n"), WithSourceName("file:dosbox.conf")); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, store, WithSources(), WithDefaults()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"cpu.cycles: 5000 (default: 3000) (source: file:dosbox.conf:2)\n",
		"sound.rate: 22050 (default: 22050) (source: default)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump output missing %q:\n%s", want, out)
		}
	}
}

func TestDump_JSON(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendLine("autoexec", "mount c ."); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, store, AsJSON()); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	want := map[string]any{
		"sound":    map[string]any{"rate": 22050.0, "enabled": true},
		"cpu":      map[string]any{"core": false, "cycles": 3000.0, "type": "auto", "tag": "x"},
		"sblaster": map[string]any{"sbbase": "220", "mixer": 1.0, "oplrate": nil},
		"dosbox":   map[string]any{"captures": "capture"},
		"autoexec": []any{"mount c ."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON dump mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "\n  \"") {
		t.Errorf("JSON dump should use two-space indent by default:\n%s", buf.String())
	}
}

func TestDump_JSONCompact(t *testing.T) {
	store := newTestStore(t)

	var buf bytes.Buffer
	if err := Dump(&buf, store, AsJSON(), WithIndent("")); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("compact JSON should be a single line, got %d newlines", n)
	}
}

func TestDump_TOML(t *testing.T) {
	store := newTestStore(t)

	var buf bytes.Buffer
	if err := Dump(&buf, store, AsTOML()); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := toml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid TOML: %v\n%s", err, buf.String())
	}
	sblaster, ok := got["sblaster"].(map[string]any)
	if !ok {
		t.Fatalf("sblaster table missing:\n%s", buf.String())
	}
	if _, ok := sblaster["oplrate"]; ok {
		t.Error("Null property must be omitted from TOML output")
	}
	if sblaster["sbbase"] != "220" {
		t.Errorf("sblaster.sbbase = %#v, want \"220\"", sblaster["sbbase"])
	}
	cpu := got["cpu"].(map[string]any)
	if cpu["cycles"] != int64(3000) {
		t.Errorf("cpu.cycles = %#v, want 3000", cpu["cycles"])
	}
}

func TestDump_YAML(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetValue("sound", "rate", "44100"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, store, AsYAML()); err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, buf.String())
	}
	got := map[string]map[string]any{}
	for name, v := range raw {
		if m, ok := v.(map[string]any); ok {
			got[name] = m
		}
	}
	if got["sound"]["rate"] != 44100 {
		t.Errorf("sound.rate = %#v, want 44100", got["sound"]["rate"])
	}
	if v, ok := got["sblaster"]["oplrate"]; !ok || v != nil {
		t.Errorf("sblaster.oplrate = %#v, %v, want nil present", v, ok)
	}
	if lines, ok := raw["autoexec"].([]any); !ok || len(lines) != 0 {
		t.Errorf("autoexec = %#v, want empty list", raw["autoexec"])
	}
}

func TestDump_NilStore(t *testing.T) {
	var buf bytes.Buffer
	if err := Dump(&buf, nil); err != ErrNilStore {
		t.Errorf("Dump(nil) = %v, want ErrNilStore", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

var errWriteFailed = errors.New("write failed")

func TestDump_WriteError(t *testing.T) {
	store := newTestStore(t)
	for name, opts := range map[string][]DumpOption{
		"text": nil,
		"json": {AsJSON()},
		"toml": {AsTOML()},
	} {
		if err := Dump(failingWriter{}, store, opts...); err == nil {
			t.Errorf("%s: Dump to failing writer returned nil", name)
		}
	}
}
