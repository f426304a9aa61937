package inspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ochairo/apigather/internal/domain/entities"
	"github.com/ochairo/apigather/internal/domain/interfaces"
)

// writeSource lays out a fake installed library under dir
func writeSource(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0640); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func inspectTree(t *testing.T, files map[string]string) *entities.GatherResult {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, files)

	inspector := NewInspector(&interfaces.NoOpLogger{})
	result, err := inspector.Inspect(&entities.Installation{
		Library: "example.com/mylib",
		Version: "v2.2.0",
		Dir:     dir,
	})
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	return result
}

func TestInspector_ExportedOnly(t *testing.T) {
	result := inspectTree(t, map[string]string{
		"doc.go": `// Package mylib does things.
package mylib

const Version = "2.2.0"

var Debug bool

var hidden int

type Client struct{}

type option func(*Client)

func New(addr string) (*Client, error) { return nil, nil }

func helper() {}

func (c *Client) Close() error { return nil }
`,
	})

	want := map[string]string{
		"mylib.Version": "const",
		"mylib.Debug":   "var",
		"mylib.Client":  "type",
		"mylib.New":     "func",
	}

	if len(result.Symbols) != len(want) {
		t.Errorf("Symbols count = %d, want %d: %v", len(result.Symbols), len(want), result.Symbols)
	}
	for name, kind := range want {
		info, ok := result.Symbols[name]
		if !ok {
			t.Errorf("missing symbol %s", name)
			continue
		}
		if info.Kind != kind {
			t.Errorf("symbol %s kind = %s, want %s", name, info.Kind, kind)
		}
	}
	for _, excluded := range []string{"mylib.hidden", "mylib.option", "mylib.helper", "mylib.Close"} {
		if _, ok := result.Symbols[excluded]; ok {
			t.Errorf("symbol %s should not be gathered", excluded)
		}
	}

	if result.Version != "2.2.0" {
		t.Errorf("Version = %s, want 2.2.0 (leading v stripped)", result.Version)
	}
}

func TestInspector_NestedPackages(t *testing.T) {
	result := inspectTree(t, map[string]string{
		"mylib.go":           "package mylib\n\nfunc A() {}\n",
		"encoding/form.go":   "package encoding\n\nfunc Decode() {}\n",
		"internal/util.go":   "package internal\n\nfunc Secret() {}\n",
		"vendor/dep.go":      "package dep\n\nfunc Vendored() {}\n",
		"testdata/fixture.go": "package fixture\n\nfunc Fixture() {}\n",
		"_attic/old.go":      "package old\n\nfunc Old() {}\n",
		"cmd/tool/main.go":   "package main\n\nfunc Run() {}\n",
	})

	if _, ok := result.Symbols["mylib.A"]; !ok {
		t.Errorf("missing root package symbol mylib.A: %v", result.Symbols)
	}
	if _, ok := result.Symbols["mylib.encoding.Decode"]; !ok {
		t.Errorf("missing nested package symbol mylib.encoding.Decode: %v", result.Symbols)
	}

	for _, excluded := range []string{
		"mylib.internal.Secret",
		"mylib.vendor.dep.Vendored",
		"mylib.testdata.Fixture",
		"mylib._attic.Old",
		"mylib.cmd.tool.Run",
	} {
		if _, ok := result.Symbols[excluded]; ok {
			t.Errorf("symbol %s should not be gathered", excluded)
		}
	}
}

func TestInspector_SkipsUnparsableFile(t *testing.T) {
	result := inspectTree(t, map[string]string{
		"good.go":   "package mylib\n\nfunc Good() {}\n",
		"broken.go": "package mylib\n\nfunc Broken( {}\n",
	})

	if _, ok := result.Symbols["mylib.Good"]; !ok {
		t.Errorf("good file should still be gathered: %v", result.Symbols)
	}
	if _, ok := result.Symbols["mylib.Broken"]; ok {
		t.Error("broken file should be skipped")
	}
}

func TestInspector_SkipsTestAndHiddenFiles(t *testing.T) {
	result := inspectTree(t, map[string]string{
		"mylib.go":      "package mylib\n\nfunc A() {}\n",
		"mylib_test.go": "package mylib\n\nfunc TestOnly() {}\n",
		"_gen.go":       "package mylib\n\nfunc Generated() {}\n",
		"notes.txt":     "not go source",
	})

	if len(result.Symbols) != 1 {
		t.Errorf("Symbols = %v, want only mylib.A", result.Symbols)
	}
}

func TestInspector_FuncSignature(t *testing.T) {
	result := inspectTree(t, map[string]string{
		"mylib.go": "package mylib\n\nfunc Parse(s string) (int, error) { return 0, nil }\n",
	})

	info, ok := result.Symbols["mylib.Parse"]
	if !ok {
		t.Fatalf("missing symbol mylib.Parse: %v", result.Symbols)
	}
	if info.Signature != "func(s string) (int, error)" {
		t.Errorf("Signature = %q, want %q", info.Signature, "func(s string) (int, error)")
	}
}
