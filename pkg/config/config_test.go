package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/daimatz/tinyjvm/pkg/classfile"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[log]
verbosity = 2
file = "trace.log"

[parser]
max_attribute_depth = 2
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", c.Log.Verbosity)
	}
	if c.Log.File != "trace.log" {
		t.Errorf("log file = %q, want trace.log", c.Log.File)
	}
	if c.Parser.MaxAttributeDepth != 2 {
		t.Errorf("max attribute depth = %d, want 2", c.Parser.MaxAttributeDepth)
	}
	if c.Path != path {
		t.Errorf("path = %q, want %q", c.Path, path)
	}
	if p := c.ParserOptions(); p.MaxAttributeDepth != 2 {
		t.Errorf("parser options depth = %d, want 2", p.MaxAttributeDepth)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[log]
verbosity = 1
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Parser.MaxAttributeDepth != classfile.DefaultMaxAttributeDepth {
		t.Errorf("max attribute depth = %d, want default %d",
			c.Parser.MaxAttributeDepth, classfile.DefaultMaxAttributeDepth)
	}
	if c.Log.File != "" {
		t.Errorf("log file = %q, want empty", c.Log.File)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[log\nverbosity = 1"},
		{"unknown key", "[log]\nlevel = 3\n"},
		{"negative verbosity", "[log]\nverbosity = -1\n"},
		{"zero depth", "[parser]\nmax_attribute_depth = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[log]\nverbosity = 1\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Log.Verbosity != 1 {
		t.Errorf("log verbosity = %d, want 1", c.Log.Verbosity)
	}
	if c.Path != filepath.Join(root, FileName) {
		t.Errorf("path = %q, want config in %s", c.Path, root)
	}
}
