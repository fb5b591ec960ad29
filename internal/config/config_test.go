package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, FileName, `
search_paths: [lib, vendor]
max_steps: 5000
max_stack: 1024
verbose: true
history_file: hist
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &Config{
		SearchPaths: []string{"lib", "vendor"},
		MaxSteps:    5000,
		MaxStack:    1024,
		Verbose:     true,
		HistoryFile: "hist",
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreFields(Config{}, "Path")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if !filepath.IsAbs(cfg.Path) {
		t.Errorf("expected an absolute config path, got %q", cfg.Path)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, FileName, "max_steps: 10\n")
	writeFile(t, dir, ".env", "EXPRESSO_NO_COLOR=true\nEXPRESSO_MAX_STEPS=20\n")
	t.Setenv("EXPRESSO_MAX_STEPS", "30")
	t.Setenv("EXPRESSO_SEARCH_PATHS", "a"+string(os.PathListSeparator)+"b")
	// godotenv sets variables for the rest of the process
	t.Cleanup(func() { os.Unsetenv("EXPRESSO_NO_COLOR") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxSteps != 30 {
		t.Errorf("expected the process environment to win, got max_steps=%d", cfg.MaxSteps)
	}
	if !cfg.NoColor {
		t.Errorf("expected no_color from .env")
	}
	if diff := cmp.Diff([]string{"a", "b"}, cfg.SearchPaths); diff != "" {
		t.Errorf("search paths mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		expected string
	}{
		{"unknown key", "colour: red\n", nil, "field colour not found"},
		{"negative steps", "max_steps: -1\n", nil, "max_steps must not be negative"},
		{"empty path", "search_paths: ['']\n", nil, "search_paths[0] must be a non-empty path"},
		{"bad env int", "", map[string]string{"EXPRESSO_MAX_STACK": "big"}, "EXPRESSO_MAX_STACK must be an integer"},
		{"bad env bool", "", map[string]string{"EXPRESSO_VERBOSE": "maybe"}, "EXPRESSO_VERBOSE must be a boolean"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			chdir(t, dir)
			writeFile(t, dir, FileName, test.file)
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), test.expected) {
				t.Errorf("expected %q, got %v", test.expected, err)
			}
		})
	}
}

func TestExplicitMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load("nope.yml"); err == nil {
		t.Errorf("expected an error for a missing explicit config")
	}
}

func TestValidationErrorListsEveryIssue(t *testing.T) {
	cfg := &Config{MaxSteps: -1}
	err := cfg.Validate()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
	want := []string{
		"max_steps must not be negative",
		"max_stack must be positive",
		"search_paths must list at least one directory",
	}
	if diff := cmp.Diff(want, verr.Issues); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}
