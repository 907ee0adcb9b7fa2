package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/snykops/orgreap/cmd/orgreap/internal/config"
	"github.com/snykops/orgreap/purge"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader(t *testing.T) {
	t.Parallel()

	t.Run("loads valid config", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeConfig(t, dir, "version: \"1\"\nregions:\n  SNYK-GOV-01: https://api.gov.example.test\nretry:\n  attempts: 6\n")

		cfg, err := config.NewLoader().Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Regions["SNYK-GOV-01"] != "https://api.gov.example.test" {
			t.Errorf("unexpected regions: %v", cfg.Regions)
		}
		if cfg.RetryPolicy().Attempts != 6 {
			t.Errorf("unexpected attempts: %d", cfg.RetryPolicy().Attempts)
		}
	})

	t.Run("strict mode rejects unknown fields", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeConfig(t, dir, "version: \"1\"\nunknown: value\n")

		_, err := config.NewLoader().Load(path)
		if err == nil {
			t.Fatal("expected error for unknown field, got nil")
		}
		if !errors.Is(err, purge.ErrConfiguration) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})

	t.Run("rejects invalid version", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeConfig(t, dir, "version: \"2\"\n")

		if _, err := config.NewLoader().Load(path); err == nil {
			t.Fatal("expected error for invalid version, got nil")
		}
	})

	t.Run("rejects non-url region endpoints", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeConfig(t, dir, "version: \"1\"\nregions:\n  SNYK-BAD-01: not a url\n")

		if _, err := config.NewLoader().Load(path); err == nil {
			t.Fatal("expected error for invalid endpoint, got nil")
		}
	})

	t.Run("rejects out-of-range retry attempts", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeConfig(t, dir, "version: \"1\"\nretry:\n  attempts: 20\n")

		if _, err := config.NewLoader().Load(path); err == nil {
			t.Fatal("expected error for out-of-range attempts, got nil")
		}
	})
}

func TestFind(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Find(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Version != "1" {
			t.Errorf("unexpected default config: %+v", cfg)
		}
		if cfg.RetryPolicy() != purge.DefaultRetryPolicy() {
			t.Errorf("expected default retry policy, got %+v", cfg.RetryPolicy())
		}
	})

	t.Run("finds the file in a parent directory", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeConfig(t, root, "version: \"1\"\nlisting:\n  wait_budget_seconds: 30\n")
		nested := filepath.Join(root, "a", "b")
		if err := os.MkdirAll(nested, 0o755); err != nil {
			t.Fatal(err)
		}

		cfg, err := config.Find(nested)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ListBackoff().WaitBudget != 30*time.Second {
			t.Errorf("unexpected wait budget: %s", cfg.ListBackoff().WaitBudget)
		}
	})
}
