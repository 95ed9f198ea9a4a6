package main

// Notes:
// - runConfigCmd: we test that the printed YAML carries the header, reflects
//   the loaded file and loads back as a valid config.

import (
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-md2lms/internal/config"
)

// ---------------------------------------------------------------------------
// TestRunConfigCmd - Effective configuration output
// ---------------------------------------------------------------------------

func TestRunConfigCmd(t *testing.T) {
	t.Parallel()

	t.Run("defaults load back", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := newTestEnv()
		if err := runConfigCmd(nil, env); err != nil {
			t.Fatalf("runConfigCmd() error = %v", err)
		}

		out := stdout.String()
		if !strings.HasPrefix(out, "# md2lms dev effective configuration\n# source: built-in defaults\n") {
			t.Errorf("header missing:\n%s", out)
		}

		path := writeFile(t, t.TempDir(), "effective.yaml", stdout.Bytes())
		cfg, _, err := config.LoadConfig(path)
		if err != nil {
			t.Fatalf("printed config does not load back: %v\n%s", err, out)
		}
		want := config.DefaultConfig().Effective()
		if !slices.Equal(cfg.Encodings(), want.Sanitize.Encodings) {
			t.Errorf("Encodings() = %v, want %v", cfg.Encodings(), want.Sanitize.Encodings)
		}
		if got := cfg.TagFilterConfig().Tags.Names(); !slices.Equal(got, cfg.Effective().TagFilterConfig().Tags.Names()) {
			t.Errorf("tag names changed on reload: %v", got)
		}
		if len(cfg.Sanitize.Characters) != len(want.Sanitize.Characters) {
			t.Errorf("got %d character replacements, want %d", len(cfg.Sanitize.Characters), len(want.Sanitize.Characters))
		}
	})

	t.Run("file values", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "lms.yaml", []byte("output:\n  defaultDir: exported\n"))
		env, stdout, _ := newTestEnv()
		if err := runConfigCmd([]string{"--config", path}, env); err != nil {
			t.Fatalf("runConfigCmd() error = %v", err)
		}
		for _, want := range []string{"# source: " + path, "defaultDir: exported", "defaultDir: md-downloads"} {
			if !strings.Contains(stdout.String(), want) {
				t.Errorf("output should contain %q, got:\n%s", want, stdout.String())
			}
		}
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := newTestEnv()
		if err := runConfigCmd([]string{"-h"}, env); err != nil {
			t.Fatalf("runConfigCmd(-h) error = %v", err)
		}
		if !strings.Contains(stdout.String(), "Usage: md2lms config") {
			t.Errorf("stdout = %q", stdout.String())
		}
	})
}
