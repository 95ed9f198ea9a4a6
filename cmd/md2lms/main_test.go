package main

// Notes:
// - runMain: we test dispatch and exit codes for each command. Conversions
//   run against temp directories; the default-directory case relies on
//   md-downloads not existing in the package directory.
// - main() itself is not tested: it only wires os.Args, signals and os.Exit.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestIsCommand - Command name matching
// ---------------------------------------------------------------------------

func TestIsCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg  string
		want bool
	}{
		{"convert", true},
		{"config", true},
		{"help", true},
		{"version", true},
		{"docs", false},
		{"--help", false},
		{"", false},
		{"Convert", false},
	}

	for _, tt := range tests {
		if got := isCommand(tt.arg); got != tt.want {
			t.Errorf("isCommand(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestHasVerboseFlag - Pre-parse flag scan
// ---------------------------------------------------------------------------

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "short", args: []string{"convert", "-v"}, want: true},
		{name: "long", args: []string{"--verbose", "in", "out"}, want: true},
		{name: "absent", args: []string{"convert", "-q"}, want: false},
		{name: "after terminator", args: []string{"--", "-v"}, want: false},
		{name: "empty", args: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := hasVerboseFlag(tt.args); got != tt.want {
				t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain - Main entry point exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		args         []string
		wantCode     int
		wantInStdout []string
		wantInStderr []string
	}{
		{
			name:         "version command exits 0",
			args:         []string{"md2lms", "version"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"md2lms dev"},
		},
		{
			name:         "help command exits 0",
			args:         []string{"md2lms", "help"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: md2lms", "Commands:"},
		},
		{
			name:         "top-level help flag",
			args:         []string{"md2lms", "--help"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: md2lms", "Commands:"},
		},
		{
			name:         "help convert shows convert help",
			args:         []string{"md2lms", "help", "convert"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: md2lms convert"},
		},
		{
			name:         "convert help flag",
			args:         []string{"md2lms", "convert", "--help"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: md2lms convert", "--no-final-pass"},
		},
		{
			name:         "help for unknown command",
			args:         []string{"md2lms", "help", "docs"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"Unknown command: docs"},
		},
		{
			name:         "single positional argument",
			args:         []string{"md2lms", "only-input"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"invalid usage", "Run 'md2lms help'"},
		},
		{
			name:         "unknown flag",
			args:         []string{"md2lms", "convert", "--bogus"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"unknown flag"},
		},
		{
			name:         "too many workers",
			args:         []string{"md2lms", "convert", "-w", "99", "in", "out"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"invalid worker count"},
		},
		{
			name:         "invalid log level",
			args:         []string{"md2lms", "--log-level", "loud", "in", "out"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"log.level"},
		},
		{
			name:         "missing named config",
			args:         []string{"md2lms", "--config", "no-such-config-md2lms", "in", "out"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"config file not found", "hint:"},
		},
		{
			name:         "default directories missing",
			args:         []string{"md2lms"},
			wantCode:     ExitIO,
			wantInStderr: []string{"md-downloads", "md2lms <input_dir> <output_dir>"},
		},
		{
			name:         "config command prints yaml",
			args:         []string{"md2lms", "config"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"# source: built-in defaults", "allowedTags:", "windows-1252"},
		},
		{
			name:         "config command rejects arguments",
			args:         []string{"md2lms", "config", "extra"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"config takes no arguments"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv()
			code := runMain(context.Background(), tt.args, env)

			if code != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, stderr.String())
			}
			for _, want := range tt.wantInStdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout should contain %q, got %q", want, stdout.String())
				}
			}
			for _, want := range tt.wantInStderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr should contain %q, got %q", want, stderr.String())
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Convert - End-to-end conversion of a directory
// ---------------------------------------------------------------------------

func TestRunMain_Convert(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "html")

	writeFile(t, in, "a.md", []byte("# Title\n\n*emph* and **bold**\n"))
	writeFile(t, in, "b.md", []byte("caf\xe9 \x93ok\x94\n"))
	writeFile(t, in, "unit1/c.markdown", []byte("- one\n- two\n"))
	writeFile(t, in, "image.png", []byte{0x89, 'P', 'N', 'G'})

	for _, args := range [][]string{
		{"md2lms", in, out},
		{"md2lms", "convert", "-w", "2", in, out},
	} {
		env, stdout, stderr := newTestEnv()
		if code := runMain(context.Background(), args, env); code != ExitSuccess {
			t.Fatalf("runMain(%v) = %d, stderr: %s", args, code, stderr.String())
		}

		report := stdout.String()
		for _, want := range []string{
			"Input directory:  " + in,
			"Found 3 Markdown files to convert...",
			"Converting: a.md -> a.html",
			"Note: Read b.md using windows-1252 encoding",
			"Successfully converted: 3 files",
			"Failed to convert: 0 files",
			"Processed and sanitized: 3 files",
			"HTML files saved in: " + out,
		} {
			if !strings.Contains(report, want) {
				t.Errorf("stdout should contain %q, got:\n%s", want, report)
			}
		}
	}

	if got := readFile(t, filepath.Join(out, "a.html")); !strings.Contains(got, "<h2>Title</h2>") || !strings.Contains(got, "<em>emph</em>") {
		t.Errorf("a.html = %q, want h2 heading and em", got)
	}
	if got := readFile(t, filepath.Join(out, "b.html")); !strings.Contains(got, "café \"ok\"") {
		t.Errorf("b.html = %q, want decoded and normalized text", got)
	}
	if got := readFile(t, filepath.Join(out, "unit1", "c.html")); !strings.Contains(got, "<p>one</p>") || strings.Contains(got, "<li") {
		t.Errorf("unit1/c.html = %q, want flattened list", got)
	}
	if _, err := os.Stat(filepath.Join(out, "image.html")); !os.IsNotExist(err) {
		t.Errorf("image.png should not be converted, stat error = %v", err)
	}
}

func TestRunMain_EmptyInputDirectory(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "html")

	env, stdout, stderr := newTestEnv()
	if code := runMain(context.Background(), []string{"md2lms", in, out}, env); code != ExitSuccess {
		t.Fatalf("runMain() = %d, stderr: %s", code, stderr.String())
	}
	if want := "No Markdown files found in '" + in + "'."; !strings.Contains(stdout.String(), want) {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunMain_Cancelled(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "html")
	writeFile(t, in, "a.md", []byte("text"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env, _, _ := newTestEnv()
	if code := runMain(ctx, []string{"md2lms", in, out}, env); code != ExitGeneral {
		t.Errorf("runMain() = %d, want %d", code, ExitGeneral)
	}
	if _, err := os.Stat(filepath.Join(out, "a.html")); !os.IsNotExist(err) {
		t.Errorf("a.html written despite cancellation, stat error = %v", err)
	}
}
