package main

// Notes:
// - This file contains test helpers and mocks used across command tests.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	md2lms "github.com/alnah/go-md2lms"
	"github.com/alnah/go-md2lms/internal/config"
)

// ---------------------------------------------------------------------------
// Environment - Captured output
// ---------------------------------------------------------------------------

// newTestEnv returns an environment writing to buffers, with a fixed clock
// and the built-in configuration.
func newTestEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		Config: config.DefaultConfig(),
	}
	return env, &stdout, &stderr
}

// writeFile creates path under dir, with its parents.
func writeFile(t *testing.T, dir, rel string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Mock Implementations - For unit testing
// ---------------------------------------------------------------------------

// mockConverter records the inputs it sees and returns a fixed result.
type mockConverter struct {
	mu       sync.Mutex
	html     string
	encoding string
	err      error
	failOn   string // Input name that fails with err; empty = all fail when err is set
	names    []string

	normalized int
	normErr    error
	normDirs   []string
}

func (m *mockConverter) Convert(_ context.Context, input md2lms.Input) (*md2lms.Result, error) {
	m.mu.Lock()
	m.names = append(m.names, input.Name)
	m.mu.Unlock()

	if m.err != nil && (m.failOn == "" || m.failOn == input.Name) {
		return nil, m.err
	}
	enc := m.encoding
	if enc == "" {
		enc = "utf-8"
	}
	return &md2lms.Result{Name: input.Name, HTML: []byte(m.html), Encoding: enc}, nil
}

func (m *mockConverter) NormalizeDirectory(_ context.Context, dir string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.normDirs = append(m.normDirs, dir)
	return m.normalized, m.normErr
}

func (m *mockConverter) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}
