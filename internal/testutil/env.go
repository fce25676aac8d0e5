// Package testutil provides utilities for testing setupship in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ciVariables are every CI signal the pipeline reads. Tests must not pick up
// the values of the CI job running them.
var ciVariables = []string{
	"GITHUB_REF_TYPE",
	"GITHUB_REF_NAME",
	"GITHUB_SHA",
	"CI_COMMIT_TAG",
	"CI_COMMIT_REF_NAME",
	"CI_COMMIT_SHA",
}

// Workspace is an isolated working tree for a test.
type Workspace struct {
	Root      string
	Artifacts string
	Tools     string
}

// SetupTestEnv creates an isolated workspace and clears CI variables. The
// cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) *Workspace {
	t.Helper()

	ClearCIEnv(t)

	root := t.TempDir()
	ws := &Workspace{
		Root:      root,
		Artifacts: filepath.Join(root, "artifacts"),
		Tools:     filepath.Join(root, "tools"),
	}

	for _, dir := range []string{ws.Artifacts, ws.Tools} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return ws
}

// ClearCIEnv blanks every CI signal for the duration of the test.
func ClearCIEnv(t *testing.T) {
	t.Helper()
	for _, k := range ciVariables {
		t.Setenv(k, "")
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path string, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
