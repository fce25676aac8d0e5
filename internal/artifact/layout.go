// Package artifact owns the directory tree shared by the build and deploy
// stages:
//
//	<root>/<target>/<os>-<goArch>/<binary>
//
// The build stage writes one variant directory per job; the deploy stage
// treats every subdirectory of <root>/<target> as a variant and never
// recomputes the architecture mapping.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
)

// ErrNoArtifacts is returned when a target has no artifact directory.
var ErrNoArtifacts = errors.New("no artifacts")

// Layout locates artifacts under Root.
type Layout struct {
	Root string
}

// NewLayout creates a Layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// VariantName returns the variant directory name for an OS and a compiler
// architecture identifier (GOARCH, not the release arch name).
func VariantName(targetOS platform.OS, goArch string) string {
	return fmt.Sprintf("%s-%s", targetOS, goArch)
}

// BinaryName returns the file name of target's binary on targetOS.
func BinaryName(target string, targetOS platform.OS) string {
	if targetOS == platform.OSWindows {
		return target + ".exe"
	}
	return target
}

// TargetDir returns <root>/<target>.
func (l Layout) TargetDir(target string) string {
	return filepath.Join(l.Root, target)
}

// VariantDir returns <root>/<target>/<variant>.
func (l Layout) VariantDir(target, variant string) string {
	return filepath.Join(l.Root, target, variant)
}

// Install copies the binary at src into the variant directory, replacing
// any previous copy. It returns the installed path.
func (l Layout) Install(src, target, variant string) (string, error) {
	dir := l.VariantDir(target, variant)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create variant directory: %w", err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat binary: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("binary %s is a directory", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open binary: %w", err)
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src))
	if err := writeAtomic(dst, in, info.Mode().Perm()|0o111); err != nil {
		return "", fmt.Errorf("install %s: %w", filepath.Base(src), err)
	}
	return dst, nil
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return writeAtomic(path, bytes.NewReader(data), perm)
}

// Variants returns the variant directory names under <root>/<target>,
// sorted. Plain files are ignored.
func (l Layout) Variants(target string) ([]string, error) {
	entries, err := os.ReadDir(l.TargetDir(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for %s in %s", ErrNoArtifacts, target, l.Root)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifacts: %w", err)
	}

	var variants []string
	for _, e := range entries {
		if e.IsDir() {
			variants = append(variants, e.Name())
		}
	}
	sort.Strings(variants)
	return variants, nil
}
