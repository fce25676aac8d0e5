package buildenv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZebulonRouseFrantzich/setupship/internal/ci"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
)

const (
	// FallbackVersion is embedded when neither a tag nor a non-mainline ref
	// name is available.
	FallbackVersion = "head"

	// FallbackCommit is embedded when no commit hash is available.
	FallbackCommit = "no-commit"
)

// LinkerMetadata is the build information substituted into the binary's
// main package at link time.
type LinkerMetadata struct {
	Version string `yaml:"version"`
	Commit  string `yaml:"commit"`
	BuiltAt int64  `yaml:"builtAt"`
	// Target is empty for single-product configs.
	Target string `yaml:"target,omitempty"`
}

// StripVersionPrefix removes one leading "v" from a tag.
func StripVersionPrefix(tag string) string {
	return strings.TrimPrefix(tag, "v")
}

// ResolveVersion picks the version string: the exact tag without its "v"
// prefix, else the ref name unless it is the mainline branch, else "head".
func ResolveVersion(sig ci.Signals, mainline string) string {
	if sig.IsTag() {
		return StripVersionPrefix(sig.Tag)
	}
	if sig.RefName != "" && sig.RefName != mainline {
		return sig.RefName
	}
	return FallbackVersion
}

// ResolveCommit returns the commit hash or "no-commit".
func ResolveCommit(sig ci.Signals) string {
	if sig.Commit != "" {
		return sig.Commit
	}
	return FallbackCommit
}

// LDFlags renders the -ldflags value for targetOS: metadata substitutions,
// symbol stripping, and on Windows the GUI subsystem with a statically
// linked C runtime.
func (m LinkerMetadata) LDFlags(targetOS platform.OS) string {
	flags := []string{
		fmt.Sprintf("-X main.version=%s", m.Version),
		fmt.Sprintf("-X main.builtAt=%s", strconv.FormatInt(m.BuiltAt, 10)),
		fmt.Sprintf("-X main.commit=%s", m.Commit),
	}
	if m.Target != "" {
		flags = append(flags, fmt.Sprintf("-X main.target=%s", m.Target))
	}
	flags = append(flags, "-w", "-s")
	if targetOS == platform.OSWindows {
		flags = append(flags, "-H", "windowsgui", "-extldflags=-static")
	}
	return strings.Join(flags, " ")
}
