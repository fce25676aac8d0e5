// Package platform describes the operating systems and CPU architectures that
// setupship can build for, and detects the host it is running on.
//
// The Matrix type is the single source of truth for which (OS, arch) pairs are
// buildable and what each pair needs from the build environment (a search-path
// prefix for the toolchain, a minimum OS version for the linker). Host
// detection uses runtime.GOOS plus gopsutil for diagnostics, and the detected
// host can be injected into Lua release configs as a read-only table.
package platform

import (
	"context"
	"fmt"
)

// OS is a target operating system identifier.
type OS string

const (
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
	OSDarwin  OS = "darwin"
)

// SupportedOSes lists every OS identifier the pipeline understands, in
// display order.
var SupportedOSes = []OS{OSLinux, OSWindows, OSDarwin}

// String returns the string representation of the OS.
func (o OS) String() string {
	return string(o)
}

// ParseOS returns the OS for s, or false if s is not a supported identifier.
func ParseOS(s string) (OS, bool) {
	for _, o := range SupportedOSes {
		if string(o) == s {
			return o, true
		}
	}
	return "", false
}

// Arch is a target CPU architecture identifier, using the toolchain-neutral
// naming of the release scripts (i686, x86_64, arm64).
type Arch string

const (
	ArchI686  Arch = "i686"
	ArchX8664 Arch = "x86_64"
	ArchARM64 Arch = "arm64"
)

// DefaultArch is used when no architecture is given explicitly.
const DefaultArch = ArchX8664

// KnownArches lists every architecture identifier the pipeline understands.
var KnownArches = []Arch{ArchI686, ArchX8664, ArchARM64}

// goArches maps release arch names to GOARCH values.
var goArches = map[Arch]string{
	ArchI686:  "386",
	ArchX8664: "amd64",
	ArchARM64: "arm64",
}

// String returns the string representation of the architecture.
func (a Arch) String() string {
	return string(a)
}

// ParseArch returns the Arch for s, or false if s is not a known identifier.
func ParseArch(s string) (Arch, bool) {
	for _, a := range KnownArches {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// GoArch returns the GOARCH value the Go toolchain uses for this architecture.
func (a Arch) GoArch() (string, error) {
	goArch, ok := goArches[a]
	if !ok {
		return "", fmt.Errorf("unsupported arch: %s", a)
	}
	return goArch, nil
}

// Info contains host platform detection information.
type Info struct {
	OS       string // runtime.GOOS
	Arch     Arch   // normalized arch, empty if the host arch is not a build arch
	ArchRaw  string // runtime.GOARCH
	Platform string // platform ID from gopsutil (e.g. "ubuntu", "darwin")
	Family   string // canonical Linux family, empty elsewhere
	Version  string // platform version (e.g. "22.04", "14.4")
}

// IsLinux returns true if the host is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == string(OSLinux)
}

// IsMacOS returns true if the host is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == string(OSDarwin)
}

// IsWindows returns true if the host is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == string(OSWindows)
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.IsMacOS() && i.Arch == ArchARM64
}

// Detector is the interface for host platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
