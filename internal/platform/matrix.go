package platform

import (
	"fmt"
	"sort"
)

// ArchSpec holds what one (OS, arch) pair needs from the build environment.
type ArchSpec struct {
	// PrependPath is a Unix-style directory prepended to PATH before building
	// (the MinGW toolchain on Windows). Empty means PATH is left alone.
	PrependPath string
	// MinOSVersion is the minimum OS version passed to the C compiler and
	// linker. Only meaningful on darwin.
	MinOSVersion string
}

// Matrix maps each OS to the architectures it can be built for.
type Matrix map[OS]map[Arch]ArchSpec

// Pair is one (OS, arch) combination.
type Pair struct {
	OS   OS
	Arch Arch
}

// String returns "os/arch".
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// DefaultMatrix returns the full set of buildable pairs. Products narrow it
// down with Restrict.
func DefaultMatrix() Matrix {
	return Matrix{
		OSWindows: {
			ArchI686:  {PrependPath: "/mingw32/bin"},
			ArchX8664: {PrependPath: "/mingw64/bin"},
		},
		OSLinux: {
			ArchX8664: {},
		},
		OSDarwin: {
			// arm64 requires macOS 11.0+, x86_64 can target 10.10+
			ArchX8664: {MinOSVersion: "10.10"},
			ArchARM64: {MinOSVersion: "11.0"},
		},
	}
}

// Lookup returns the spec registered for (os, arch).
func (m Matrix) Lookup(os OS, arch Arch) (ArchSpec, bool) {
	archs, ok := m[os]
	if !ok {
		return ArchSpec{}, false
	}
	spec, ok := archs[arch]
	return spec, ok
}

// HasOS reports whether any architecture is registered for os.
func (m Matrix) HasOS(os OS) bool {
	return len(m[os]) > 0
}

// Arches returns the architectures registered for os, sorted.
func (m Matrix) Arches(os OS) []Arch {
	arches := make([]Arch, 0, len(m[os]))
	for a := range m[os] {
		arches = append(arches, a)
	}
	sort.Slice(arches, func(i, j int) bool { return arches[i] < arches[j] })
	return arches
}

// Pairs returns every registered pair, sorted by OS then arch.
func (m Matrix) Pairs() []Pair {
	var pairs []Pair
	for _, os := range SupportedOSes {
		for _, a := range m.Arches(os) {
			pairs = append(pairs, Pair{OS: os, Arch: a})
		}
	}
	return pairs
}

// Restrict returns the sub-matrix containing only the given pairs. Every
// requested pair must exist in m.
func (m Matrix) Restrict(want map[OS][]Arch) (Matrix, error) {
	out := Matrix{}
	for os, arches := range want {
		for _, a := range arches {
			spec, ok := m.Lookup(os, a)
			if !ok {
				return nil, fmt.Errorf("pair %s/%s is not in the platform matrix", os, a)
			}
			if out[os] == nil {
				out[os] = map[Arch]ArchSpec{}
			}
			out[os][a] = spec
		}
	}
	return out, nil
}
