package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect performs platform detection and returns platform information.
// OS and architecture come from the Go runtime; platform name and version
// come from gopsutil and are informational only.
//
// If gopsutil cannot read the platform details, the platform fields are
// left empty and detection still succeeds.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      runtime.GOOS,
		ArchRaw: runtime.GOARCH,
	}

	// An unrecognized host arch is fine: the target arch never comes from
	// the host.
	if arch, err := normalizeArch(runtime.GOARCH); err == nil {
		info.Arch = arch
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform != "" {
		info.Platform = platform
		info.Version = normalizePlatform(version)
		if info.IsLinux() {
			info.Family = mapFamily(family)
		}
	}

	return info, nil
}
