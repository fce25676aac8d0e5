package binary

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
)

// DefaultBrothURL is the base URL of the broth download service.
const DefaultBrothURL = "https://broth.itch.zone"

// ButlerChannel returns the broth channel for host, "<os>-<goarch>".
func ButlerChannel(host *platform.Info) (string, error) {
	if host == nil {
		return "", fmt.Errorf("platform info is required")
	}
	if _, ok := platform.ParseOS(host.OS); !ok {
		return "", fmt.Errorf("unsupported host OS: %s", host.OS)
	}
	if host.Arch == "" {
		return "", fmt.Errorf("unsupported host arch: %s", host.ArchRaw)
	}
	goArch, err := host.Arch.GoArch()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", host.OS, goArch), nil
}

// ButlerSource returns the source of the latest head build of butler for
// host.
// Pattern: {base}/butler/{os}-{goarch}-head/LATEST/.zip
func ButlerSource(baseURL string, host *platform.Info) (Source, error) {
	channel, err := ButlerChannel(host)
	if err != nil {
		return Source{}, err
	}
	if baseURL == "" {
		baseURL = DefaultBrothURL
	}
	return Source{
		Tool:    ToolButler,
		Channel: channel,
		URL:     fmt.Sprintf("%s/butler/%s-head/LATEST/.zip", baseURL, channel),
	}, nil
}

// ExecutableName returns the file name of tool on the host.
func ExecutableName(tool Tool, hostOS string) string {
	if hostOS == string(platform.OSWindows) {
		return tool.String() + ".exe"
	}
	return tool.String()
}
