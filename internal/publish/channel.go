// Package publish decides whether and where a build is published, and pushes
// every built variant to the distribution service.
package publish

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/setupship/internal/buildenv"
	"github.com/ZebulonRouseFrantzich/setupship/internal/ci"
)

// HeadSuffix is appended to channel names of mainline builds.
const HeadSuffix = "-head"

// Decision is the outcome of channel resolution.
type Decision struct {
	Publish     bool   `yaml:"publish"`
	Suffix      string `yaml:"suffix"`
	UserVersion string `yaml:"userVersion"`
	// Reason explains a skipped publish.
	Reason string `yaml:"reason,omitempty"`
}

// ResolveChannel decides how sig is published. Tags publish to stable
// channels under the tag's version, the mainline branch publishes to
// "-head" channels under the commit hash, and every other ref is skipped.
func ResolveChannel(sig ci.Signals, mainline string) Decision {
	switch {
	case sig.IsTag():
		return Decision{
			Publish:     true,
			Suffix:      "",
			UserVersion: buildenv.StripVersionPrefix(sig.Tag),
		}
	case sig.IsMainline(mainline):
		return Decision{
			Publish:     true,
			Suffix:      HeadSuffix,
			UserVersion: sig.Commit,
		}
	case sig.RefName == "":
		return Decision{Reason: "no tag or branch name available"}
	default:
		return Decision{Reason: fmt.Sprintf("not pushing non-%s branch %s", mainline, sig.RefName)}
	}
}

// ChannelName returns the remote channel for variant.
func ChannelName(variant, suffix string) string {
	return variant + suffix
}

// RemoteTarget returns "<org>/<target>:<channel>".
func RemoteTarget(org, target, channel string) string {
	return fmt.Sprintf("%s/%s:%s", org, target, channel)
}
