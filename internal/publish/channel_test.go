package publish

import (
	"testing"

	"github.com/ZebulonRouseFrantzich/setupship/internal/ci"
)

func TestResolveChannel(t *testing.T) {
	tests := []struct {
		name string
		sig  ci.Signals
		want Decision
	}{
		{
			name: "tag",
			sig:  ci.Signals{Tag: "v9.0.0", RefName: "v9.0.0", Commit: "abc"},
			want: Decision{Publish: true, Suffix: "", UserVersion: "9.0.0"},
		},
		{
			name: "tag without prefix",
			sig:  ci.Signals{Tag: "9.0.0"},
			want: Decision{Publish: true, Suffix: "", UserVersion: "9.0.0"},
		},
		{
			name: "mainline",
			sig:  ci.Signals{RefName: "master", Commit: "abc123"},
			want: Decision{Publish: true, Suffix: HeadSuffix, UserVersion: "abc123"},
		},
		{
			name: "mainline without commit",
			sig:  ci.Signals{RefName: "master"},
			want: Decision{Publish: true, Suffix: HeadSuffix, UserVersion: ""},
		},
		{
			name: "feature branch",
			sig:  ci.Signals{RefName: "feature-x", Commit: "abc123"},
			want: Decision{Reason: "not pushing non-master branch feature-x"},
		},
		{
			name: "no signals",
			sig:  ci.Signals{},
			want: Decision{Reason: "no tag or branch name available"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveChannel(tt.sig, "master"); got != tt.want {
				t.Errorf("ResolveChannel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName("windows-amd64", HeadSuffix); got != "windows-amd64-head" {
		t.Errorf("ChannelName() = %q", got)
	}
	if got := ChannelName("darwin-arm64", ""); got != "darwin-arm64" {
		t.Errorf("ChannelName() = %q", got)
	}
}

func TestRemoteTarget(t *testing.T) {
	if got := RemoteTarget("itchio", "itch-setup", "linux-amd64-head"); got != "itchio/itch-setup:linux-amd64-head" {
		t.Errorf("RemoteTarget() = %q", got)
	}
}

func signalsForTag(tag string) ci.Signals {
	return ci.Signals{Tag: tag, RefName: tag}
}
