package ci

import (
	"context"
	"errors"
	"testing"

	"github.com/ZebulonRouseFrantzich/setupship/internal/git"
)

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromLookup(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Signals
	}{
		{
			name: "nothing set",
			env:  map[string]string{},
			want: Signals{},
		},
		{
			name: "github tag",
			env: map[string]string{
				EnvGitHubRefType: "tag",
				EnvGitHubRefName: "v2.3.1",
				EnvGitHubSHA:     "abc123",
			},
			want: Signals{Tag: "v2.3.1", RefName: "v2.3.1", Commit: "abc123", Provider: ProviderGitHub},
		},
		{
			name: "github branch",
			env: map[string]string{
				EnvGitHubRefType: "branch",
				EnvGitHubRefName: "feature-x",
				EnvGitHubSHA:     "abc123",
			},
			want: Signals{RefName: "feature-x", Commit: "abc123", Provider: ProviderGitHub},
		},
		{
			name: "gitlab tag",
			env: map[string]string{
				EnvGitLabTag:     "v1.0.0",
				EnvGitLabRefName: "v1.0.0",
				EnvGitLabSHA:     "def456",
			},
			want: Signals{Tag: "v1.0.0", RefName: "v1.0.0", Commit: "def456", Provider: ProviderGitLab},
		},
		{
			name: "gitlab tag without ref name",
			env:  map[string]string{EnvGitLabTag: "v1.0.0"},
			want: Signals{Tag: "v1.0.0", RefName: "v1.0.0", Provider: ProviderGitLab},
		},
		{
			name: "gitlab master",
			env: map[string]string{
				EnvGitLabRefName: "master",
				EnvGitLabSHA:     "def456",
			},
			want: Signals{RefName: "master", Commit: "def456", Provider: ProviderGitLab},
		},
		{
			name: "github wins over gitlab",
			env: map[string]string{
				EnvGitHubRefName: "master",
				EnvGitLabTag:     "v9.9.9",
			},
			want: Signals{RefName: "master", Provider: ProviderGitHub},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromLookup(lookup(tt.env)); got != tt.want {
				t.Errorf("FromLookup() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	for _, k := range []string{EnvGitHubRefType, EnvGitHubRefName, EnvGitHubSHA, EnvGitLabTag, EnvGitLabRefName, EnvGitLabSHA} {
		t.Setenv(k, "")
	}
	t.Setenv(EnvGitLabRefName, "master")

	got := FromEnv()
	if got.RefName != "master" || got.Provider != ProviderGitLab {
		t.Errorf("FromEnv() = %+v", got)
	}
}

func TestSignals_Predicates(t *testing.T) {
	tag := Signals{Tag: "v1.0.0", RefName: "v1.0.0"}
	if !tag.IsTag() || tag.IsMainline("master") {
		t.Errorf("tag predicates wrong: %+v", tag)
	}

	master := Signals{RefName: "master"}
	if master.IsTag() || !master.IsMainline("master") {
		t.Errorf("master predicates wrong: %+v", master)
	}
	if master.IsMainline("main") {
		t.Error("master is not mainline when mainline is main")
	}

	if !(Signals{}).Empty() {
		t.Error("zero Signals should be empty")
	}
	if (Signals{}).IsMainline("") {
		t.Error("absent ref name is never mainline")
	}
}

type fakeRepo struct {
	commit    string
	commitErr error
	branch    string
	branchErr error
	tag       string
	tagErr    error
}

func (f *fakeRepo) IsGitRepo(ctx context.Context) (bool, error)       { return true, nil }
func (f *fakeRepo) HeadCommit(ctx context.Context) (string, error)    { return f.commit, f.commitErr }
func (f *fakeRepo) CurrentBranch(ctx context.Context) (string, error) { return f.branch, f.branchErr }
func (f *fakeRepo) TagAtHead(ctx context.Context) (string, error)     { return f.tag, f.tagErr }

func TestFromRepo(t *testing.T) {
	tests := []struct {
		name    string
		repo    *fakeRepo
		want    Signals
		wantErr bool
	}{
		{
			name: "tagged",
			repo: &fakeRepo{commit: "c1", tag: "v1.2.3", branch: "master"},
			want: Signals{Tag: "v1.2.3", RefName: "v1.2.3", Commit: "c1", Provider: ProviderLocal},
		},
		{
			name: "branch",
			repo: &fakeRepo{commit: "c1", tagErr: git.ErrNoTag, branch: "feature-x"},
			want: Signals{RefName: "feature-x", Commit: "c1", Provider: ProviderLocal},
		},
		{
			name: "detached",
			repo: &fakeRepo{commit: "c1", tagErr: git.ErrNoTag, branchErr: git.ErrDetachedHead},
			want: Signals{Commit: "c1", Provider: ProviderLocal},
		},
		{
			name:    "head error",
			repo:    &fakeRepo{commitErr: git.ErrNotAGitRepo},
			wantErr: true,
		},
		{
			name:    "tag error",
			repo:    &fakeRepo{commit: "c1", tagErr: errors.New("corrupt")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRepo(context.Background(), tt.repo)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromRepo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FromRepo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	local := Signals{Tag: "v1.0.0", RefName: "v1.0.0", Commit: "local", Provider: ProviderLocal}

	tests := []struct {
		name    string
		primary Signals
		want    Signals
	}{
		{
			name:    "empty primary",
			primary: Signals{},
			want:    local,
		},
		{
			name:    "commit only",
			primary: Signals{Commit: "ci", Provider: ProviderGitHub},
			want:    Signals{Tag: "v1.0.0", RefName: "v1.0.0", Commit: "ci", Provider: ProviderGitHub},
		},
		{
			name:    "ref only",
			primary: Signals{RefName: "master", Provider: ProviderGitLab},
			want:    Signals{RefName: "master", Commit: "local", Provider: ProviderGitLab},
		},
		{
			name:    "complete primary",
			primary: Signals{RefName: "master", Commit: "ci", Provider: ProviderGitLab},
			want:    Signals{RefName: "master", Commit: "ci", Provider: ProviderGitLab},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.primary, local); got != tt.want {
				t.Errorf("Merge() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
