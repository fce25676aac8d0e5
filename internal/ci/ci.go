// Package ci collects the ref signals that decide version strings and
// publish channels: the exact tag being built, the ref's human name and the
// commit hash.
package ci

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ZebulonRouseFrantzich/setupship/internal/git"
)

// Provider names the source of a set of signals.
type Provider string

const (
	ProviderNone   Provider = ""
	ProviderGitHub Provider = "github"
	ProviderGitLab Provider = "gitlab"
	ProviderLocal  Provider = "git"
)

// GitHub Actions variables.
const (
	EnvGitHubRefType = "GITHUB_REF_TYPE"
	EnvGitHubRefName = "GITHUB_REF_NAME"
	EnvGitHubSHA     = "GITHUB_SHA"
)

// GitLab CI variables.
const (
	EnvGitLabTag     = "CI_COMMIT_TAG"
	EnvGitLabRefName = "CI_COMMIT_REF_NAME"
	EnvGitLabSHA     = "CI_COMMIT_SHA"
)

// Signals is what a CI job knows about the ref it builds. Empty fields mean
// the signal is absent.
type Signals struct {
	Tag      string   `yaml:"tag,omitempty"`
	RefName  string   `yaml:"refName,omitempty"`
	Commit   string   `yaml:"commit,omitempty"`
	Provider Provider `yaml:"provider,omitempty"`
}

// IsTag reports whether the ref being built is an exact tag.
func (s Signals) IsTag() bool {
	return s.Tag != ""
}

// IsMainline reports whether the ref is the mainline branch.
func (s Signals) IsMainline(mainline string) bool {
	return !s.IsTag() && s.RefName != "" && s.RefName == mainline
}

// Empty reports whether no signal is present.
func (s Signals) Empty() bool {
	return s.Tag == "" && s.RefName == "" && s.Commit == ""
}

// FromEnv reads signals from the process environment.
func FromEnv() Signals {
	return FromLookup(os.Getenv)
}

// FromLookup reads signals through getenv. GitHub Actions variables win
// over GitLab CI variables when both are set.
func FromLookup(getenv func(string) string) Signals {
	if refName := getenv(EnvGitHubRefName); refName != "" || getenv(EnvGitHubSHA) != "" {
		s := Signals{
			RefName:  refName,
			Commit:   getenv(EnvGitHubSHA),
			Provider: ProviderGitHub,
		}
		if getenv(EnvGitHubRefType) == "tag" {
			s.Tag = refName
		}
		return s
	}

	tag := getenv(EnvGitLabTag)
	refName := getenv(EnvGitLabRefName)
	sha := getenv(EnvGitLabSHA)
	if tag != "" || refName != "" || sha != "" {
		if refName == "" {
			refName = tag
		}
		return Signals{
			Tag:      tag,
			RefName:  refName,
			Commit:   sha,
			Provider: ProviderGitLab,
		}
	}

	return Signals{}
}

// FromRepo derives signals from a local checkout. A detached HEAD leaves
// RefName empty; no tag at HEAD leaves Tag empty.
func FromRepo(ctx context.Context, repo git.Repo) (Signals, error) {
	commit, err := repo.HeadCommit(ctx)
	if err != nil {
		return Signals{}, fmt.Errorf("read HEAD commit: %w", err)
	}
	s := Signals{Commit: commit, Provider: ProviderLocal}

	tag, err := repo.TagAtHead(ctx)
	switch {
	case err == nil:
		s.Tag = tag
		s.RefName = tag
	case errors.Is(err, git.ErrNoTag):
	default:
		return Signals{}, fmt.Errorf("read tags: %w", err)
	}

	if s.RefName == "" {
		branch, err := repo.CurrentBranch(ctx)
		switch {
		case err == nil:
			s.RefName = branch
		case errors.Is(err, git.ErrDetachedHead):
		default:
			return Signals{}, fmt.Errorf("read branch: %w", err)
		}
	}

	return s, nil
}

// Merge fills the fields missing from primary with those of fallback. The
// provider of the result is primary's unless primary was empty.
func Merge(primary, fallback Signals) Signals {
	if primary.Empty() {
		return fallback
	}
	out := primary
	if out.RefName == "" && out.Tag == "" {
		out.Tag = fallback.Tag
		out.RefName = fallback.RefName
	}
	if out.Commit == "" {
		out.Commit = fallback.Commit
	}
	return out
}
