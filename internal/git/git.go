// Package git reads ref information from a local checkout with go-git. It is
// the fallback for CI signals when a job does not export them.
package git

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Common Git errors
var (
	ErrNotAGitRepo  = errors.New("not a git repository")
	ErrInvalidRepo  = errors.New("invalid git repository")
	ErrDetachedHead = errors.New("HEAD is detached")
	ErrNoTag        = errors.New("no tag points at HEAD")
)

// Repo is the interface for read-only ref queries.
type Repo interface {
	IsGitRepo(ctx context.Context) (bool, error)
	HeadCommit(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	TagAtHead(ctx context.Context) (string, error)
}

// Client implements the Repo interface.
type Client struct {
	repoPath string // Path inside the git repository
}

// NewClient creates a new Git client for the given path. Parent directories
// are searched for the repository root.
func NewClient(repoPath string) *Client {
	return &Client{
		repoPath: repoPath,
	}
}

func (c *Client) open(ctx context.Context) (*gogit.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(c.repoPath, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotAGitRepo, c.repoPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// IsGitRepo checks if the path is inside a valid git repository.
// Returns (true, nil) if valid, (false, nil) if not a repository, (false, err) if corrupted.
func (c *Client) IsGitRepo(ctx context.Context) (bool, error) {
	_, err := c.open(ctx)
	if errors.Is(err, ErrNotAGitRepo) {
		return false, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		return false, fmt.Errorf("%w: %s", ErrInvalidRepo, err.Error())
	}
	return true, nil
}

// HeadCommit returns the commit hash of HEAD.
func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	repo, err := c.open(ctx)
	if err != nil {
		return "", err
	}

	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	return ref.Hash().String(), nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := c.open(ctx)
	if err != nil {
		return "", err
	}

	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	if !ref.Name().IsBranch() {
		return "", ErrDetachedHead
	}

	return ref.Name().Short(), nil
}

// TagAtHead returns the name of a tag pointing at HEAD. Lightweight and
// annotated tags both count. When several tags match, the greatest name wins.
func (c *Client) TagAtHead(ctx context.Context) (string, error) {
	repo, err := c.open(ctx)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	var matches []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tag, err := repo.TagObject(ref.Hash()); err == nil {
			commit, err := tag.Commit()
			if err != nil {
				// tags on trees or blobs never match a commit
				return nil
			}
			target = commit.Hash
		}
		if target == head.Hash() {
			matches = append(matches, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan tags: %w", err)
	}

	if len(matches) == 0 {
		return "", ErrNoTag
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
