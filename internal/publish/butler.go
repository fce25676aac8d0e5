package publish

import (
	"context"
	"fmt"

	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
)

// Push is one upload of a variant directory.
type Push struct {
	Target      string `yaml:"target"`
	Variant     string `yaml:"variant"`
	Dir         string `yaml:"dir"`
	Remote      string `yaml:"remote"`
	UserVersion string `yaml:"userVersion"`
}

// Pusher uploads variant directories.
type Pusher interface {
	Push(ctx context.Context, p Push) error
}

// Butler pushes with the butler command-line tool.
type Butler struct {
	// Path is the butler executable.
	Path   string
	Runner runner.Runner
}

// Args returns the butler arguments for p.
func (b *Butler) Args(p Push) []string {
	return []string{"push", "--userversion", p.UserVersion, p.Dir, p.Remote}
}

// Push runs "butler push".
func (b *Butler) Push(ctx context.Context, p Push) error {
	return b.Runner.Run(ctx, runner.Command{Name: b.Path, Args: b.Args(p)})
}

// PrintVersion runs "butler -V" with output streamed to the runner.
func (b *Butler) PrintVersion(ctx context.Context) error {
	if err := b.Runner.Run(ctx, runner.Command{Name: b.Path, Args: []string{"-V"}}); err != nil {
		return fmt.Errorf("butler version: %w", err)
	}
	return nil
}
