package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
)

// Handler answers one fake invocation with stdout and an error.
type Handler func(cmd runner.Command) (string, error)

// FakeRunner records commands instead of running them. Handlers are keyed by
// command name; commands without a handler succeed with no output.
type FakeRunner struct {
	mu       sync.Mutex
	Calls    []runner.Command
	Handlers map[string]Handler
	// Missing lists tools LookPath reports as absent.
	Missing map[string]bool
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Handlers: map[string]Handler{},
		Missing:  map[string]bool{},
	}
}

// On registers a handler for name and returns the runner for chaining.
func (f *FakeRunner) On(name string, h Handler) *FakeRunner {
	f.Handlers[name] = h
	return f
}

// Run records cmd and invokes its handler.
func (f *FakeRunner) Run(ctx context.Context, cmd runner.Command) error {
	_, err := f.Output(ctx, cmd)
	return err
}

// Output records cmd and returns its handler's output.
func (f *FakeRunner) Output(ctx context.Context, cmd runner.Command) (string, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	h := f.Handlers[cmd.Name]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h == nil {
		return "", nil
	}
	return h(cmd)
}

// LookPath reports name as found unless it is listed in Missing.
func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", fmt.Errorf("%w: %s", runner.ErrToolNotFound, name)
	}
	return "/usr/bin/" + name, nil
}

// CommandLines returns every recorded command rendered as a string.
func (f *FakeRunner) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}

// Names returns the tool names invoked, in order.
func (f *FakeRunner) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		names = append(names, c.Name)
	}
	return names
}

// Find returns the first recorded command whose name ends with suffix.
func (f *FakeRunner) Find(suffix string) (runner.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.HasSuffix(c.Name, suffix) {
			return c, true
		}
	}
	return runner.Command{}, false
}

// Fail returns a handler that exits with code like a failing tool.
func Fail(code int, stderr string) Handler {
	return func(cmd runner.Command) (string, error) {
		return "", &runner.ToolError{Tool: cmd.Name, Args: cmd.Args, ExitCode: code, Stderr: stderr}
	}
}

// Reply returns a handler that prints out.
func Reply(out string) Handler {
	return func(runner.Command) (string, error) {
		return out, nil
	}
}

// StaticDetector reports a fixed host.
type StaticDetector struct {
	Info *platform.Info
	Err  error
}

// Detect returns the configured host.
func (d StaticDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return d.Info, d.Err
}

// Host returns a StaticDetector for goos with an x86_64 CPU.
func Host(goos string) StaticDetector {
	return StaticDetector{Info: &platform.Info{OS: goos, Arch: platform.ArchX8664, ArchRaw: "amd64"}}
}
