// Package toolchain reports which external tools the pipeline can reach and
// what versions they are.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
)

// UnknownVersion is reported when a tool runs but prints no version.
const UnknownVersion = "unknown"

var versionRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)

// ExtractVersion extracts a semantic version from command output.
func ExtractVersion(output string) (string, error) {
	match := versionRegex.FindString(output)
	if match == "" {
		return "", fmt.Errorf("no version found in output")
	}
	return match, nil
}

// versionArgs holds the version flag of each tool the pipeline invokes.
var versionArgs = map[string][]string{
	"node":    {"--version"},
	"go":      {"version"},
	"windres": {"--version"},
	"file":    {"--version"},
	"objdump": {"--version"},
	"npm":     {"--version"},
	"cygpath": {"--version"},
	"butler":  {"-V"},
}

// KnownTools lists the tools Query reports on by default, in pipeline order.
var KnownTools = []string{"node", "go", "windres", "file", "objdump", "npm", "cygpath", "butler"}

// Tool is one probed executable.
type Tool struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path,omitempty"`
	Version string `yaml:"version,omitempty"`
	Found   bool   `yaml:"found"`
	Raw     string `yaml:"-"`
}

// Probe looks tools up through a Runner.
type Probe struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewProbe creates a Probe.
func NewProbe(r runner.Runner, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Probe{runner: r, logger: logger}
}

// Query probes each named tool. Missing tools are reported, not returned as
// errors; only cancellation stops the probe.
func (p *Probe) Query(ctx context.Context, names ...string) ([]Tool, error) {
	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tools = append(tools, p.probe(ctx, name))
	}
	return tools, nil
}

// Version runs name's version command and returns the raw output together
// with the extracted version.
func (p *Probe) Version(ctx context.Context, name string) (raw, version string, err error) {
	return p.versionAt(ctx, name, name)
}

// versionAt runs the version command of name through the executable at
// command, which may be a bare name or a path.
func (p *Probe) versionAt(ctx context.Context, name, command string) (raw, version string, err error) {
	args, ok := versionArgs[name]
	if !ok {
		args = []string{"--version"}
	}
	raw, err = p.runner.Output(ctx, runner.Command{Name: command, Args: args})
	if err != nil {
		return "", "", err
	}
	version, err = ExtractVersion(raw)
	if err != nil {
		return raw, UnknownVersion, nil
	}
	return raw, version, nil
}

func (p *Probe) probe(ctx context.Context, name string) Tool {
	tool := Tool{Name: name}

	path, err := p.runner.LookPath(name)
	if err != nil {
		if !errors.Is(err, runner.ErrToolNotFound) {
			p.logger.Debug("tool lookup failed", "tool", name, "error", err)
		}
		return tool
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	tool.Path = path
	return p.describe(ctx, tool, name)
}

// Inspect reports the tool installed at path, outside of PATH.
func (p *Probe) Inspect(ctx context.Context, name, path string) Tool {
	return p.describe(ctx, Tool{Name: name, Path: path}, path)
}

func (p *Probe) describe(ctx context.Context, tool Tool, command string) Tool {
	name := tool.Name
	tool.Found = true

	raw, version, err := p.versionAt(ctx, name, command)
	if err != nil {
		p.logger.Debug("version query failed", "tool", name, "error", err)
		tool.Version = UnknownVersion
		return tool
	}
	tool.Raw = raw
	tool.Version = version
	return tool
}
