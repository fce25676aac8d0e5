// Package pipeline runs the release stages in order. Build resolves the
// target, composes the build environment, compiles, verifies, signs and
// installs one variant. Deploy, run later and separately, resolves the
// channel and pushes every installed variant.
package pipeline

import (
	"context"
	"io"
	"log/slog"

	"github.com/ZebulonRouseFrantzich/setupship/internal/artifact"
	"github.com/ZebulonRouseFrantzich/setupship/internal/binary"
	"github.com/ZebulonRouseFrantzich/setupship/internal/buildenv"
	"github.com/ZebulonRouseFrantzich/setupship/internal/config"
	"github.com/ZebulonRouseFrantzich/setupship/internal/console"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/resolve"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
	"github.com/ZebulonRouseFrantzich/setupship/internal/toolchain"
	"github.com/ZebulonRouseFrantzich/setupship/internal/verify"
)

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Config   *config.Config
	Detector platform.Detector
	Runner   runner.Runner
	Clock    buildenv.Clock
	Console  *console.Console
	Logger   *slog.Logger

	// WorkDir is the repository checkout the build runs in.
	WorkDir string
	// BaseEnv is the environment tools inherit, usually os.Environ().
	BaseEnv []string
	// Inspector overrides import inspection; nil picks objdump or debug/pe.
	Inspector verify.Inspector
}

// Pipeline runs build and deploy stages.
type Pipeline struct {
	cfg      *config.Config
	detector platform.Detector
	runner   runner.Runner
	resolver *resolve.Resolver
	composer *buildenv.Composer
	probe    *toolchain.Probe
	layout   artifact.Layout
	console  *console.Console
	logger   *slog.Logger

	workDir   string
	baseEnv   []string
	inspector verify.Inspector
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := deps.Console
	if out == nil {
		out = console.New(io.Discard)
	}
	workDir := deps.WorkDir
	if workDir == "" {
		workDir = "."
	}

	return &Pipeline{
		cfg:       deps.Config,
		detector:  deps.Detector,
		runner:    deps.Runner,
		resolver:  resolve.NewResolver(deps.Config, deps.Detector, deps.Runner, logger),
		composer:  buildenv.NewComposer(deps.Config.Mainline, deps.Clock),
		probe:     toolchain.NewProbe(deps.Runner, logger),
		layout:    artifact.NewLayout(resolvePath(workDir, deps.Config.ArtifactsDir)),
		console:   out,
		logger:    logger,
		workDir:   workDir,
		baseEnv:   deps.BaseEnv,
		inspector: deps.Inspector,
	}
}

// Layout returns the artifact tree the pipeline writes to and reads from.
func (p *Pipeline) Layout() artifact.Layout {
	return p.layout
}

// Tools reports every external tool the pipeline may call. butler is
// reported from the tools directory when a deploy has fetched it there.
func (p *Pipeline) Tools(ctx context.Context) ([]toolchain.Tool, error) {
	tools, err := p.probe.Query(ctx, toolchain.KnownTools...)
	if err != nil {
		return nil, err
	}

	mgr, _, err := p.toolManager(ctx, DeployOptions{})
	if err != nil {
		return nil, err
	}
	installed, err := mgr.IsInstalled(binary.ToolButler)
	if err != nil {
		return nil, err
	}
	if installed {
		for i := range tools {
			if tools[i].Name == binary.ToolButler.String() {
				tools[i] = p.probe.Inspect(ctx, tools[i].Name, mgr.ToolPath(binary.ToolButler))
			}
		}
	}
	return tools, nil
}
