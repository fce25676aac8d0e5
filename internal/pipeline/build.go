package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/setupship/internal/buildenv"
	"github.com/ZebulonRouseFrantzich/setupship/internal/ci"
	"github.com/ZebulonRouseFrantzich/setupship/internal/config"
	"github.com/ZebulonRouseFrantzich/setupship/internal/console"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/resolve"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
	"github.com/ZebulonRouseFrantzich/setupship/internal/signer"
	"github.com/ZebulonRouseFrantzich/setupship/internal/toolchain"
	"github.com/ZebulonRouseFrantzich/setupship/internal/verify"
)

// BuildResult describes a finished build.
type BuildResult struct {
	Plan      *buildenv.Plan `yaml:"plan"`
	Imports   *verify.Report `yaml:"imports,omitempty"`
	Signed    bool           `yaml:"signed"`
	Installed string         `yaml:"installed"`
}

// Plan resolves opts and composes the build without running any tool
// other than the search path translation.
func (p *Pipeline) Plan(ctx context.Context, opts resolve.Options, sig ci.Signals) (*buildenv.Plan, *config.Product, error) {
	bc, product, err := p.resolver.Resolve(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	plan, err := p.composer.Compose(bc, product, sig)
	if err != nil {
		return nil, nil, err
	}
	return plan, product, nil
}

// Build runs every build stage for one (target, OS, arch). The first
// failing stage aborts the build.
func (p *Pipeline) Build(ctx context.Context, opts resolve.Options, sig ci.Signals) (*BuildResult, error) {
	p.console.Header("Gathering configuration")
	plan, product, err := p.Plan(ctx, opts, sig)
	if err != nil {
		return nil, err
	}
	p.describe(plan)

	env := plan.Environ(p.baseEnv)
	result := &BuildResult{Plan: plan}

	p.console.Header("Showing tool versions")
	if plan.NativeHelperDir != "" {
		if err := p.showVersion(ctx, env, "node", "--version"); err != nil {
			return nil, err
		}
	}
	if err := p.showVersion(ctx, env, "go", "version"); err != nil {
		return nil, err
	}

	if plan.NativeHelperDir != "" {
		p.console.Header("Rebuilding native helper")
		if err := p.run(ctx, env, plan.NativeHelperDir, "npm", plan.NativeHelperArgs()...); err != nil {
			return nil, err
		}
	}

	if args := plan.WindresArgs(); args != nil {
		p.console.Header("Compiling resources")
		if err := p.run(ctx, env, "", "windres", args...); err != nil {
			return nil, err
		}
		p.describeFile(ctx, env, plan.Syso)
	}

	p.console.Header("Building native code")
	if err := p.run(ctx, env, "", "go", plan.BuildArgs()...); err != nil {
		return nil, err
	}
	p.describeFile(ctx, env, plan.Binary)

	binary := p.path(plan.Binary)

	if plan.Config.OS == platform.OSWindows {
		p.console.Header("Verifying imports")
		report, err := p.verifyImports(ctx, env, binary)
		result.Imports = report
		if err != nil {
			return result, err
		}
	}

	if plan.Sign {
		if s := signer.For(plan.Config.OS, product.Signing, p.runnerIn(env), p.logger); s != nil {
			p.console.Header("Signing")
			if err := s.Sign(ctx, binary); err != nil {
				return result, err
			}
			result.Signed = true
		}
	}

	p.console.Header("Installing artifact")
	installed, err := p.layout.Install(binary, plan.Config.Target, plan.Variant)
	if err != nil {
		return result, err
	}
	result.Installed = installed
	p.console.Success("Installed %s", installed)

	return result, nil
}

func (p *Pipeline) describe(plan *buildenv.Plan) {
	bc := plan.Config
	if bc.OSUserSpecified {
		p.console.Printf("Using user-specified OS %s", console.Value(bc.OS))
	} else {
		p.console.Printf("Using detected OS %s (use --os to override)", console.Value(bc.OS))
	}
	if bc.ArchUserSpecified {
		p.console.Printf("Using user-specified arch %s", console.Value(bc.Arch))
	} else {
		p.console.Printf("Using default arch %s (use --arch to override)", console.Value(bc.Arch))
	}
	if bc.SearchPath != "" {
		p.console.Printf("Prepending %s (aka %s) to $PATH", console.Value(bc.Spec.PrependPath), console.Value(bc.SearchPath))
	}
	p.console.Printf("Version %s, commit %s", console.Value(plan.Metadata.Version), console.Value(plan.Metadata.Commit))
	p.logger.Debug("composed plan", "ldflags", plan.LDFlags, "tags", plan.Tags, "variant", plan.Variant)
}

// showVersion runs a tool's version command and prints the version it
// reports alongside the raw line.
func (p *Pipeline) showVersion(ctx context.Context, env []string, name string, args ...string) error {
	out, err := p.runner.Output(ctx, runner.Command{Name: name, Args: args, Dir: p.path(""), Env: env})
	if err != nil {
		return err
	}
	version, err := toolchain.ExtractVersion(out)
	if err != nil {
		version = toolchain.UnknownVersion
	}
	p.console.Printf("%s %s (%s)", name, console.Value(version), strings.TrimSpace(out))
	return nil
}

// describeFile prints what "file" says about path. It is diagnostic only.
func (p *Pipeline) describeFile(ctx context.Context, env []string, path string) {
	if err := p.run(ctx, env, "", "file", path); err != nil {
		p.logger.Warn("file inspection failed", "path", path, "error", err)
	}
}

func (p *Pipeline) verifyImports(ctx context.Context, env []string, binary string) (*verify.Report, error) {
	inspector := p.inspector
	if inspector == nil {
		inspector = verify.DefaultInspector(p.runnerIn(env))
	}
	p.console.Printf("Verifying that we don't rely on %s", verify.ForbiddenSymbol)

	report, err := verify.NewVerifier(inspector, p.logger).Verify(ctx, binary)
	if report != nil {
		for _, w := range report.Warnings {
			p.console.Warn("Could not parse line: %s", w)
		}
		p.console.Printf("Found COM methods %s", joinOrNone(report.Symbols))
	}

	var compatErr *verify.CompatibilityError
	if errors.As(err, &compatErr) {
		p.console.Failure("Check failed: %s", compatErr.Error())
	}
	return report, err
}

// run executes name inside dir (relative to the work dir) with env.
func (p *Pipeline) run(ctx context.Context, env []string, dir, name string, args ...string) error {
	return p.runner.Run(ctx, runner.Command{
		Name: name,
		Args: args,
		Dir:  p.path(dir),
		Env:  env,
	})
}

// runnerIn returns a Runner that executes tools with env in the work dir.
func (p *Pipeline) runnerIn(env []string) runner.Runner {
	return envRunner{Runner: p.runner, env: env, dir: p.workDir}
}

func (p *Pipeline) path(rel string) string {
	return resolvePath(p.workDir, rel)
}

func resolvePath(base, rel string) string {
	if rel == "" {
		return base
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(base, rel)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// envRunner fills in Env and Dir for commands that leave them empty.
type envRunner struct {
	runner.Runner
	env []string
	dir string
}

func (r envRunner) Run(ctx context.Context, cmd runner.Command) error {
	return r.Runner.Run(ctx, r.fill(cmd))
}

func (r envRunner) Output(ctx context.Context, cmd runner.Command) (string, error) {
	return r.Runner.Output(ctx, r.fill(cmd))
}

// LookPath resolves name on the PATH of env, falling back to the wrapped
// Runner.
func (r envRunner) LookPath(name string) (string, error) {
	if path := runner.SearchPath(r.env, name); path != "" {
		return path, nil
	}
	return r.Runner.LookPath(name)
}

func (r envRunner) fill(cmd runner.Command) runner.Command {
	if cmd.Env == nil {
		cmd.Env = r.env
	}

	if cmd.Dir == "" {
		cmd.Dir = r.dir
	}
	return cmd
}

