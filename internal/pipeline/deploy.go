package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/setupship/internal/binary"
	"github.com/ZebulonRouseFrantzich/setupship/internal/ci"
	"github.com/ZebulonRouseFrantzich/setupship/internal/console"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/publish"
)

// DeployOptions configure a deploy run.
type DeployOptions struct {
	// Targets to push; empty means every configured product.
	Targets []string
	DryRun  bool

	// BrothURL overrides the butler download service.
	BrothURL string
	// KeyringPath and ChecksumURL enable verification of the butler archive.
	KeyringPath  string
	SignatureURL string
	ChecksumURL  string
	// Progress receives a download progress bar when non-nil.
	Progress io.Writer
}

// DeployResult describes a finished deploy.
type DeployResult struct {
	Decision publish.Decision `yaml:"decision"`
	Butler   string           `yaml:"butler,omitempty"`
	Pushes   *publish.Result  `yaml:"pushes,omitempty"`
}

// Deploy pushes every installed variant of the selected targets. Refs that
// are neither a tag nor the mainline branch are skipped without error.
func (p *Pipeline) Deploy(ctx context.Context, opts DeployOptions, sig ci.Signals) (*DeployResult, error) {
	p.console.Header("Resolving channel")
	decision := publish.ResolveChannel(sig, p.cfg.Mainline)
	result := &DeployResult{Decision: decision}
	if !decision.Publish {
		p.console.Printf("%s", decision.Reason)
		return result, nil
	}
	p.console.Printf("Publishing user version %s to channels with suffix %s",
		console.Value(decision.UserVersion), console.Value(fmt.Sprintf("%q", decision.Suffix)))

	targets, err := p.deployTargets(opts.Targets)
	if err != nil {
		return result, err
	}

	var pusher publish.Pusher
	if !opts.DryRun {
		butler, err := p.fetchButler(ctx, opts)
		if err != nil {
			return result, err
		}
		result.Butler = butler.Path
		pusher = butler
	}

	p.console.Header("Pushing variants")
	publisher := publish.NewPublisher(p.layout, p.cfg.Organization, pusher, opts.DryRun, p.logger)
	pushes, err := publisher.Publish(ctx, targets, decision)
	result.Pushes = pushes
	if pushes != nil {
		for _, push := range pushes.Pushed {
			p.console.Success("%s -> %s", push.Dir, push.Remote)
		}
		for _, push := range pushes.Failed {
			p.console.Failure("%s -> %s failed", push.Dir, push.Remote)
		}
	}
	return result, err
}

func (p *Pipeline) deployTargets(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return p.cfg.ProductNames(), nil
	}
	for _, t := range requested {
		if _, ok := p.cfg.Product(t); !ok {
			return nil, fmt.Errorf("unknown target %q", t)
		}
	}
	return requested, nil
}

// fetchButler downloads butler into the tools directory and prints its
// version.
func (p *Pipeline) fetchButler(ctx context.Context, opts DeployOptions) (*publish.Butler, error) {
	p.console.Header("Fetching butler")

	mgr, host, err := p.toolManager(ctx, opts)
	if err != nil {
		return nil, err
	}
	src, err := binary.ButlerSource(opts.BrothURL, host)
	if err != nil {
		return nil, err
	}
	src.SignatureURL = opts.SignatureURL
	src.ChecksumURL = opts.ChecksumURL

	fetched, err := mgr.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	p.console.Printf("Fetched %s (verification: %s)", console.Value(fetched.Path), fetched.Verified)

	butler := &publish.Butler{Path: fetched.Path, Runner: p.runner}
	if err := butler.PrintVersion(ctx); err != nil {
		return nil, err
	}
	return butler, nil
}

// toolManager returns the manager of the configured tools directory for the
// build host.
func (p *Pipeline) toolManager(ctx context.Context, opts DeployOptions) (*binary.Manager, *platform.Info, error) {
	host, err := p.detector.Detect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("detect host: %w", err)
	}
	mgr, err := binary.NewManager(binary.Config{
		ToolsDir:    resolvePath(p.workDir, p.cfg.ToolsDir),
		HostOS:      host.OS,
		KeyringPath: opts.KeyringPath,
		Progress:    opts.Progress,
		Logger:      p.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return mgr, host, nil
}
