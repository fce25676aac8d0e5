// Package resolve turns build options into a validated BuildConfig: it picks
// the target OS (detected unless overridden), the arch (x86_64 unless
// overridden) and the product, and checks the pair against the product's
// platform matrix before any build step runs.
package resolve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ZebulonRouseFrantzich/setupship/internal/config"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
)

// BuildConfig is the validated configuration for one build.
type BuildConfig struct {
	OS     platform.OS   `yaml:"os"`
	Arch   platform.Arch `yaml:"arch"`
	Target string        `yaml:"target"`

	// Diagnostic only.
	OSUserSpecified   bool `yaml:"osUserSpecified"`
	ArchUserSpecified bool `yaml:"archUserSpecified"`

	// EmbedTarget is set for multi-product configs, whose binaries carry
	// their target id.
	EmbedTarget bool `yaml:"embedTarget"`

	Spec platform.ArchSpec `yaml:"-"`

	// SearchPath is Spec.PrependPath in the host's native form (translated
	// by cygpath on Windows). Empty when nothing is prepended.
	SearchPath string `yaml:"searchPath,omitempty"`
}

// PathListSeparator returns the separator for PATH entries on the build
// host. Windows targets are built on Windows hosts.
func (b *BuildConfig) PathListSeparator() string {
	if b.OS == platform.OSWindows {
		return ";"
	}
	return ":"
}

// PrependSearchPath returns path with SearchPath in front.
func (b *BuildConfig) PrependSearchPath(path string) string {
	if b.SearchPath == "" {
		return path
	}
	if path == "" {
		return b.SearchPath
	}
	return b.SearchPath + b.PathListSeparator() + path
}

// Resolver validates build options against the product table.
type Resolver struct {
	cfg      *config.Config
	detector platform.Detector
	runner   runner.Runner
	logger   *slog.Logger
}

// NewResolver creates a Resolver. The runner translates search paths with
// cygpath for Windows builds.
func NewResolver(cfg *config.Config, detector platform.Detector, r runner.Runner, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{cfg: cfg, detector: detector, runner: r, logger: logger}
}

// Resolve validates opts and returns the build configuration together with
// the selected product.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (*BuildConfig, *config.Product, error) {
	bc := &BuildConfig{
		OSUserSpecified:   opts.OSSet,
		ArchUserSpecified: opts.ArchSet,
		EmbedTarget:       r.cfg.MultiProduct(),
	}

	osName := opts.OS
	if !opts.OSSet {
		info, err := r.detector.Detect(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("detect host OS: %w", err)
		}
		osName = info.OS
	}
	targetOS, ok := platform.ParseOS(osName)
	if !ok {
		return nil, nil, configErrorf("unsupported OS %q", osName)
	}
	bc.OS = targetOS

	bc.Arch = platform.DefaultArch
	if opts.ArchSet {
		arch, ok := platform.ParseArch(opts.Arch)
		if !ok {
			return nil, nil, configErrorf("unsupported arch %q", opts.Arch)
		}
		bc.Arch = arch
	}

	product, err := r.selectProduct(opts.Target)
	if err != nil {
		return nil, nil, err
	}
	bc.Target = product.Name

	if opts.OSSet {
		r.logger.Info("using user-specified OS", "os", bc.OS)
	} else {
		r.logger.Info("using detected OS (use --os to override)", "os", bc.OS)
	}
	if opts.ArchSet {
		r.logger.Info("using user-specified arch", "arch", bc.Arch)
	} else {
		r.logger.Info("using default arch (use --arch to override)", "arch", bc.Arch)
	}

	matrix, err := product.Matrix()
	if err != nil {
		return nil, nil, fmt.Errorf("product %s: %w", product.Name, err)
	}
	if !matrix.HasOS(bc.OS) {
		return nil, nil, configErrorf("unsupported OS %q for target %q", bc.OS, product.Name)
	}
	spec, ok := matrix.Lookup(bc.OS, bc.Arch)
	if !ok {
		return nil, nil, configErrorf("unsupported arch %q for os %q", bc.Arch, bc.OS)
	}
	bc.Spec = spec
	r.logger.Debug("matrix entry", "os", bc.OS, "arch", bc.Arch, "prependPath", spec.PrependPath, "minOS", spec.MinOSVersion)

	if spec.PrependPath != "" {
		searchPath, err := r.nativeSearchPath(ctx, bc.OS, spec.PrependPath)
		if err != nil {
			return nil, nil, err
		}
		bc.SearchPath = searchPath
		r.logger.Info("prepending to PATH", "path", spec.PrependPath, "native", searchPath)
	}

	return bc, product, nil
}

func (r *Resolver) selectProduct(target string) (*config.Product, error) {
	if r.cfg.MultiProduct() {
		if target == "" {
			return nil, configErrorf("missing target")
		}
	} else if target == "" {
		return &r.cfg.Products[0], nil
	}

	product, ok := r.cfg.Product(target)
	if !ok {
		return nil, configErrorf("unsupported target %q (expected one of %s)", target, strings.Join(r.cfg.ProductNames(), ", "))
	}
	return product, nil
}

// nativeSearchPath translates a Unix-style directory for the build host.
// Windows builds run under MSYS2, where cygpath maps /mingw64/bin to a
// Windows path.
func (r *Resolver) nativeSearchPath(ctx context.Context, targetOS platform.OS, dir string) (string, error) {
	if targetOS != platform.OSWindows {
		return dir, nil
	}
	out, err := r.runner.Output(ctx, runner.Command{Name: "cygpath", Args: []string{"-w", dir}})
	if err != nil {
		return "", fmt.Errorf("translate search path %s: %w", dir, err)
	}
	native := strings.TrimSpace(out)
	if native == "" {
		return "", fmt.Errorf("translate search path %s: cygpath returned nothing", dir)
	}
	return native, nil
}
