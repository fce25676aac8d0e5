// Package buildenv composes everything a build needs from a resolved
// BuildConfig and the CI ref signals: linker metadata, -ldflags, feature
// tags and the cross-compilation environment. The result is a Plan, a plain
// value handed to the build stage; the process environment is never
// modified.
package buildenv

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/setupship/internal/artifact"
	"github.com/ZebulonRouseFrantzich/setupship/internal/ci"
	"github.com/ZebulonRouseFrantzich/setupship/internal/config"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/resolve"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
)

// Compiler environment variables.
const (
	EnvGOOS       = "GOOS"
	EnvGOARCH     = "GOARCH"
	EnvCGOEnabled = "CGO_ENABLED"
	EnvCGOCFlags  = "CGO_CFLAGS"
	EnvCGOLDFlags = "CGO_LDFLAGS"
	// EnvLDFlags exposes the linker flags to later CI steps.
	EnvLDFlags = "CI_LDFLAGS"
)

// EnvVar is one variable set for the compiler.
type EnvVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// String returns NAME=VALUE.
func (v EnvVar) String() string {
	return v.Name + "=" + v.Value
}

// Plan is the fully composed build for one (target, OS, arch).
type Plan struct {
	Config   resolve.BuildConfig `yaml:"config"`
	Metadata LinkerMetadata      `yaml:"metadata"`

	GoArch  string   `yaml:"goArch"`
	LDFlags string   `yaml:"ldflags"`
	Tags    []string `yaml:"tags,omitempty"`
	Env     []EnvVar `yaml:"env"`

	// Binary is the output file name, relative to the working directory.
	Binary string `yaml:"binary"`
	// Resource and Syso are set for Windows builds only.
	Resource string `yaml:"resource,omitempty"`
	Syso     string `yaml:"syso,omitempty"`

	// Variant is the artifact directory name, <os>-<goArch>.
	Variant string `yaml:"variant"`

	// NativeHelperDir is set when the native helper must be rebuilt for an
	// explicitly requested arch.
	NativeHelperDir string `yaml:"nativeHelper,omitempty"`

	Sign bool `yaml:"sign"`
}

// Composer builds Plans.
type Composer struct {
	mainline string
	clock    Clock
}

// NewComposer creates a Composer. mainline is the branch whose builds are
// versioned "head".
func NewComposer(mainline string, clock Clock) *Composer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Composer{mainline: mainline, clock: clock}
}

// Metadata resolves linker metadata. The clock is read once per call.
func (c *Composer) Metadata(bc *resolve.BuildConfig, sig ci.Signals) LinkerMetadata {
	m := LinkerMetadata{
		Version: ResolveVersion(sig, c.mainline),
		Commit:  ResolveCommit(sig),
		BuiltAt: c.clock.Now().Unix(),
	}
	if bc.EmbedTarget {
		m.Target = bc.Target
	}
	return m
}

// Compose produces the build plan for bc.
func (c *Composer) Compose(bc *resolve.BuildConfig, product *config.Product, sig ci.Signals) (*Plan, error) {
	goArch, err := bc.Arch.GoArch()
	if err != nil {
		return nil, err
	}

	meta := c.Metadata(bc, sig)
	plan := &Plan{
		Config:   *bc,
		Metadata: meta,
		GoArch:   goArch,
		LDFlags:  meta.LDFlags(bc.OS),
		Tags:     append([]string(nil), product.TagsFor(bc.OS)...),
		Binary:   artifact.BinaryName(product.Name, bc.OS),
		Variant:  artifact.VariantName(bc.OS, goArch),
		Sign:     product.Signing.Enabled && bc.OS != platform.OSLinux,
	}

	if bc.OS == platform.OSWindows {
		if product.Resource == "" {
			return nil, fmt.Errorf("product %s: windows builds need a resource file", product.Name)
		}
		plan.Resource = product.Resource
		plan.Syso = strings.TrimSuffix(product.Resource, filepath.Ext(product.Resource)) + ".syso"
	}

	if bc.ArchUserSpecified && product.NativeHelperDir != "" {
		plan.NativeHelperDir = product.NativeHelperDir
	}

	plan.Env = []EnvVar{
		{EnvLDFlags, plan.LDFlags},
		{EnvGOOS, string(bc.OS)},
		{EnvGOARCH, goArch},
		{EnvCGOEnabled, "1"},
	}
	if bc.OS == platform.OSDarwin {
		if bc.Spec.MinOSVersion == "" {
			return nil, fmt.Errorf("no minimum macOS version for arch %s", bc.Arch)
		}
		minVersion := "-mmacosx-version-min=" + bc.Spec.MinOSVersion
		plan.Env = append(plan.Env,
			EnvVar{EnvCGOCFlags, minVersion},
			EnvVar{EnvCGOLDFlags, minVersion},
		)
	}

	return plan, nil
}

// Environ returns base with the plan's variables applied and the search
// path prepended to PATH.
func (p *Plan) Environ(base []string) []string {
	vars := make([]string, 0, len(p.Env)+1)
	if p.Config.SearchPath != "" {
		vars = append(vars, "PATH="+p.Config.PrependSearchPath(lookupPath(base)))
	}
	for _, v := range p.Env {
		vars = append(vars, v.String())
	}
	return runner.Environ(base, vars...)
}

// lookupPath returns the last PATH entry in env. The name is matched
// case-insensitively since Windows spells it "Path".
func lookupPath(env []string) string {
	path := ""
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(k, "PATH") {
			path = v
		}
	}
	return path
}

// BuildArgs returns the arguments for "go". -a forces a full rebuild: the
// build cache does not notice changes to the native sources compiled by cgo.
func (p *Plan) BuildArgs() []string {
	args := []string{"build", "-a", "-ldflags", p.LDFlags}
	if len(p.Tags) > 0 {
		args = append(args, "-tags", strings.Join(p.Tags, ","))
	}
	return append(args, "-o", p.Binary)
}

// WindresArgs returns the arguments for "windres", or nil outside Windows.
func (p *Plan) WindresArgs() []string {
	if p.Resource == "" {
		return nil
	}
	return []string{"-o", p.Syso, p.Resource}
}

// NativeHelperArgs returns the arguments for "npm" in NativeHelperDir.
func (p *Plan) NativeHelperArgs() []string {
	return []string{"run", "postinstall", "--", "--verbose", "--arch", string(p.Config.Arch)}
}
