package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
)

// Config is the complete release configuration: where artifacts live, which
// branch is mainline, and the product descriptor table.
type Config struct {
	// Organization owning the products on the distribution service.
	Organization string `yaml:"organization"`

	// Mainline is the branch whose builds publish to "-head" channels.
	Mainline string `yaml:"mainline"`

	// ArtifactsDir is the root of the artifact tree shared by build and deploy.
	ArtifactsDir string `yaml:"artifactsDir"`

	// ToolsDir receives the distribution tool before publishing.
	ToolsDir string `yaml:"toolsDir"`

	Products []Product `yaml:"products"`
}

// Product describes one installer binary built from this repository.
type Product struct {
	// Name is the target identifier: binary name, artifact directory and
	// distribution project all derive from it.
	Name string `yaml:"name"`

	// Platforms lists the architectures shipped per OS. Every pair must exist
	// in platform.DefaultMatrix.
	Platforms map[platform.OS][]platform.Arch `yaml:"platforms"`

	// Tags lists compiler feature tags per OS.
	Tags map[platform.OS][]string `yaml:"tags,omitempty"`

	// Resource is the Windows resource descriptor compiled with windres.
	Resource string `yaml:"resource,omitempty"`

	// NativeHelperDir is rebuilt for the requested arch before compiling
	// when --arch is given explicitly. Empty disables the step.
	NativeHelperDir string `yaml:"nativeHelper,omitempty"`

	Signing Signing `yaml:"signing"`
}

// Signing holds per-product signing settings.
type Signing struct {
	Enabled bool `yaml:"enabled"`

	// WindowsCertificate is the friendly name of the certificate in the
	// personal ("MY") store.
	WindowsCertificate string `yaml:"certificate,omitempty"`

	// TimestampURL is the RFC 3161 timestamp authority.
	TimestampURL string `yaml:"timestampUrl,omitempty"`

	// MacIdentity is the codesign identity.
	MacIdentity string `yaml:"identity,omitempty"`
}

// linuxGTKTags pin the GUI toolkit bindings to versions shipped by the
// oldest supported distribution.
var linuxGTKTags = []string{"pango_1_42", "gtk_3_22", "glib_2_58", "gdk_pixbuf_2_38"}

// Defaults returns the built-in product table.
func Defaults() *Config {
	return &Config{
		Organization: DefaultOrganization,
		Mainline:     DefaultMainline,
		ArtifactsDir: DefaultArtifactsDir,
		ToolsDir:     DefaultToolsDir,
		Products: []Product{
			{
				Name: "itch-setup",
				Platforms: map[platform.OS][]platform.Arch{
					platform.OSWindows: {platform.ArchI686, platform.ArchX8664},
					platform.OSLinux:   {platform.ArchX8664},
					platform.OSDarwin:  {platform.ArchX8664, platform.ArchARM64},
				},
				Tags: map[platform.OS][]string{
					platform.OSLinux: append([]string(nil), linuxGTKTags...),
				},
				Resource:        DefaultResource,
				NativeHelperDir: DefaultNativeHelper,
				Signing: Signing{
					Enabled:            true,
					WindowsCertificate: DefaultCertificate,
					TimestampURL:       DefaultTimestampURL,
					MacIdentity:        DefaultIdentity,
				},
			},
			{
				Name: "kitch-setup",
				Platforms: map[platform.OS][]platform.Arch{
					platform.OSWindows: {platform.ArchI686, platform.ArchX8664},
					platform.OSLinux:   {platform.ArchX8664},
					platform.OSDarwin:  {platform.ArchX8664},
				},
				Tags: map[platform.OS][]string{
					platform.OSLinux: append([]string(nil), linuxGTKTags...),
				},
				Resource: DefaultResource,
			},
		},
	}
}

// MultiProduct reports whether the config describes more than one product.
// Multi-product configs require an explicit target and embed it in the binary.
func (c *Config) MultiProduct() bool {
	return len(c.Products) > 1
}

// Product returns the descriptor named name.
func (c *Config) Product(name string) (*Product, bool) {
	for i := range c.Products {
		if c.Products[i].Name == name {
			return &c.Products[i], true
		}
	}
	return nil, false
}

// ProductNames returns product names in declaration order.
func (c *Config) ProductNames() []string {
	names := make([]string, 0, len(c.Products))
	for _, p := range c.Products {
		names = append(names, p.Name)
	}
	return names
}

// Matrix returns the platform matrix narrowed to the pairs p ships.
func (p *Product) Matrix() (platform.Matrix, error) {
	return platform.DefaultMatrix().Restrict(p.Platforms)
}

// TagsFor returns the feature tags for os, or nil.
func (p *Product) TagsFor(os platform.OS) []string {
	return p.Tags[os]
}

// Validate performs basic validation on a Config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Organization) == "" {
		return &ValidationError{Field: luaFieldOrg, Message: "cannot be empty"}
	}
	if strings.TrimSpace(c.Mainline) == "" {
		return &ValidationError{Field: luaFieldMainline, Message: "cannot be empty"}
	}
	if c.ArtifactsDir == "" {
		return &ValidationError{Field: luaFieldArtifacts, Message: "cannot be empty"}
	}
	if c.ToolsDir == "" {
		return &ValidationError{Field: luaFieldTools, Message: "cannot be empty"}
	}

	if len(c.Products) == 0 {
		return &ValidationError{Field: luaFieldProducts, Message: "at least one product is required"}
	}
	if len(c.Products) > MaxProductCount {
		return &ValidationError{
			Field:   luaFieldProducts,
			Message: fmt.Sprintf("too many products (%d), maximum is %d", len(c.Products), MaxProductCount),
		}
	}

	seen := make(map[string]bool, len(c.Products))
	for i := range c.Products {
		p := &c.Products[i]
		field := fmt.Sprintf("products[%d]", i)
		if err := p.validate(field); err != nil {
			return err
		}
		if seen[p.Name] {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate product %q", p.Name)}
		}
		seen[p.Name] = true
	}

	return nil
}

func (p *Product) validate(field string) error {
	if err := validateProductName(p.Name); err != nil {
		return &ValidationError{Field: field + ".name", Message: err.Error()}
	}

	if len(p.Platforms) == 0 {
		return &ValidationError{Field: field + ".platforms", Message: "at least one platform is required"}
	}
	if _, err := p.Matrix(); err != nil {
		return &ValidationError{Field: field + ".platforms", Message: err.Error()}
	}

	for os, tags := range p.Tags {
		if _, ok := platform.ParseOS(string(os)); !ok {
			return &ValidationError{Field: field + ".tags", Message: fmt.Sprintf("unsupported OS %q", os)}
		}
		if len(tags) > MaxTagCount {
			return &ValidationError{
				Field:   fmt.Sprintf("%s.tags.%s", field, os),
				Message: fmt.Sprintf("too many tags (%d), maximum is %d", len(tags), MaxTagCount),
			}
		}
		for j, tag := range tags {
			if !buildTagPattern.MatchString(tag) {
				return &ValidationError{
					Field:   fmt.Sprintf("%s.tags.%s[%d]", field, os, j),
					Message: fmt.Sprintf("invalid build tag %q", tag),
				}
			}
		}
	}

	if p.Signing.Enabled {
		if len(p.Platforms[platform.OSWindows]) > 0 && p.Signing.WindowsCertificate == "" {
			return &ValidationError{Field: field + ".signing.certificate", Message: "required when signing windows builds"}
		}
		if len(p.Platforms[platform.OSWindows]) > 0 && p.Signing.TimestampURL == "" {
			return &ValidationError{Field: field + ".signing.timestamp_url", Message: "required when signing windows builds"}
		}
		if len(p.Platforms[platform.OSDarwin]) > 0 && p.Signing.MacIdentity == "" {
			return &ValidationError{Field: field + ".signing.identity", Message: "required when signing darwin builds"}
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// productNamePattern matches names usable as a file name and a
// distribution project slug.
var productNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// buildTagPattern matches a single Go build tag.
var buildTagPattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

func validateProductName(name string) error {
	if name == "" {
		return fmt.Errorf("product name cannot be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("product name too long (%d chars, max 64)", len(name))
	}
	if !productNamePattern.MatchString(name) {
		return fmt.Errorf("invalid product name %q (expected lowercase letters, digits, '.', '_' or '-')", name)
	}
	return nil
}

// sortedOSes returns the keys of m in platform.SupportedOSes order, followed
// by any unknown keys sorted alphabetically.
func sortedOSes[V any](m map[platform.OS]V) []platform.OS {
	var out []platform.OS
	for _, os := range platform.SupportedOSes {
		if _, ok := m[os]; ok {
			out = append(out, os)
		}
	}
	var extra []platform.OS
	for os := range m {
		if _, ok := platform.ParseOS(string(os)); !ok {
			extra = append(extra, os)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
