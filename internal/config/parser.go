package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser represents a Lua config parser with platform detection.
type Parser struct {
	detector platform.Detector
	logger   Logger
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the "platform" global undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: defaultLogger()}
}

// WithLogger sets the logger used for parse diagnostics.
func (p *Parser) WithLogger(logger Logger) *Parser {
	if logger == nil {
		logger = defaultLogger()
	}
	p.logger = logger
	return p
}

// Load returns the built-in defaults when path is empty, otherwise the
// config parsed from path.
func (p *Parser) Load(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		p.logger.Debug("using built-in product table")
		return Defaults(), nil
	}
	return p.ParseFile(ctx, path)
}

// ParseFile parses the Lua config at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxConfigSize),
		}
	}

	for _, finding := range DetectSensitiveData(string(data)) {
		p.logger.Warn("possible secret in config",
			"path", path, "line", finding.Line, "kind", finding.PatternName, "preview", finding.Preview)
	}

	p.logger.Debug("parsing config", "path", path, "bytes", len(data))
	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua config from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("parse config: %w", ctxErr)
		}
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global "setupship" table. Fields left out fall back
// to the built-in defaults, except products: a config that declares products
// replaces the whole built-in table.
func extractConfig(L *lua.LState) (*Config, error) {
	root := L.GetGlobal(luaGlobalSetupship)
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalSetupship),
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}
	table := root.(*lua.LTable)

	defaults := Defaults()
	config := &Config{
		Organization: stringField(table, luaFieldOrg, defaults.Organization),
		Mainline:     stringField(table, luaFieldMainline, defaults.Mainline),
		ArtifactsDir: stringField(table, luaFieldArtifacts, defaults.ArtifactsDir),
		ToolsDir:     stringField(table, luaFieldTools, defaults.ToolsDir),
		Products:     defaults.Products,
	}

	if productsVal := table.RawGetString(luaFieldProducts); productsVal.Type() == lua.LTTable {
		products, err := extractProducts(productsVal.(*lua.LTable))
		if err != nil {
			return nil, err
		}
		config.Products = products
	}

	if err := config.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return config, nil
}

// extractProducts reads the products array. Nil entries (from platform
// conditionals) are skipped.
func extractProducts(table *lua.LTable) ([]Product, error) {
	var products []Product
	var firstErr error

	table.ForEach(func(key, value lua.LValue) {
		if firstErr != nil || value.Type() == lua.LTNil {
			return
		}
		if value.Type() != lua.LTTable {
			firstErr = &ParseError{
				Message: "invalid product entry",
				Detail:  fmt.Sprintf("products[%s]: expected table, got %s", key.String(), value.Type()),
			}
			return
		}
		product, err := extractProduct(value.(*lua.LTable))
		if err != nil {
			firstErr = err
			return
		}
		products = append(products, product)
	})

	return products, firstErr
}

func extractProduct(table *lua.LTable) (Product, error) {
	product := Product{
		Name:            stringField(table, luaFieldName, ""),
		Resource:        stringField(table, luaFieldResource, DefaultResource),
		NativeHelperDir: stringField(table, luaFieldNative, ""),
	}

	if platformsVal := table.RawGetString(luaFieldPlatforms); platformsVal.Type() == lua.LTTable {
		platforms, err := extractOSLists(platformsVal.(*lua.LTable), luaFieldPlatforms)
		if err != nil {
			return Product{}, err
		}
		product.Platforms = make(map[platform.OS][]platform.Arch, len(platforms))
		for targetOS, values := range platforms {
			arches := make([]platform.Arch, 0, len(values))
			for _, v := range values {
				arch, ok := platform.ParseArch(v)
				if !ok {
					return Product{}, &ParseError{
						Message: "invalid platform entry",
						Detail:  fmt.Sprintf("%s: unsupported arch %q for os %q", product.Name, v, targetOS),
					}
				}
				arches = append(arches, arch)
			}
			product.Platforms[targetOS] = arches
		}
	}

	if tagsVal := table.RawGetString(luaFieldTags); tagsVal.Type() == lua.LTTable {
		tags, err := extractOSLists(tagsVal.(*lua.LTable), luaFieldTags)
		if err != nil {
			return Product{}, err
		}
		product.Tags = tags
	}

	if signingVal := table.RawGetString(luaFieldSigning); signingVal.Type() == lua.LTTable {
		signing := signingVal.(*lua.LTable)
		product.Signing = Signing{
			Enabled:            boolField(signing, luaFieldEnabled, true),
			WindowsCertificate: stringField(signing, luaFieldCertificate, ""),
			TimestampURL:       stringField(signing, luaFieldTimestamp, ""),
			MacIdentity:        stringField(signing, luaFieldIdentity, ""),
		}
		if product.Signing.Enabled && product.Signing.TimestampURL == "" {
			product.Signing.TimestampURL = DefaultTimestampURL
		}
	}

	return product, nil
}

// extractOSLists reads a table keyed by OS name whose values are string
// arrays.
func extractOSLists(table *lua.LTable, field string) (map[platform.OS][]string, error) {
	out := map[platform.OS][]string{}
	var firstErr error

	table.ForEach(func(key, value lua.LValue) {
		if firstErr != nil {
			return
		}
		targetOS, ok := platform.ParseOS(key.String())
		if key.Type() != lua.LTString || !ok {
			firstErr = &ParseError{
				Message: fmt.Sprintf("invalid %s entry", field),
				Detail:  fmt.Sprintf("unsupported OS %q", key.String()),
			}
			return
		}
		if value.Type() != lua.LTTable {
			firstErr = &ParseError{
				Message: fmt.Sprintf("invalid %s entry", field),
				Detail:  fmt.Sprintf("%s.%s: expected table, got %s", field, targetOS, value.Type()),
			}
			return
		}
		out[targetOS] = stringList(value.(*lua.LTable))
	})

	return out, firstErr
}

// stringList collects the string values of an array table, skipping nil and
// non-string values left by platform.when.
func stringList(table *lua.LTable) []string {
	var values []string
	table.ForEach(func(_, value lua.LValue) {
		if value.Type() == lua.LTString {
			values = append(values, value.String())
		}
	})
	return values
}

func stringField(table *lua.LTable, name, fallback string) string {
	if v := table.RawGetString(name); v.Type() == lua.LTString {
		return v.String()
	}
	return fallback
}

func boolField(table *lua.LTable, name string, fallback bool) bool {
	if v := table.RawGetString(name); v.Type() == lua.LTBool {
		return bool(v.(lua.LBool))
	}
	return fallback
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
