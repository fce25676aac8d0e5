// Package verify checks Windows binaries for imports that break
// compatibility with older, still supported Windows releases.
package verify

import (
	"context"
	"debug/pe"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
)

// ForbiddenSymbol is the COM API that is missing on Windows 7.
const ForbiddenSymbol = "CoIncrementMTAUsage"

// comImportPattern selects COM imports from an import table dump: a hint
// number, two spaces, then a name starting with "Co" and an uppercase letter.
var comImportPattern = regexp.MustCompile(`[0-9]+  Co[A-Z]`)

// trailingToken captures the symbol name at the end of an import line.
var trailingToken = regexp.MustCompile(`[^ ]+$`)

// Inspector dumps the import table of a binary, one import per line.
type Inspector interface {
	Name() string
	Imports(ctx context.Context, path string) (string, error)
}

// ObjdumpInspector reads imports with "objdump --private-headers".
type ObjdumpInspector struct {
	Runner runner.Runner
}

// Name returns "objdump".
func (o ObjdumpInspector) Name() string { return "objdump" }

// Imports returns the COM import lines of path.
func (o ObjdumpInspector) Imports(ctx context.Context, path string) (string, error) {
	out, err := o.Runner.Output(ctx, runner.Command{
		Name: "objdump",
		Args: []string{"--private-headers", path},
	})
	if err != nil {
		return "", err
	}
	return filterCOMImports(out), nil
}

// PEInspector reads the import table directly with debug/pe. Its output uses
// the same "<hint>  <name>" layout as objdump so both feed the same parser.
type PEInspector struct{}

// Name returns "debug/pe".
func (PEInspector) Name() string { return "debug/pe" }

// Imports returns the COM import lines of path.
func (PEInspector) Imports(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := pe.Open(path)
	if err != nil {
		return "", fmt.Errorf("open PE file %s: %w", path, err)
	}
	defer f.Close()

	symbols, err := f.ImportedSymbols()
	if err != nil {
		return "", fmt.Errorf("read imports of %s: %w", path, err)
	}
	return filterCOMImports(formatImports(symbols)), nil
}

// formatImports renders "name:dll" entries from debug/pe as dump lines.
func formatImports(symbols []string) string {
	var b strings.Builder
	for i, sym := range symbols {
		name, _, _ := strings.Cut(sym, ":")
		fmt.Fprintf(&b, "\t%8d  %s\n", i, name)
	}
	return b.String()
}

func filterCOMImports(dump string) string {
	var b strings.Builder
	for _, line := range strings.Split(dump, "\n") {
		if comImportPattern.MatchString(line) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// DefaultInspector prefers objdump and falls back to debug/pe when it is
// not installed.
func DefaultInspector(r runner.Runner) Inspector {
	if _, err := r.LookPath("objdump"); err == nil {
		return ObjdumpInspector{Runner: r}
	}
	return PEInspector{}
}

// ParseSymbols extracts the trailing token of each non-empty line. Lines
// without one are returned as warnings.
func ParseSymbols(output string) (symbols, warnings []string) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sym := trailingToken.FindString(line); sym != "" {
			symbols = append(symbols, sym)
		} else {
			warnings = append(warnings, line)
		}
	}
	return symbols, warnings
}

// Report is the outcome of one verification.
type Report struct {
	Inspector string   `yaml:"inspector"`
	Symbols   []string `yaml:"symbols"`
	Warnings  []string `yaml:"warnings,omitempty"`
	Forbidden bool     `yaml:"forbidden"`
}

// CompatibilityError is returned when a binary imports ForbiddenSymbol.
type CompatibilityError struct {
	Binary string
	Symbol string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("%s imports %s, which breaks Windows 7 compatibility", e.Binary, e.Symbol)
}

// Verifier scans binaries for the forbidden import.
type Verifier struct {
	inspector Inspector
	logger    *slog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(inspector Inspector, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Verifier{inspector: inspector, logger: logger}
}

// Verify inspects path. A binary importing ForbiddenSymbol yields both the
// report and a *CompatibilityError.
func (v *Verifier) Verify(ctx context.Context, path string) (*Report, error) {
	dump, err := v.inspector.Imports(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("inspect imports with %s: %w", v.inspector.Name(), err)
	}

	symbols, warnings := ParseSymbols(dump)
	for _, w := range warnings {
		v.logger.Warn("could not parse import line", "line", w)
	}

	report := &Report{
		Inspector: v.inspector.Name(),
		Symbols:   symbols,
		Warnings:  warnings,
		Forbidden: slices.Contains(symbols, ForbiddenSymbol),
	}
	v.logger.Info("found COM methods", "binary", path, "methods", strings.Join(symbols, ", "))

	if report.Forbidden {
		return report, &CompatibilityError{Binary: path, Symbol: ForbiddenSymbol}
	}
	return report, nil
}
