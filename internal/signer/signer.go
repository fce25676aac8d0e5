// Package signer signs built binaries with the platform's code signing tool:
// signtool on Windows, codesign on macOS. Linux binaries are not signed.
package signer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ZebulonRouseFrantzich/setupship/internal/config"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
)

// Signer signs one binary in place.
type Signer interface {
	Sign(ctx context.Context, binary string) error
}

// SignTool signs with Microsoft signtool, picking the certificate from the
// personal store by friendly name.
type SignTool struct {
	Runner       runner.Runner
	Certificate  string
	TimestampURL string
	Logger       *slog.Logger
}

// Args returns the signtool arguments for binary.
func (s *SignTool) Args(binary string) []string {
	return []string{
		"sign",
		"/v",
		"/s", "MY",
		"/n", s.Certificate,
		"/fd", "sha256",
		"/tr", s.TimestampURL,
		"/td", "sha256",
		"/a",
		binary,
	}
}

// Sign runs signtool.
func (s *SignTool) Sign(ctx context.Context, binary string) error {
	logger(s.Logger).Info("signing windows binary", "binary", binary, "certificate", s.Certificate)
	if err := s.Runner.Run(ctx, runner.Command{Name: "signtool.exe", Args: s.Args(binary)}); err != nil {
		return fmt.Errorf("sign %s: %w", binary, err)
	}
	return nil
}

// CodeSign signs with Apple codesign and verifies the signature afterwards.
type CodeSign struct {
	Runner   runner.Runner
	Identity string
	Logger   *slog.Logger
}

// SignArgs returns the codesign arguments that sign binary.
func (c *CodeSign) SignArgs(binary string) []string {
	return []string{"--deep", "--force", "--verbose", "--sign", c.Identity, binary}
}

// VerifyArgs returns the codesign arguments that check binary's signature.
func (c *CodeSign) VerifyArgs(binary string) []string {
	return []string{"--verify", "-vvvv", binary}
}

// Sign runs codesign, then verifies the result. Either failing is an error.
func (c *CodeSign) Sign(ctx context.Context, binary string) error {
	log := logger(c.Logger)
	log.Info("signing macOS binary", "binary", binary, "identity", c.Identity)
	if err := c.Runner.Run(ctx, runner.Command{Name: "codesign", Args: c.SignArgs(binary)}); err != nil {
		return fmt.Errorf("sign %s: %w", binary, err)
	}

	log.Info("verifying signature", "binary", binary)
	if err := c.Runner.Run(ctx, runner.Command{Name: "codesign", Args: c.VerifyArgs(binary)}); err != nil {
		return fmt.Errorf("verify signature of %s: %w", binary, err)
	}
	return nil
}

// For returns the signer for targetOS, or nil when builds for targetOS are
// not signed or the product has signing disabled.
func For(targetOS platform.OS, signing config.Signing, r runner.Runner, log *slog.Logger) Signer {
	if !signing.Enabled {
		return nil
	}
	switch targetOS {
	case platform.OSWindows:
		return &SignTool{
			Runner:       r,
			Certificate:  signing.WindowsCertificate,
			TimestampURL: signing.TimestampURL,
			Logger:       log,
		}
	case platform.OSDarwin:
		return &CodeSign{Runner: r, Identity: signing.MacIdentity, Logger: log}
	default:
		return nil
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}
