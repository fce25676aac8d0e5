package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ZebulonRouseFrantzich/setupship/internal/buildenv"
	"github.com/ZebulonRouseFrantzich/setupship/internal/ci"
	"github.com/ZebulonRouseFrantzich/setupship/internal/config"
	"github.com/ZebulonRouseFrantzich/setupship/internal/console"
	"github.com/ZebulonRouseFrantzich/setupship/internal/git"
	"github.com/ZebulonRouseFrantzich/setupship/internal/pipeline"
	"github.com/ZebulonRouseFrantzich/setupship/internal/platform"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
	"github.com/spf13/cobra"
)

// app carries the global flags and the collaborators shared by every
// subcommand. Tests replace the collaborators with fakes.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	gitFallback bool
	logFormat   string
	workDir     string

	detector platform.Detector
	runner   runner.Runner
	clock    buildenv.Clock
	getenv   func(string) string
	environ  func() []string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		detector: platform.NewDetector(),
		clock:    buildenv.RealClock{},
		getenv:   os.Getenv,
		environ:  os.Environ,
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setupship",
		Short: "Build, sign and publish the installer binaries",
		Long: `setupship builds one installer variant per invocation and publishes the
installed variants to the distribution service.

Examples:
  # Build itch-setup for the host OS
  setupship build --target itch-setup

  # Cross-build a Windows 32-bit variant of one product
  setupship --config release.lua build --target kitch-setup --os windows --arch i686

  # Push every installed variant for the current tag or mainline commit
  setupship deploy`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.workDir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory: %w", err)
				}
				a.workDir = wd
			}
			return nil
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"path to a release.lua product table (built-in table when empty)")
	cmd.PersistentFlags().BoolVar(&a.gitFallback, "git-fallback", false,
		"fill missing CI ref signals from the local git checkout")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "text",
		"log format: text or json")

	cmd.AddCommand(
		newBuildCmd(a),
		newDeployCmd(a),
		newPlanCmd(a),
		newMatrixCmd(a),
		newToolsCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

func (a *app) logger(verbose bool) *slog.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	return console.NewLogger(level, a.logFormat, a.stderr)
}

func (a *app) loadConfig(ctx context.Context, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewParser(a.detector).WithLogger(logger).Load(ctx, a.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %s", config.FormatError(err, false))
	}
	return cfg, nil
}

// signals reads the CI ref signals, optionally completed from the local
// checkout.
func (a *app) signals(ctx context.Context, logger *slog.Logger) (ci.Signals, error) {
	sig := ci.FromLookup(a.getenv)
	if !a.gitFallback {
		return sig, nil
	}
	local, err := ci.FromRepo(ctx, git.NewClient(a.workDir))
	if err != nil {
		return ci.Signals{}, fmt.Errorf("git fallback: %w", err)
	}
	merged := ci.Merge(sig, local)
	logger.Debug("ref signals", "tag", merged.Tag, "ref", merged.RefName, "commit", merged.Commit, "provider", merged.Provider)
	return merged, nil
}

// pipeline wires a Pipeline for one command invocation.
func (a *app) pipeline(ctx context.Context, verbose bool) (*pipeline.Pipeline, *slog.Logger, error) {
	logger := a.logger(verbose)
	cfg, err := a.loadConfig(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	r := a.runner
	if r == nil {
		r = runner.New(logger, a.stdout, a.stderr)
	}
	p := pipeline.New(pipeline.Deps{
		Config:   cfg,
		Detector: a.detector,
		Runner:   r,
		Clock:    a.clock,
		Console:  console.New(a.stdout),
		Logger:   logger,
		WorkDir:  a.workDir,
		BaseEnv:  a.environ(),
	})
	return p, logger, nil
}
