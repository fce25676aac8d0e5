package main

import (
	"github.com/ZebulonRouseFrantzich/setupship/internal/binary"
	"github.com/ZebulonRouseFrantzich/setupship/internal/pipeline"
	"github.com/spf13/cobra"
)

func newDeployCmd(a *app) *cobra.Command {
	var (
		opts    pipeline.DeployOptions
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Push every installed variant to the distribution service",
		Long: `Deploy publishes the installed variants of each target. Tags publish to
the stable channels, the mainline branch to the "-head" channels. Any other
ref is skipped and deploy exits successfully.

Every variant is attempted; failures are reported together at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, logger, err := a.pipeline(ctx, verbose)
			if err != nil {
				return err
			}
			sig, err := a.signals(ctx, logger)
			if err != nil {
				return err
			}
			opts.Progress = a.stderr
			_, err = p.Deploy(ctx, opts, sig)
			return err
		},
	}

	cmd.Flags().StringArrayVar(&opts.Targets, "target", nil, "target to push (repeatable); all products when omitted")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the pushes without fetching butler or pushing")
	cmd.Flags().StringVar(&opts.BrothURL, "broth-url", binary.DefaultBrothURL, "base URL butler is downloaded from")
	cmd.Flags().StringVar(&opts.KeyringPath, "keyring", "", "armored public keyring verifying the butler archive signature")
	cmd.Flags().StringVar(&opts.SignatureURL, "signature-url", "", "detached signature of the butler archive")
	cmd.Flags().StringVar(&opts.ChecksumURL, "checksum-url", "", "SHA256 checksum file of the butler archive")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
