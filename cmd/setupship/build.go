package main

import (
	"github.com/ZebulonRouseFrantzich/setupship/internal/resolve"
	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	opts := &resolve.Options{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build, verify, sign and install one variant",
		Long: `Build compiles one (target, OS, arch) variant and installs it under
artifacts/<target>/<os>-<goArch>/.

Windows builds compile the resource descriptor first and are rejected when
the binary imports a symbol missing from Windows 7. Signing runs when the
product enables it and the target OS has a signer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Complete(cmd.Flags())
			ctx := cmd.Context()

			p, logger, err := a.pipeline(ctx, opts.Verbose)
			if err != nil {
				return err
			}
			sig, err := a.signals(ctx, logger)
			if err != nil {
				return err
			}
			_, err = p.Build(ctx, *opts, sig)
			return err
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
