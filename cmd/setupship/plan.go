package main

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/setupship/internal/resolve"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPlanCmd(a *app) *cobra.Command {
	opts := &resolve.Options{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the composed build plan as YAML without building",
		Args:  cobra.NoArgs,
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
			plan, _, err := p.Plan(ctx, *opts, sig)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(plan); err != nil {
				return fmt.Errorf("encode plan: %w", err)
			}
			return enc.Close()
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
