package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ZebulonRouseFrantzich/setupship/internal/artifact"
	"github.com/spf13/cobra"
)

func newMatrixCmd(a *app) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "List the buildable (OS, arch) pairs of each product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Context(), a.logger(false))
			if err != nil {
				return err
			}

			names := cfg.ProductNames()
			if target != "" {
				if _, ok := cfg.Product(target); !ok {
					return fmt.Errorf("unknown target %q", target)
				}
				names = []string{target}
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TARGET\tOS\tARCH\tVARIANT\tPATH PREFIX\tMIN OS")
			for _, name := range names {
				product, _ := cfg.Product(name)
				matrix, err := product.Matrix()
				if err != nil {
					return fmt.Errorf("product %s: %w", name, err)
				}
				for _, pair := range matrix.Pairs() {
					spec, _ := matrix.Lookup(pair.OS, pair.Arch)
					goArch, err := pair.Arch.GoArch()
					if err != nil {
						return err
					}
					variant := artifact.VariantName(pair.OS, goArch)
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						name, pair.OS, pair.Arch, variant, dash(spec.PrependPath), dash(spec.MinOSVersion))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "only list this product")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
