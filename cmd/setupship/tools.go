package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ZebulonRouseFrantzich/setupship/internal/console"
	"github.com/spf13/cobra"
)

func newToolsCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Report the external tools the pipeline calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, _, err := a.pipeline(ctx, verbose)
			if err != nil {
				return err
			}
			tools, err := p.Tools(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tVERSION\tPATH")
			missing := 0
			for _, tool := range tools {
				if !tool.Found {
					missing++
					fmt.Fprintf(w, "%s\t-\tnot found\n", tool.Name)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", tool.Name, tool.Version, tool.Path)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if missing > 0 {
				console.New(a.stdout).Warn("%d of %d tools not found on PATH", missing, len(tools))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
