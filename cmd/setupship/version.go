package main

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	version = "head"
	commit  = "no-commit"
	builtAt = "0"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "setupship %s\n", version)
			fmt.Fprintf(a.stdout, "  Commit:     %s\n", commit)
			fmt.Fprintf(a.stdout, "  Built at:   %s\n", formatBuiltAt(builtAt))
			fmt.Fprintf(a.stdout, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func formatBuiltAt(s string) string {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return "unknown"
	}
	return time.Unix(secs, 0).UTC().Format(time.RFC3339)
}
