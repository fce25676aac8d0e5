package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/setupship/internal/artifact"
	"github.com/ZebulonRouseFrantzich/setupship/internal/config"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is the file init writes.
const DefaultConfigFile = "release.lua"

func newInitCmd(a *app) *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in product table as a release.lua",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if !filepath.IsAbs(path) {
				path = filepath.Join(a.workDir, path)
			}
			if err := writeConfig(path, config.NewGenerator(), force); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", DefaultConfigFile, "file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// writeConfig renders the built-in defaults to path. An existing file is
// kept unless force is set.
func writeConfig(path string, gen *config.Generator, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("check %s: %w", path, err)
		}
	}

	content, err := gen.Generate(config.Defaults())
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}
	if err := artifact.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
