package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var bare bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty grit repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			// Ensure the target directory exists.
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			if bare {
				r, err := repo.InitBare(abs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "initialized empty bare grit repository in %s\n", r.GritDir+string(filepath.Separator))
				return nil
			}

			r, err := repo.Init(abs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty grit repository in %s\n", filepath.Join(r.RootDir, ".grit")+string(filepath.Separator))
			return nil
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "create a repository without a working tree")

	return cmd
}
