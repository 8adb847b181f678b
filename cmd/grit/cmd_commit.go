package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var sign bool
	var signKey string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}

			if author == "" {
				author = cfg.User.Name
			}
			if author == "" {
				author = os.Getenv("USER")
				if author == "" {
					author = "unknown"
				}
			}

			var h object.Hash
			if sign || signKey != "" {
				if signKey == "" {
					signKey = cfg.User.SigningKey
				}
				signer, keyPath, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				h, err = r.CommitWithSigner(message, author, signer)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "signed with %s\n", keyPath)
			} else {
				h, err = r.Commit(message, author)
				if err != nil {
					return err
				}
			}

			// Determine current branch name for output.
			branch := "HEAD"
			head, err := r.Head()
			if err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Abbrev(), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "override author (default: config user.name, then $USER)")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "path to the SSH signing key")

	return cmd
}
