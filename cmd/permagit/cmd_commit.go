package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permagit/permagit/pkg/object"
)

func newCommitCmd() *cobra.Command {
	var message string
	var sign bool
	var keyPath string

	cmd := &cobra.Command{
		Use:   "commit <repo-id>",
		Short: "Commit the staging index and advance HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			caller, err := a.identity()
			if err != nil {
				return err
			}
			repoID := object.RepoID(args[0])

			c, err := a.engine.CommitStaged(caller, repoID, message)
			if err != nil {
				return err
			}

			if sign {
				if keyPath == "" {
					keyPath = a.cfg.SigningKey
				}
				signer, resolvedKey, err := newSSHCommitSigner(keyPath)
				if err != nil {
					return err
				}
				if err := a.engine.SignCommit(caller, repoID, c.ID, signer); err != nil {
					return err
				}
				a.logger.Debug().Str("key", resolvedKey).Msg("commit signed")
			}

			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", shortID(c.ID), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&sign, "sign", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key path (default: config signing_key or ~/.ssh)")

	return cmd
}
