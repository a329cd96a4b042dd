package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/permagit/permagit/pkg/object"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log <repo-id> [commit-id]",
		Short: "Show commit history from HEAD or a given commit",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			repoID := object.RepoID(args[0])
			r, err := a.engine.Repo(repoID)
			if err != nil {
				return err
			}

			start := r.Head
			if len(args) == 2 {
				start = object.ObjectID(args[1])
			}
			if start == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			// First-parent walk; merge commits show their second parent
			// inline.
			out := cmd.OutOrStdout()
			arena := a.engine.Arena()
			for cur, n := start, 0; cur != "" && (limit <= 0 || n < limit); n++ {
				c, err := arena.Commit(cur)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "commit %s\n", c.ID)
				if len(c.Parents) == 2 {
					fmt.Fprintf(out, "Merge: %s %s\n", shortID(c.Parents[0]), shortID(c.Parents[1]))
				}
				fmt.Fprintf(out, "Author: %s\nDate:   %s\n", c.Author, time.Unix(c.Timestamp, 0).UTC().Format(time.RFC1123))
				if c.Signature != "" {
					fmt.Fprintln(out, "Signed: yes")
				}
				fmt.Fprintf(out, "\n    %s\n\n", c.Message)

				if len(c.Parents) == 0 {
					break
				}
				cur = c.Parents[0]
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show")

	return cmd
}
