package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permagit/permagit/pkg/merge"
	"github.com/permagit/permagit/pkg/object"
)

func newMergeCmd() *cobra.Command {
	var strategy string
	var advance string

	cmd := &cobra.Command{
		Use:   "merge <repo-id> <source-commit> <target-commit>",
		Short: "Merge one commit into another",
		Long: `Merge the source commit into the target commit.

With --strategy=fast-forward the target must be an ancestor of the source.
The recursive strategy reports conflicts and leaves the merge unfinished;
rerun with --strategy=ours or --strategy=theirs to auto-resolve them.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			source := object.ObjectID(args[1])
			target := object.ObjectID(args[2])

			res, err := a.merger.Merge(caller, repoID, source, target, merge.Strategy(strategy))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Success {
				for _, c := range res.Conflicts {
					fmt.Fprintf(out, "CONFLICT (%s): %s\n", c.Type, c.Path)
				}
				return fmt.Errorf("%d conflict(s); rerun with --strategy=ours or --strategy=theirs", len(res.Conflicts))
			}

			if advance != "" {
				if err := a.engine.AdvanceRef(caller, repoID, advance, res.ResultCommit); err != nil {
					return err
				}
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(out, "merged %s into %s -> %s\n", shortID(source), shortID(target), shortID(res.ResultCommit))
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(merge.StrategyRecursive), "fast-forward, recursive, ours, or theirs")
	cmd.Flags().StringVar(&advance, "advance", "", "branch to advance to the merge commit")

	return cmd
}
