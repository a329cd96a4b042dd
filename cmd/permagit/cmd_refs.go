package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/refs"
)

func newBranchCmd() *cobra.Command {
	var deleteBranch string

	cmd := &cobra.Command{
		Use:   "branch <repo-id> [name] [commit-id]",
		Short: "List, create, advance, or delete branches",
		Args:  cobra.RangeArgs(1, 3),
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
			ix, err := a.engine.Refs(repoID)
			if err != nil {
				return err
			}

			// Delete mode.
			if deleteBranch != "" {
				if err := a.engine.DeleteReference(caller, repoID, deleteBranch); err != nil {
					return err
				}
				if err := a.save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted branch '%s'\n", deleteBranch)
				return nil
			}

			// Create or advance mode.
			if len(args) >= 2 {
				name := args[1]
				var target object.ObjectID
				if len(args) == 3 {
					target = object.ObjectID(args[2])
				} else {
					r, err := a.engine.Repo(repoID)
					if err != nil {
						return err
					}
					if r.Head == "" {
						return fmt.Errorf("repository has no commits; pass a commit id")
					}
					target = r.Head
				}
				if _, err := ix.Get(name); err == nil {
					err = a.engine.AdvanceRef(caller, repoID, name, target)
				} else {
					err = a.engine.CreateBranch(caller, repoID, name, target)
				}
				if err != nil {
					return err
				}
				if err := a.save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "branch '%s' -> %s\n", name, shortID(target))
				return nil
			}

			// List mode.
			r, err := a.engine.Repo(repoID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range ix.FindByType(refs.TypeBranch) {
				entry, err := ix.Get(name)
				if err != nil {
					continue
				}
				marker := "  "
				if name == r.DefaultBranch {
					marker = "* "
				}
				fmt.Fprintf(out, "%s%s -> %s\n", marker, name, shortID(entry.TargetID))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")

	return cmd
}

func newTagCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "tag <repo-id> <name> <object-id>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(3),
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
			if err := a.engine.CreateTag(caller, object.RepoID(args[0]), args[1], object.ObjectID(args[2]), message); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %s as '%s'\n", shortID(object.ObjectID(args[2])), args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "tag message")

	return cmd
}

func newRefsCmd() *cobra.Command {
	var resolve string
	var prefix string

	cmd := &cobra.Command{
		Use:   "refs <repo-id>",
		Short: "List or resolve references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			ix, err := a.engine.Refs(object.RepoID(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if resolve != "" {
				entry, hops, err := ix.Resolve(resolve, 0)
				if err != nil {
					return err
				}
				for _, hop := range hops {
					fmt.Fprintf(out, "%s ->\n", hop)
				}
				fmt.Fprintf(out, "%s (%s) -> %s\n", entry.Name, entry.Type, entry.TargetID)
				return nil
			}

			names := ix.Names()
			if prefix != "" {
				names = ix.FindByPrefix(prefix)
			}
			for _, name := range names {
				entry, err := ix.Get(name)
				if err != nil {
					continue
				}
				if entry.SymbolicTarget != "" {
					fmt.Fprintf(out, "%-24s %-8s => %s\n", name, entry.Type, entry.SymbolicTarget)
					continue
				}
				fmt.Fprintf(out, "%-24s %-8s -> %s\n", name, entry.Type, shortID(entry.TargetID))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&resolve, "resolve", "", "resolve a (possibly symbolic) reference")
	cmd.Flags().StringVar(&prefix, "prefix", "", "filter by name prefix (up to 10 chars)")

	return cmd
}
