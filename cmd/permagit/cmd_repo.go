package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/repo"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repositories",
	}
	cmd.AddCommand(newRepoCreateCmd())
	cmd.AddCommand(newRepoListCmd())
	cmd.AddCommand(newRepoCollabCmd())
	return cmd
}

func newRepoCreateCmd() *cobra.Command {
	var description string
	var branch string
	var initialSize uint64

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			owner, err := a.identity()
			if err != nil {
				return err
			}
			a.engine.OpenQuota(owner, a.cfg.Quota.InitialBytes)

			r, err := a.engine.CreateRepository(owner, args[0], description, branch, initialSize)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created repository '%s' (%s)\n", r.Name, r.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "repository description")
	cmd.Flags().StringVar(&branch, "branch", "", "default branch name (default: main)")
	cmd.Flags().Uint64Var(&initialSize, "size", 0, "initial storage allocation in bytes")

	return cmd
}

func newRepoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			repos := a.engine.Repositories()
			sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })

			out := cmd.OutOrStdout()
			for _, r := range repos {
				head := "(no commits)"
				if r.Head != "" {
					head = shortID(r.Head)
				}
				fmt.Fprintf(out, "%s  %-20s owner=%s head=%s\n", r.ID, r.Name, r.Owner, head)
			}
			return nil
		},
	}
}

func newRepoCollabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collab <repo-id> <identity> <none|read|write|admin>",
		Short: "Add or update a collaborator",
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
			level, err := repo.ParsePermission(args[2])
			if err != nil {
				return err
			}
			if err := a.engine.AddCollaborator(caller, object.RepoID(args[0]), object.Identity(args[1]), level); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", level, args[1])
			return nil
		},
	}
}
