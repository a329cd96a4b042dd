package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/staging"
)

func newStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Manage the staging index",
	}
	cmd.AddCommand(newStageAddCmd())
	cmd.AddCommand(newStageRmCmd())
	cmd.AddCommand(newStageResetCmd())
	cmd.AddCommand(newStageStatusCmd())
	return cmd
}

func newStageAddCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "add <repo-id> <path> <file>",
		Short: "Stage a local file's content at a repository path",
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
			repoID := object.RepoID(args[0])
			path := args[1]

			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[2], err)
			}
			locator, err := object.ComputeLocator(data)
			if err != nil {
				return err
			}

			status := staging.StatusAdded
			if idx, err := a.engine.Staging(caller, repoID); err == nil {
				if _, err := idx.Entry(path); err == nil {
					status = staging.StatusModified
				}
			}

			err = a.engine.StageFile(caller, repoID, path, locator, uint64(len(data)), object.HashBytes(data), mode, status)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staged %s (%d bytes, %s)\n", path, len(data), status)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", object.ModeFile, "file mode")

	return cmd
}

func newStageRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <repo-id> <path>",
		Short: "Stage a deletion for a tracked path",
		Args:  cobra.ExactArgs(2),
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
			if err := a.engine.StageDeletion(caller, object.RepoID(args[0]), args[1]); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staged deletion of %s\n", args[1])
			return nil
		},
	}
}

func newStageResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <repo-id> [commit-id]",
		Short: "Clear the staging index, optionally rebinding the baseline",
		Args:  cobra.RangeArgs(1, 2),
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
			var baseline object.ObjectID
			if len(args) == 2 {
				baseline = object.ObjectID(args[1])
			}
			if err := a.engine.ResetIndex(caller, object.RepoID(args[0]), baseline); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "staging index reset")
			return nil
		},
	}
}

func newStageStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <repo-id>",
		Short: "List staged entries",
		Args:  cobra.ExactArgs(1),
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
			idx, err := a.engine.Staging(caller, object.RepoID(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if idx.Baseline != "" {
				fmt.Fprintf(out, "baseline %s\n", shortID(idx.Baseline))
			}
			entries := idx.StagedEntries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "nothing staged")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%-9s %s (%d bytes)\n", e.Status, e.Path, e.Size)
			}
			return nil
		},
	}
}
