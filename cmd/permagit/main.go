package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "permagit",
		Short: "Content-addressed version control over an external content store",
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the TOML config file")
	root.PersistentFlags().StringVar(&actAs, "as", "", "identity to act as (default: config identity or $USER)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newRepoCmd())
	root.AddCommand(newQuotaCmd())
	root.AddCommand(newStageCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newRefsCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newMergeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("permagit 0.1.0-dev")
		},
	}
}
