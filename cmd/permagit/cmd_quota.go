package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/quota"
)

func newQuotaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Inspect and grow storage quota",
	}
	cmd.AddCommand(newQuotaShowCmd())
	cmd.AddCommand(newQuotaBuyCmd())
	return cmd
}

func newQuotaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [owner]",
		Short: "Show a storage account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			var owner object.Identity
			if len(args) == 1 {
				owner = object.Identity(args[0])
			} else if owner, err = a.identity(); err != nil {
				return err
			}

			q, err := a.engine.Quota(owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "owner=%s available=%d used=%d remaining=%d\n",
				q.Owner, q.BytesAvailable, q.BytesUsed, q.Remaining())
			return nil
		},
	}
}

func newQuotaBuyCmd() *cobra.Command {
	var balance uint64

	cmd := &cobra.Command{
		Use:   "buy <bytes>",
		Short: "Purchase additional storage capacity",
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
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse amount %q: %w", args[0], err)
			}

			a.engine.OpenQuota(owner, a.cfg.Quota.InitialBytes)
			payment := &quota.Payment{Balance: balance}
			if err := a.engine.PurchaseStorage(owner, payment, amount); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purchased %d bytes (balance left: %d)\n", amount, payment.Balance)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&balance, "balance", 0, "payment balance to debit")

	return cmd
}
