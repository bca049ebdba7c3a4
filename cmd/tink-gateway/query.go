package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var fromDate string

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List transactions from a date until today",
	Long: `Transactions queries every transaction dated on or after --from up to the
end of today (UTC), oldest first.

Example:
  tink-gateway transactions --from 2024-01-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := time.ParseInLocation("2006-01-02", fromDate, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid --from %q (expected YYYY-MM-DD)", fromDate)
		}

		res := gateway.Client.QueryTransactions(cmd.Context(), from)
		if !res.IsSuccess() {
			return fmt.Errorf("query transactions: %w", res.Failure())
		}
		return printJSON(res.Unwrap())
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := gateway.Client.ListAccounts(cmd.Context())
		if !res.IsSuccess() {
			return fmt.Errorf("list accounts: %w", res.Failure())
		}
		return printJSON(res.Unwrap())
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := gateway.Client.ListCategories(cmd.Context())
		if !res.IsSuccess() {
			return fmt.Errorf("list categories: %w", res.Failure())
		}
		return printJSON(res.Unwrap())
	},
}

func init() {
	transactionsCmd.Flags().StringVar(&fromDate, "from", time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02"), "first date to include (YYYY-MM-DD)")
}
