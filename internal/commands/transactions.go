package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/fintrack/pkg/client"
)

func newAddCommand(a *app) *cobra.Command {
	var (
		amount, description, kind, category, date string
		force                                     bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a deposit or withdrawal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			in := client.NewTransaction{
				Amount:      amt,
				Description: description,
				Type:        client.TransactionType(kind),
				Category:    category,
			}
			if date != "" {
				d, err := time.ParseInLocation(client.DateLayout, date, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
				}
				in.Date = &d
			}

			// The server accepts any withdrawal; this check is a local courtesy.
			if in.Type == client.Withdraw && !force {
				balance, err := a.client.Balance(cmd.Context())
				if err != nil {
					return explain(err)
				}
				if amt.GreaterThan(balance) {
					return fmt.Errorf("insufficient balance for withdrawal: balance is %s (use --force to record it anyway)", balance.StringFixed(2))
				}
			}

			tx, err := a.client.AddTransaction(cmd.Context(), in)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s of %s (%s)\n", tx.Type, tx.Amount.StringFixed(2), tx.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 42.50 (required)")
	cmd.Flags().StringVar(&description, "description", "", "what it was for (required)")
	cmd.Flags().StringVar(&kind, "type", "", "deposit or withdraw (required)")
	cmd.Flags().StringVar(&category, "category", "other", "category")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default now)")
	cmd.Flags().BoolVar(&force, "force", false, "record a withdrawal larger than the balance")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var search, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := a.client.Transactions(cmd.Context())
			if err != nil {
				return explain(err)
			}
			shown := client.Filter(txs, search, category)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION")
			for _, tx := range shown {
				sign := "+"
				if tx.Type == client.Withdraw {
					sign = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s%s\t%s\t%s\n",
					tx.Date.Local().Format("Jan 2, 2006 3:04 PM"), tx.Type, sign, tx.Amount.StringFixed(2), tx.Category, tx.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			// Balance always covers every transaction, not just the filtered rows.
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d shown, balance %s\n", len(shown), len(txs), client.Balance(txs).StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "only descriptions containing this text")
	cmd.Flags().StringVar(&category, "category", "", "only this category")

	return cmd
}

func newBalanceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show deposits minus withdrawals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := a.client.Balance(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance.StringFixed(2))
			return nil
		},
	}
}

func newAnalyticsCommand(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show category and daily totals for the last month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var since time.Time
			if from != "" {
				d, err := time.ParseInLocation(client.DateLayout, from, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", from)
				}
				since = d
			}

			result, err := a.client.Analytics(cmd.Context(), since)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tTOTAL")
			for _, c := range result.CategoryTotals {
				fmt.Fprintf(w, "%s\t%s\n", c.Key, c.Total.StringFixed(2))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "DAY\tDEPOSITS\tWITHDRAWALS")
			for _, d := range result.DailyTotals {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Day, d.Deposits.StringFixed(2), d.Withdrawals.StringFixed(2))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start as YYYY-MM-DD (default one month ago)")

	return cmd
}
