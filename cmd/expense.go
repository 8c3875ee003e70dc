package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagExpenseCategory string
	flagExpenseName     string
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record spending",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Record an expense against this week's budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseAdd,
}

func init() {
	expenseAddCmd.Flags().StringVar(&flagExpenseCategory, "category", "food", "Expense category")
	expenseAddCmd.Flags().StringVar(&flagExpenseName, "name", "", "What the money was spent on")
	expenseCmd.AddCommand(expenseAddCmd)
	rootCmd.AddCommand(expenseCmd)
}

func runExpenseAdd(cmd *cobra.Command, args []string) error {
	amount, err := model.ParseAmount(args[0])
	if err != nil {
		return err
	}
	if amount <= 0 {
		return apperr.Validation("Amount must be greater than zero.")
	}
	category := strings.ToLower(strings.TrimSpace(flagExpenseCategory))
	name := strings.TrimSpace(flagExpenseName)
	if name == "" {
		name = model.LabelFor(model.Categories, category)
	}

	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Recording expense...")
		res, err := e.gw.AddExpense(ctx, s.UserID(), amount, category, name)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !res.Success {
			fmt.Fprintln(out, "  "+cli.Warn("The server did not confirm the expense."))
		} else {
			fmt.Fprintln(out, "  "+cli.OK(fmt.Sprintf("Recorded %s for %s", cli.FormatRupees(amount), name)))
		}
		if alerts := strings.TrimSpace(string(res.Alerts)); alerts != "" {
			for _, line := range strings.Split(alerts, "\n") {
				fmt.Fprintln(out, "  "+cli.Warn(line))
			}
		}
		return nil
	})
}
