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

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Weekly budget planning",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <amount>",
	Short: "Set the weekly budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetSet,
}

var budgetCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the budget agent to analyse this week",
	Args:  cobra.NoArgs,
	RunE:  runBudgetCheck,
}

func init() {
	budgetCmd.AddCommand(budgetSetCmd, budgetCheckCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	amount, err := model.ParseAmount(args[0])
	if err != nil {
		return err
	}
	if amount <= 0 {
		return apperr.Validation("Budget must be greater than zero.")
	}

	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Saving weekly budget...")
		if err := e.gw.SetWeeklyBudget(ctx, s.UserID(), amount); err != nil {
			return fmt.Errorf("failed to set budget: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "  "+cli.OK("Weekly budget set to "+cli.FormatRupees(amount)))
		return nil
	})
}

func runBudgetCheck(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Analysing budget...")
		res, err := e.gw.BudgetCheck(ctx, s.UserID())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderTitle("Budget analysis"))
		fmt.Fprintln(out)
		text := strings.TrimSpace(string(res.Response))
		if text == "" {
			text = cli.Muted("The budget agent had nothing to report.")
		}
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintln(out, "  "+line)
		}
		if res.Timestamp != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  "+cli.Muted("as of "+res.Timestamp))
		}
		fmt.Fprintln(out)
		return nil
	})
}
