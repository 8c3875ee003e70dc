package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/model"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Weekly budget, spending and insights",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

var spendingCmd = &cobra.Command{
	Use:   "spending",
	Short: "Spending against the weekly budget",
	Args:  cobra.NoArgs,
	RunE:  runSpending,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Health of the budgeting agents",
	Args:  cobra.NoArgs,
	RunE:  runAgents,
}

func init() {
	rootCmd.AddCommand(dashboardCmd, spendingCmd, agentsCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Fetching dashboard...")
		d, err := e.gw.Dashboard(ctx, s.UserID())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		name := d.User.Name
		if name == "" {
			name = s.DisplayName()
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderTitle("PENNYPAL · "+name))
		fmt.Fprintln(out)
		printSpending(out, d.Spending)

		if len(d.Insights) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Insights")
			for _, in := range d.Insights {
				fmt.Fprintf(out, "  • %s\n", in.Text)
			}
		}
		fmt.Fprintln(out)
		return nil
	})
}

func runSpending(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Fetching spending...")
		sp, err := e.gw.Spending(ctx, s.UserID())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		printSpending(out, *sp)
		fmt.Fprintln(out)
		return nil
	})
}

func printSpending(out io.Writer, sp model.Spending) {
	fmt.Fprint(out, cli.RenderKV([][2]string{
		{"Weekly budget", cli.FormatRupees(sp.Budget)},
		{"Spent", cli.FormatRupees(sp.Total)},
		{"Remaining", cli.FormatRupees(sp.Remaining())},
	}))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+cli.RenderBudgetBar(sp.Percentage, 40))
	switch {
	case sp.Budget <= 0:
		fmt.Fprintln(out, "  "+cli.Muted("No weekly budget set. Run `pennypal budget set <amount>`."))
	case sp.Total > sp.Budget:
		fmt.Fprintln(out, "  "+cli.Error("Over budget by "+cli.FormatRupees(sp.Total-sp.Budget)))
	}
}

func runAgents(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Fetching agent status...")
		st, err := e.gw.AgentStatus(ctx, s.UserID())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:     "Agents",
			Headers:   []string{"Agent", "Status"},
			LeftAlign: map[int]bool{1: true},
			Rows: [][]string{
				{"Budget agent", agentState(st.BudgetAgent)},
				{"Payment agent", agentState(st.PaymentAgent)},
				{"NLP agent", agentState(st.NLPAgent)},
				{"Orchestrator", agentState(st.Orchestrator)},
				{"---"},
				{"Pending bills", fmt.Sprint(st.PendingBills)},
			},
		}))
		fmt.Fprintln(out)
		return nil
	})
}

func agentState(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
