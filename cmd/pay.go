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

var payForm = model.DefaultPaymentForm()

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Manage payments and run the payment agent",
}

var payAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a payment or bill",
	Args:  cobra.NoArgs,
	RunE:  runPayAdd,
}

var payCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the payment agent to pay due bills from surplus budget",
	Args:  cobra.NoArgs,
	RunE:  runPayCheck,
}

var payStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Payment agent status and available budget",
	Args:  cobra.NoArgs,
	RunE:  runPayStatus,
}

func init() {
	f := payAddCmd.Flags()
	f.StringVar(&payForm.Name, "name", "", "Payment name")
	f.StringVar(&payForm.Amount, "amount", "", "Amount in rupees")
	f.StringVar(&payForm.Category, "category", payForm.Category, "Category: "+optionValues(model.Categories))
	f.StringVar(&payForm.Frequency, "frequency", payForm.Frequency, "Frequency: "+optionValues(model.Frequencies))
	f.StringVar(&payForm.Method, "method", payForm.Method, "Payment method: "+optionValues(model.Methods))
	f.StringVar(&payForm.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	f.BoolVar(&payForm.Autopay, "autopay", false, "Enable autopay")

	payCmd.AddCommand(payAddCmd, payCheckCmd, payStatusCmd)
	rootCmd.AddCommand(payCmd)
}

func optionValues(opts []model.Option) string {
	vals := make([]string, len(opts))
	for i, o := range opts {
		vals[i] = o.Value
	}
	return strings.Join(vals, ", ")
}

func checkOption(field string, opts []model.Option, v string) error {
	for _, o := range opts {
		if o.Value == v {
			return nil
		}
	}
	return apperr.Validation(fmt.Sprintf("Unknown %s %q. Use one of: %s.", field, v, optionValues(opts)))
}

func runPayAdd(cmd *cobra.Command, _ []string) error {
	if err := checkOption("category", model.Categories, payForm.Category); err != nil {
		return err
	}
	if err := checkOption("frequency", model.Frequencies, payForm.Frequency); err != nil {
		return err
	}
	if err := checkOption("method", model.Methods, payForm.Method); err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		p, err := payForm.ToPayment(s.UserID())
		if err != nil {
			return err
		}
		progress(cmd, "Adding payment...")
		saved, err := e.gw.InsertPayment(ctx, p)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "  "+cli.OK("Payment/Bill added successfully!"))
		fmt.Fprint(out, cli.RenderKV([][2]string{
			{"Name", saved.Name},
			{"Amount", cli.FormatRupees(saved.Amount)},
			{"Due", cli.FormatDate(saved.DueDate)},
			{"Autopay", yesNo(saved.Autopay)},
		}))
		return nil
	})
}

func runPayCheck(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Checking payments...")
		res, err := e.gw.CheckPayments(ctx, s.UserID())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		line := res.Summary()
		switch res.Action {
		case model.ActionError:
			fmt.Fprintln(out, "  "+cli.Error(line))
		case model.ActionNoSurplus:
			fmt.Fprintln(out, "  "+cli.Warn(line))
		default:
			fmt.Fprintln(out, "  "+cli.OK(line))
		}
		if res.Budget.Budget > 0 {
			fmt.Fprintln(out)
			printBudgetInfo(cmd, res.Budget)
		}
		return nil
	})
}

func runPayStatus(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Fetching payment status...")
		st, err := e.gw.PaymentStatus(ctx, s.UserID())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		printBudgetInfo(cmd, st.Budget)
		fmt.Fprintln(out)
		fmt.Fprint(out, cli.RenderKV([][2]string{
			{"Payment agent", agentState(st.Agents.PaymentAgent)},
			{"Pending bills", fmt.Sprint(st.Agents.PendingBills)},
		}))
		fmt.Fprintln(out)
		return nil
	})
}

func printBudgetInfo(cmd *cobra.Command, b model.BudgetInfo) {
	out := cmd.OutOrStdout()
	if b.Error != "" {
		fmt.Fprintln(out, "  "+cli.Warn(b.Error))
		return
	}
	fmt.Fprint(out, cli.RenderKV([][2]string{
		{"Budget", cli.FormatRupees(b.Budget)},
		{"Spent", cli.FormatRupees(b.Spent)},
		{"Available", cli.FormatRupees(b.Available)},
		{"Remaining", cli.FormatPercent(b.PercentageRemaining)},
		{"Safe to pay", yesNo(b.SafeToPay)},
	}))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
