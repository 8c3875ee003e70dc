package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/model"

	"github.com/spf13/cobra"
)

var flagPriority string

var billsCmd = &cobra.Command{
	Use:   "bills",
	Short: "Pending bills, most urgent first",
	Args:  cobra.NoArgs,
	RunE:  runBills,
}

var autopayCmd = &cobra.Command{
	Use:   "autopay",
	Short: "Payments with autopay enabled",
	Args:  cobra.NoArgs,
	RunE:  runAutopay,
}

func init() {
	billsCmd.Flags().StringVar(&flagPriority, "priority", "", "Only show high, medium or low")
	rootCmd.AddCommand(billsCmd, autopayCmd)
}

func runBills(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Fetching bills...")
		sum, err := e.gw.PendingBills(ctx, s.UserID())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		today := time.Now()
		bills := append([]model.Bill(nil), sum.Bills...)
		model.SortBills(bills, today)

		want := model.Priority(strings.ToLower(flagPriority))
		rows := make([][]string, 0, len(bills))
		for _, b := range bills {
			p := b.Classify(today)
			if want != "" && p != want {
				continue
			}
			flags := ""
			if b.Overdue(today) {
				flags = "overdue"
			} else if b.Autopay {
				flags = "autopay"
			}
			rows = append(rows, []string{
				strings.ToUpper(string(p)),
				cli.Truncate(b.Name, 28),
				model.LabelFor(model.Categories, b.Category),
				cli.FormatRupees(b.Amount),
				cli.FormatDue(b.DueDate, today),
				flags,
			})
		}

		fmt.Fprintln(out)
		if len(rows) == 0 {
			msg := "No pending bills."
			if sum.Message != "" {
				msg = sum.Message
			}
			fmt.Fprintln(out, "  "+cli.Muted(msg))
			fmt.Fprintln(out)
			return nil
		}
		rows = append(rows, []string{"---"}, []string{"", fmt.Sprintf("%d bills", len(rows)), "", cli.FormatRupees(sum.TotalAmount), "", ""})
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:     "Pending bills",
			Headers:   []string{"Priority", "Name", "Category", "Amount", "Due", ""},
			Rows:      rows,
			LeftAlign: map[int]bool{1: true, 2: true, 4: true, 5: true},
		}))
		fmt.Fprintln(out)
		return nil
	})
}

func runAutopay(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		progress(cmd, "Fetching automated payments...")
		payments, err := e.gw.AutopayPayments(ctx, s.UserID())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		if len(payments) == 0 {
			fmt.Fprintln(out, "  "+cli.Muted("No automated payments. Add one with `pennypal pay add`."))
			fmt.Fprintln(out)
			return nil
		}

		var total float64
		rows := make([][]string, 0, len(payments)+2)
		for _, p := range payments {
			if p.Active() {
				total += p.Amount
			}
			rows = append(rows, []string{
				cli.Truncate(p.Name, 28),
				model.LabelFor(model.Categories, p.Category),
				cli.FormatRupees(p.Amount),
				model.LabelFor(model.Frequencies, p.Frequency),
				model.LabelFor(model.Methods, p.Method),
				cli.FormatDate(p.DueDate),
				p.Status,
			})
		}
		rows = append(rows, []string{"---"}, []string{"Active total", "", cli.FormatRupees(total), "", "", "", ""})
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:     "Automated payments",
			Headers:   []string{"Name", "Category", "Amount", "Frequency", "Method", "Due", "Status"},
			Rows:      rows,
			LeftAlign: map[int]bool{1: true, 3: true, 4: true, 5: true, 6: true},
		}))
		fmt.Fprintln(out)
		return nil
	})
}
