package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"budgetbox/internal/core"
	"budgetbox/internal/services"
	"budgetbox/internal/storage"

	"github.com/spf13/cobra"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <amount>",
		Short: "Set a budget field for the current month",
		Long: fmt.Sprintf(`Set one field of the current month's budget. The edit is saved
locally right away; when the server is reachable it syncs in the background.

Fields: %s`, strings.Join(core.Fields, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: must be a number", args[1])
			}

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.requireSession(); err != nil {
				return err
			}

			b, err := app.coord.Apply(ctx, args[0], amount)
			switch {
			case errors.Is(err, core.ErrUnknownField):
				return fmt.Errorf("unknown field %q, expected one of: %s", args[0], strings.Join(core.Fields, ", "))
			case errors.Is(err, core.ErrNegativeAmount), errors.Is(err, core.ErrInvalidAmount):
				return fmt.Errorf("invalid amount %v: %w", amount, err)
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s = %.2f for %s (%s)\n", args[0], amount, b.Period, b.SyncStatus)
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [period]",
		Short: "Show a month's budget with analytics",
		Long: `Show the budget for a month (YYYY-MM), defaulting to the current
one, along with burn rate, savings potential and any spending warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.requireSession(); err != nil {
				return err
			}

			var b core.Budget
			if len(args) == 1 {
				b, err = app.repo.GetBudget(ctx, app.session.ID, args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no budget for %s", args[0])
				}
			} else {
				b, err = app.coord.Current(ctx)
				if errors.Is(err, services.ErrNoBudget) {
					return errors.New("no budget for the current month, use 'budgetbox set' to start one")
				}
			}
			if err != nil {
				return err
			}

			printBudget(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func printBudget(out io.Writer, b core.Budget) {
	a := core.Analyze(b)

	fmt.Fprintf(out, "Budget for %s (%s)\n\n", b.Period, b.SyncStatus)
	fmt.Fprintf(out, "  Income          %10.2f\n\n", b.Income)
	fmt.Fprintf(out, "  Monthly bills   %10.2f\n", b.MonthlyBills)
	fmt.Fprintf(out, "  Food            %10.2f\n", b.Food)
	fmt.Fprintf(out, "  Transport       %10.2f\n", b.Transport)
	fmt.Fprintf(out, "  Subscriptions   %10.2f\n", b.Subscriptions)
	fmt.Fprintf(out, "  Miscellaneous   %10.2f\n", b.Miscellaneous)
	fmt.Fprintf(out, "  Total expenses  %10.2f\n\n", core.TotalExpenses(b))
	fmt.Fprintf(out, "  Burn rate       %9.1f%%\n", a.BurnRate)
	fmt.Fprintf(out, "  Savings         %10.2f\n", a.SavingsPotential)

	if len(a.Warnings) > 0 {
		fmt.Fprintln(out)
		for _, w := range a.Warnings {
			fmt.Fprintf(out, "  ! %s\n", w)
		}
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the current month's budget to the server now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.requireSession(); err != nil {
				return err
			}

			b, err := app.coord.Sync(ctx)
			switch {
			case errors.Is(err, services.ErrOffline):
				return errors.New("server unreachable, edits stay local until connectivity returns")
			case errors.Is(err, services.ErrNoBudget):
				return errors.New("nothing to sync: no budget for the current month")
			case err != nil:
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Synced %s", b.Period)
			if b.LastSyncAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), " at %s", b.LastSyncAt.Local().Format("15:04:05"))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List all stored months, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.requireSession(); err != nil {
				return err
			}

			budgets, err := app.repo.ListBudgets(ctx, app.session.ID)
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No budgets stored yet")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s  %10s  %10s  %8s  %s\n", "PERIOD", "INCOME", "EXPENSES", "BURN", "STATUS")
			for _, b := range budgets {
				a := core.Analyze(b)
				fmt.Fprintf(out, "%-8s  %10.2f  %10.2f  %7.1f%%  %s\n",
					b.Period, b.Income, core.TotalExpenses(b), a.BurnRate, b.SyncStatus)
			}
			return nil
		},
	}
}
