package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/bundle"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/store"
	"fintrack/internal/vault"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// rootFlags are persistent overrides for env-based configuration.
type rootFlags struct {
	dbPath     string
	passphrase string
}

// app bundles the service objects constructed once per invocation and
// handed to the command handlers. No ambient globals.
type app struct {
	cfg        *config.Config
	logger     *log.Logger
	vault      *vault.Vault
	ledger     *store.Ledger
	budgets    *store.Budgets
	categories *store.Categories
	goals      *store.Goals
	templates  *store.Templates
	profile    *store.Profile
	engine     *services.RecurringEngine

	close func() error
}

func newApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" {
		cfg.SQLiteDBPath = flags.dbPath
	}
	if flags.passphrase != "" {
		cfg.Passphrase = flags.passphrase
	}

	logger := cli.SetupLogger(cfg.LogLevel)

	kv, err := cli.InitStorage(cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}

	v, err := cli.OpenVault(ctx, cfg, kv)
	if err != nil {
		kv.Close()
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		vault:      v,
		ledger:     store.NewLedger(ctx, v),
		budgets:    store.NewBudgets(ctx, v),
		categories: store.NewCategories(ctx, v),
		goals:      store.NewGoals(ctx, v),
		templates:  store.NewTemplates(ctx, v),
		profile:    store.NewProfile(ctx, v),
		close:      kv.Close,
	}
	a.engine = services.NewRecurringEngine(a.templates, a.ledger)
	return a, nil
}

// catchUpOnStart runs one catch-up pass at application start, the explicit
// replacement for the original's reactive re-triggering.
func (a *app) catchUpOnStart(ctx context.Context) {
	if !a.cfg.CatchUpOnStart {
		return
	}
	count, err := a.engine.CatchUp(ctx, core.Today())
	if err != nil {
		a.logger.Error("Startup catch-up failed", "error", err)
		return
	}
	if count > 0 {
		fmt.Printf("Automatically processed %d recurring transaction(s).\n", count)
	}
}

func main() {
	cli.LoadEnvFile()

	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "fintrack",
		Short:        "Local, passphrase-encrypted personal finance tracker",
		Long:         "fintrack records expenses and income, tracks budgets, goals and recurring transactions, and keeps everything encrypted on local disk under your passphrase.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Database path (overrides FINTRACK_DB_PATH)")
	root.PersistentFlags().StringVarP(&flags.passphrase, "passphrase", "p", "", "Vault passphrase (overrides FINTRACK_PASSPHRASE)")

	// run constructs the app, optionally runs the startup catch-up pass,
	// and tears everything down afterwards.
	run := func(catchUp bool, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close()
			if catchUp {
				a.catchUpOnStart(ctx)
			}
			return fn(ctx, a, args)
		}
	}

	root.AddCommand(
		summaryCmd(run),
		addCmd(run, core.KindExpense),
		addCmd(run, core.KindIncome),
		listCmd(run),
		catchupCmd(run),
		budgetCmd(run),
		categoryCmd(run),
		goalCmd(run),
		recurringCmd(run),
		profileCmd(run),
		exportCmd(run),
		importCmd(run),
		rotateKeyCmd(run),
		lockCmd(run),
		resetCmd(run),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type runFunc func(bool, func(context.Context, *app, []string) error) func(*cobra.Command, []string) error

func summaryCmd(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show this month's totals, budget status and goal progress",
		Args:  cobra.NoArgs,
		RunE: run(true, func(ctx context.Context, a *app, _ []string) error {
			today := core.Today()
			expenses := a.ledger.List(core.KindExpense)
			incomes := a.ledger.List(core.KindIncome)

			if name := a.profile.Name(); name != "" {
				fmt.Printf("Hello, %s!\n\n", name)
			}

			start, end := report.Window(report.PeriodThisMonth, 0, today)
			monthExp := report.Total(report.Filter(expenses, start, end))
			monthInc := report.Total(report.Filter(incomes, start, end))
			fmt.Printf("This month: income %s, expenses %s, net %s\n",
				monthInc, monthExp, core.Money{Cents: monthInc.Cents - monthExp.Cents})

			cmp := report.MonthOverMonth(expenses, today)
			fmt.Printf("Spending vs last month: %s (%+.1f%%)\n", cmp.Diff, cmp.PercentChange)

			if balances := report.RunningBalance(expenses, incomes); len(balances) > 0 {
				fmt.Printf("Running balance: %s\n", balances[len(balances)-1].Running)
			}

			statuses := report.BudgetStatuses(expenses, a.budgets.List(), today)
			if len(statuses) > 0 {
				fmt.Println("\nBudgets:")
				w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
				for _, s := range statuses {
					flag := ""
					if s.Over {
						flag = "OVER"
					}
					fmt.Fprintf(w, "  %s\t%s / %s\t%.0f%%\t%s\n", s.Category, s.Spent, s.Limit, s.Percent, flag)
				}
				w.Flush()
			}

			goals := a.goals.List()
			if len(goals) > 0 {
				fmt.Println("\nGoals:")
				for _, g := range goals {
					mark := " "
					if g.Achieved() {
						mark = "*"
					}
					fmt.Printf("  [%s] %s: %s / %s\n", mark, g.Name, g.CurrentAmount, g.TargetAmount)
				}
			}
			return nil
		}),
	}
}

func addCmd(run runFunc, kind core.Kind) *cobra.Command {
	labelName := "category"
	if kind == core.KindIncome {
		labelName = "source"
	}

	var dateStr, note string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("add-%s <amount> <%s>", kind, labelName),
		Short: fmt.Sprintf("Record an %s", kind),
		Args:  cobra.ExactArgs(2),
		RunE: run(true, func(ctx context.Context, a *app, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}
			date := core.Today()
			if dateStr != "" {
				if date, err = core.ParseDate(dateStr); err != nil {
					return err
				}
			}
			id, err := a.ledger.Add(ctx, core.Transaction{
				Kind:        kind,
				Amount:      amount,
				Label:       args[1],
				Date:        date,
				Description: note,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Recorded %s %s (%s) as %s\n", kind, amount, args[1], id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&note, "note", "", "Optional description")
	return cmd
}

func listCmd(run runFunc) *cobra.Command {
	var period string
	var months int
	cmd := &cobra.Command{
		Use:       "list <expenses|incomes>",
		Short:     "List ledger records in a period",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"expenses", "incomes"},
		RunE: run(true, func(ctx context.Context, a *app, args []string) error {
			kind := core.KindExpense
			if args[0] == "incomes" {
				kind = core.KindIncome
			}
			start, end := report.Window(report.Period(period), months, core.Today())
			records := report.Filter(a.ledger.List(kind), start, end)

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tAMOUNT\tLABEL\tDESCRIPTION\tID")
			for _, t := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Date, t.Amount, t.Label, t.Description, t.ID)
			}
			w.Flush()
			fmt.Printf("Total: %s (%d records)\n", report.Total(records), len(records))
			return nil
		}),
	}
	cmd.Flags().StringVar(&period, "period", string(report.PeriodAllTime), "this-month, last-n-months, this-year or all-time")
	cmd.Flags().IntVar(&months, "months", 3, "Month count for last-n-months")
	return cmd
}

func catchupCmd(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "catchup",
		Short: "Materialize all due recurring transactions",
		Args:  cobra.NoArgs,
		RunE: run(false, func(ctx context.Context, a *app, _ []string) error {
			count, err := a.engine.CatchUp(ctx, core.Today())
			if err != nil {
				return err
			}
			fmt.Printf("Processed %d recurring transaction(s).\n", count)
			return nil
		}),
	}
}

func budgetCmd(run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly category budgets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <category> <amount>",
			Short: "Set (or overwrite) the monthly limit for a category",
			Args:  cobra.ExactArgs(2),
			RunE: run(false, func(ctx context.Context, a *app, args []string) error {
				limit, err := core.ParseAmount(args[1])
				if err != nil {
					return fmt.Errorf("amount %q: %w", args[1], err)
				}
				return a.budgets.Set(ctx, args[0], limit)
			}),
		},
		&cobra.Command{
			Use:   "remove <category>",
			Short: "Remove the budget for a category",
			Args:  cobra.ExactArgs(1),
			RunE: run(false, func(ctx context.Context, a *app, args []string) error {
				return a.budgets.Remove(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show this month's spend against each budget",
			Args:  cobra.NoArgs,
			RunE: run(true, func(ctx context.Context, a *app, _ []string) error {
				statuses := report.BudgetStatuses(a.ledger.List(core.KindExpense), a.budgets.List(), core.Today())
				w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tSPENT\tLIMIT\tPERCENT\t")
				for _, s := range statuses {
					flag := ""
					if s.Over {
						flag = "OVER"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\n", s.Category, s.Spent, s.Limit, s.Percent, flag)
				}
				w.Flush()
				return nil
			}),
		},
	)
	return cmd
}

func categoryCmd(run runFunc) *cobra.Command {
	var income bool
	kindOf := func() core.Kind {
		if income {
			return core.KindIncome
		}
		return core.KindExpense
	}

	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage expense categories and income sources",
	}
	cmd.PersistentFlags().BoolVar(&income, "income", false, "Operate on income sources instead of expense categories")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a name (no-op if already present)",
			Args:  cobra.ExactArgs(1),
			RunE: run(false, func(ctx context.Context, a *app, args []string) error {
				return a.categories.Add(ctx, kindOf(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a name (existing records keep it)",
			Args:  cobra.ExactArgs(1),
			RunE: run(false, func(ctx context.Context, a *app, args []string) error {
				return a.categories.Remove(ctx, kindOf(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List names",
			Args:  cobra.NoArgs,
			RunE: run(false, func(ctx context.Context, a *app, _ []string) error {
				for _, name := range a.categories.List(kindOf()) {
					fmt.Println(name)
				}
				return nil
			}),
		},
	)
	return cmd
}

func goalCmd(run runFunc) *cobra.Command {
	var deadline, category string
	addGoal := &cobra.Command{
		Use:   "add <name> <target-amount>",
		Short: "Create a savings goal",
		Args:  cobra.ExactArgs(2),
		RunE: run(false, func(ctx context.Context, a *app, args []string) error {
			target, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			goal := core.Goal{Name: args[0], TargetAmount: target, Category: category}
			if deadline != "" {
				if goal.Deadline, err = core.ParseDate(deadline); err != nil {
					return err
				}
			}
			id, err := a.goals.Add(ctx, goal)
			if err != nil {
				return err
			}
			fmt.Printf("Created goal %s\n", id)
			return nil
		}),
	}
	addGoal.Flags().StringVar(&deadline, "deadline", "", "Optional deadline (YYYY-MM-DD)")
	addGoal.Flags().StringVar(&category, "category", "", "Optional linked category")

	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals",
	}
	cmd.AddCommand(
		addGoal,
		&cobra.Command{
			Use:   "contribute <id> <amount>",
			Short: "Add a contribution to a goal",
			Args:  cobra.ExactArgs(2),
			RunE: run(false, func(ctx context.Context, a *app, args []string) error {
				amount, err := core.ParseAmount(args[1])
				if err != nil {
					return fmt.Errorf("amount %q: %w", args[1], err)
				}
				return a.goals.Contribute(ctx, args[0], amount)
			}),
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Delete a goal",
			Args:  cobra.ExactArgs(1),
			RunE: run(false, func(ctx context.Context, a *app, args []string) error {
				return a.goals.Delete(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List goals",
			Args:  cobra.NoArgs,
			RunE: run(false, func(ctx context.Context, a *app, _ []string) error {
				w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSAVED\tTARGET\tDEADLINE\tID")
				for _, g := range a.goals.List() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.Name, g.CurrentAmount, g.TargetAmount, g.Deadline, g.ID)
				}
				w.Flush()
				return nil
			}),
		},
	)
	return cmd
}

func recurringCmd(run runFunc) *cobra.Command {
	var kindStr, startStr, endStr, note string
	addRec := &cobra.Command{
		Use:   "add <amount> <label> <frequency>",
		Short: "Create a recurring template (daily, weekly, biweekly, threeweekly, monthly, yearly)",
		Args:  cobra.ExactArgs(3),
		RunE: run(false, func(ctx context.Context, a *app, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}
			tmpl := core.RecurringTemplate{
				Kind:        core.Kind(kindStr),
				Amount:      amount,
				Label:       args[1],
				Frequency:   core.Frequency(args[2]),
				Description: note,
				StartDate:   core.Today(),
			}
			if startStr != "" {
				if tmpl.StartDate, err = core.ParseDate(startStr); err != nil {
					return err
				}
			}
			if endStr != "" {
				if tmpl.EndDate, err = core.ParseDate(endStr); err != nil {
					return err
				}
			}
			id, err := a.templates.Add(ctx, tmpl)
			if err != nil {
				return err
			}
			fmt.Printf("Created template %s\n", id)
			return nil
		}),
	}
	addRec.Flags().StringVar(&kindStr, "kind", string(core.KindExpense), "expense or income")
	addRec.Flags().StringVar(&startStr, "start", "", "Start date (YYYY-MM-DD, default today)")
	addRec.Flags().StringVar(&endStr, "end", "", "Optional end date (YYYY-MM-DD)")
	addRec.Flags().StringVar(&note, "note", "", "Optional description")

	setActive := func(active bool) func(ctx context.Context, a *app, args []string) error {
		return func(ctx context.Context, a *app, args []string) error {
			return a.templates.SetActive(ctx, args[0], active)
		}
	}

	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring transaction templates",
	}
	cmd.AddCommand(
		addRec,
		&cobra.Command{
			Use:   "pause <id>",
			Short: "Deactivate a template (its cursor freezes)",
			Args:  cobra.ExactArgs(1),
			RunE:  run(false, setActive(false)),
		},
		&cobra.Command{
			Use:   "resume <id>",
			Short: "Reactivate a template (catch-up resumes from the frozen cursor)",
			Args:  cobra.ExactArgs(1),
			RunE:  run(false, setActive(true)),
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Delete a template; records it emitted stay in the ledger",
			Args:  cobra.ExactArgs(1),
			RunE: run(false, func(ctx context.Context, a *app, args []string) error {
				return a.templates.Delete(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List templates",
			Args:  cobra.NoArgs,
			RunE: run(false, func(ctx context.Context, a *app, _ []string) error {
				w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
				fmt.Fprintln(w, "KIND\tAMOUNT\tLABEL\tFREQUENCY\tSTART\tEND\tLAST\tACTIVE\tID")
				for _, t := range a.templates.List() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
						t.Kind, t.Amount, t.Label, t.Frequency,
						t.StartDate, t.EndDate, t.LastProcessedDate, t.IsActive, t.ID)
				}
				w.Flush()
				return nil
			}),
		},
	)
	return cmd
}

func profileCmd(run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the user profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-name <name>",
		Short: "Set the display name",
		Args:  cobra.ExactArgs(1),
		RunE: run(false, func(ctx context.Context, a *app, args []string) error {
			return a.profile.SetName(ctx, args[0])
		}),
	})
	return cmd
}

func exportCmd(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export all partitions (still encrypted) to a bundle file",
		Args:  cobra.ExactArgs(1),
		RunE: run(false, func(ctx context.Context, a *app, args []string) error {
			if err := bundle.Export(ctx, a.vault, args[0]); err != nil {
				return err
			}
			fmt.Printf("Exported vault to %s\n", args[0])
			return nil
		}),
	}
}

func importCmd(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bundle file, replacing partition contents verbatim",
		Args:  cobra.ExactArgs(1),
		RunE: run(false, func(ctx context.Context, a *app, args []string) error {
			if err := bundle.Import(ctx, a.vault, args[0]); err != nil {
				return err
			}
			fmt.Println("Bundle imported. Data encrypted under a different passphrase stays unreadable until you unlock with it.")
			return nil
		}),
	}
}

func rotateKeyCmd(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-key <current-passphrase> <new-passphrase>",
		Short: "Re-encrypt every partition under a new passphrase",
		Args:  cobra.ExactArgs(2),
		RunE: run(false, func(ctx context.Context, a *app, args []string) error {
			if err := a.vault.RotateKey(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("Passphrase changed.")
			return nil
		}),
	}
}

func lockCmd(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Clear the active key and any remembered passphrase",
		Args:  cobra.NoArgs,
		RunE: run(false, func(ctx context.Context, a *app, _ []string) error {
			return a.vault.Lock(ctx)
		}),
	}
}

func resetCmd(run runFunc) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase every partition and return to first-run state (irreversible)",
		Args:  cobra.NoArgs,
		RunE: run(false, func(ctx context.Context, a *app, _ []string) error {
			if !force {
				return fmt.Errorf("refusing to erase all data without --force")
			}
			return a.vault.ResetAll(ctx)
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm irreversible erase")
	return cmd
}
