package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/expediterhq/loadpilot/internal/cli"
	"github.com/expediterhq/loadpilot/internal/model"
	"github.com/expediterhq/loadpilot/internal/store"
)

var (
	flagExpDate        string
	flagExpAmount      float64
	flagExpCategory    string
	flagExpDescription string
	flagExpDeductible  bool
)

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "List recorded business expenses",
	RunE:  runExpensesList,
}

var expensesAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Record a business expense",
	Example: `  loadpilot expenses add --amount 89.99 --category fuel --description "Pilot #214"`,
	RunE:    runExpensesAdd,
}

var expensesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a recorded expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesRm,
}

func init() {
	expensesAddCmd.Flags().StringVar(&flagExpDate, "date", "", "Expense date (YYYY-MM-DD, default today)")
	expensesAddCmd.Flags().Float64Var(&flagExpAmount, "amount", 0, "Amount in USD")
	expensesAddCmd.Flags().StringVar(&flagExpCategory, "category", "other", "Category (fuel, maintenance, food, insurance, ...)")
	expensesAddCmd.Flags().StringVar(&flagExpDescription, "description", "", "Free-form description")
	expensesAddCmd.Flags().BoolVar(&flagExpDeductible, "deductible", true, "Tax deductible")
	_ = expensesAddCmd.MarkFlagRequired("amount")

	expensesCmd.AddCommand(expensesAddCmd)
	expensesCmd.AddCommand(expensesRmCmd)
	rootCmd.AddCommand(expensesCmd)
}

func runExpensesList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}

	var view model.FinancialView
	if flagOffline {
		view, err = loader.LoadArchived(flagPeriod)
	} else {
		view, err = loader.Load(context.Background(), flagPeriod)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view.Expenses)
	}

	if len(view.Expenses) == 0 {
		fmt.Println("\n  No expenses in this period.")
		return nil
	}

	sorted := make([]model.ExpenseRecord, len(view.Expenses))
	copy(sorted, view.Expenses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	var total float64
	rows := make([][]string, 0, len(sorted)+2)
	for _, e := range sorted {
		total += e.Amount
		rows = append(rows, []string{
			e.ID,
			e.Date,
			e.Category,
			e.Description,
			cli.FormatCurrency(e.Amount),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"", "", "", "Total", cli.FormatCurrency(total)})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Date", "Category", "Description", "Amount"},
		Rows:    rows,
	}))
	return nil
}

func runExpensesAdd(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rs, err := newRecordStore(cfg)
	if err != nil {
		return err
	}
	if cfg.Store.Principal == "" {
		return fmt.Errorf("no principal configured; set store.principal in %s", configPathHint())
	}
	if flagExpAmount <= 0 {
		return fmt.Errorf("--amount must be positive")
	}

	date := flagExpDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
	}

	id := fmt.Sprintf("exp-%d", time.Now().UnixNano())
	doc := store.Document{
		"id":          id,
		"date":        date,
		"amount":      flagExpAmount,
		"category":    flagExpCategory,
		"type":        flagExpCategory,
		"description": flagExpDescription,
		"deductible":  flagExpDeductible,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := rs.PutExpense(ctx, cfg.Store.Principal, id, doc); err != nil {
		return fmt.Errorf("saving expense: %w", err)
	}

	fmt.Printf("  Recorded expense %s: %s (%s)\n", id, cli.FormatCurrency(flagExpAmount), flagExpCategory)
	return nil
}

func runExpensesRm(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rs, err := newRecordStore(cfg)
	if err != nil {
		return err
	}
	if cfg.Store.Principal == "" {
		return fmt.Errorf("no principal configured; set store.principal in %s", configPathHint())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := rs.DeleteExpense(ctx, cfg.Store.Principal, args[0]); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	fmt.Printf("  Deleted expense %s\n", args[0])
	return nil
}
