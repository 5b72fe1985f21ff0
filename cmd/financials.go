package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/expediterhq/loadpilot/internal/cli"
	"github.com/expediterhq/loadpilot/internal/finance"
	"github.com/expediterhq/loadpilot/internal/model"
)

var financialsCmd = &cobra.Command{
	Use:   "financials",
	Short: "Financial dashboard: KPIs, revenue trend, expense breakdown",
	RunE:  runFinancials,
}

func init() {
	rootCmd.AddCommand(financialsCmd)
}

func runFinancials(_ *cobra.Command, _ []string) error {
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
		return enc.Encode(view)
	}

	printFinancials(view, finance.CanonicalPeriod(flagPeriod), loader.Skipped())
	return nil
}

func printFinancials(view model.FinancialView, period string, skipped int) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FINANCIALS  %s", periodLabel(period))))
	fmt.Println()

	if view.Stale {
		fmt.Printf("  %s\n\n", cli.RenderStaleNotice())
	}

	if len(view.Loads) == 0 && len(view.Expenses) == 0 {
		fmt.Println("  No records in this period.")
		return
	}

	k := view.KPIs
	rows := [][]string{
		{"Loads", cli.FormatNumber(int64(len(view.Loads)))},
		{"Expenses Logged", cli.FormatNumber(int64(len(view.Expenses)))},
		{"---"},
		{"Total Revenue", cli.FormatCurrency(k.TotalRevenue)},
		{"Total Expenses", cli.FormatCurrency(k.TotalExpenses)},
		{"Net Profit", cli.RenderProfit(k.NetProfit)},
		{"Margin", cli.FormatPercent(k.Margin)},
		{"---"},
		{"Total Miles", cli.FormatMiles(k.TotalMiles)},
		{"Avg Rate/Mile", cli.FormatRatePerMile(k.AverageRatePerMile)},
		{"Cost/Mile", cli.FormatRatePerMile(k.CostPerMile)},
		{"Loaded Efficiency", cli.FormatPercent(k.LoadedMileEfficiency)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if trend := monthlyRevenue(view.Loads); len(trend) > 1 {
		fmt.Println()
		fmt.Printf("  Revenue by month: %s\n", cli.RenderSparkline(trend))
	}

	if bars := expenseBreakdown(view.Expenses); len(bars) > 0 {
		fmt.Println()
		fmt.Println("  Expenses by category:")
		maxAmount := bars[0].amount
		for _, b := range bars {
			fmt.Println(cli.RenderHorizontalBar(b.category, b.amount, maxAmount, 24))
		}
	}

	printRecentLoads(view.Loads, 10)

	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d malformed records skipped\n", skipped)
	}
}

func printRecentLoads(loads []model.LoadRecord, limit int) {
	if len(loads) == 0 {
		return
	}

	// Loads arrive newest-first from the archive but unordered from the
	// remote store; sort before slicing.
	sorted := make([]model.LoadRecord, len(loads))
	copy(sorted, loads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([][]string, 0, len(sorted))
	for _, l := range sorted {
		rows = append(rows, []string{
			l.Date,
			fmt.Sprintf("%s → %s", l.Origin, l.Destination),
			cli.FormatMiles(l.TotalMiles),
			cli.FormatCurrency(l.TotalCharge),
			cli.FormatCurrency(l.NetProfit),
			l.PaymentStatus,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Recent Loads",
		Headers: []string{"Date", "Route", "Miles", "Charge", "Profit", "Payment"},
		Rows:    rows,
	}))
}

// monthlyRevenue buckets revenue by YYYY-MM, returned in month order.
func monthlyRevenue(loads []model.LoadRecord) []float64 {
	byMonth := make(map[string]float64)
	for _, l := range loads {
		if len(l.Date) < 7 {
			continue
		}
		byMonth[l.Date[:7]] += l.TotalCharge
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	values := make([]float64, 0, len(months))
	for _, m := range months {
		values = append(values, byMonth[m])
	}
	return values
}

type categoryTotal struct {
	category string
	amount   float64
}

// expenseBreakdown sums expenses per category, largest first.
func expenseBreakdown(expenses []model.ExpenseRecord) []categoryTotal {
	byCategory := make(map[string]float64)
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = "other"
		}
		byCategory[cat] += e.Amount
	}

	out := make([]categoryTotal, 0, len(byCategory))
	for c, amt := range byCategory {
		out = append(out, categoryTotal{category: c, amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].amount > out[j].amount })
	return out
}

func periodLabel(period string) string {
	if period == "all" {
		return "All Time"
	}
	return period
}
