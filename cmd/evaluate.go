package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expediterhq/loadpilot/internal/cli"
	"github.com/expediterhq/loadpilot/internal/model"
)

var (
	flagEvalOrigin      string
	flagEvalDest        string
	flagEvalLoaded      float64
	flagEvalDeadhead    float64
	flagEvalRate        float64
	flagEvalRPM         float64
	flagEvalTolls       float64
	flagEvalOther       float64
	flagEvalDaysIdle    int
	flagEvalLimitedAlts bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a candidate load against your operating costs",
	Example: `  loadpilot evaluate --loaded-miles 350 --rpm 1.20
  loadpilot evaluate --origin "Miami, FL" --dest "Atlanta, GA" --loaded-miles 620 --deadhead-miles 40 --rate 480 --days-idle 2`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&flagEvalOrigin, "origin", "", "Pickup location")
	evaluateCmd.Flags().StringVar(&flagEvalDest, "dest", "", "Drop-off location")
	evaluateCmd.Flags().Float64Var(&flagEvalLoaded, "loaded-miles", 0, "Loaded (revenue) miles")
	evaluateCmd.Flags().Float64Var(&flagEvalDeadhead, "deadhead-miles", 0, "Deadhead miles to pickup")
	evaluateCmd.Flags().Float64Var(&flagEvalRate, "rate", 0, "Flat rate offered in USD (wins over --rpm)")
	evaluateCmd.Flags().Float64Var(&flagEvalRPM, "rpm", 0, "Rate per mile in USD")
	evaluateCmd.Flags().Float64Var(&flagEvalTolls, "tolls", 0, "Expected tolls in USD")
	evaluateCmd.Flags().Float64Var(&flagEvalOther, "other", 0, "Other trip costs in USD")
	evaluateCmd.Flags().IntVar(&flagEvalDaysIdle, "days-idle", 0, "Days sitting without a load")
	evaluateCmd.Flags().BoolVar(&flagEvalLimitedAlts, "limited-alts", false, "Few alternative loads on the board")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng := newEngine(cfg)

	input := model.LoadInput{
		Origin:        flagEvalOrigin,
		Destination:   flagEvalDest,
		LoadedMiles:   flagEvalLoaded,
		DeadheadMiles: flagEvalDeadhead,
		Rate:          flagEvalRate,
		RatePerMile:   flagEvalRPM,
		Tolls:         flagEvalTolls,
		OtherCosts:    flagEvalOther,
	}

	var override *model.SpecialFactors
	if flagEvalDaysIdle > 0 || flagEvalLimitedAlts {
		override = &model.SpecialFactors{
			DaysIdle:            flagEvalDaysIdle,
			LimitedAlternatives: flagEvalLimitedAlts,
		}
	}

	eval, err := eng.Evaluate(input, override)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}

	printEvaluation(eval)
	return nil
}

func printEvaluation(eval model.Evaluation) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("LOAD EVALUATION"))
	fmt.Println()

	route := "-"
	if eval.Input.Origin != "" || eval.Input.Destination != "" {
		route = fmt.Sprintf("%s → %s", orDash(eval.Input.Origin), orDash(eval.Input.Destination))
	}

	rows := [][]string{
		{"Route", route},
		{"Loaded Miles", cli.FormatMiles(eval.Input.LoadedMiles)},
		{"Deadhead Miles", cli.FormatMiles(eval.Input.DeadheadMiles)},
		{"Trip Time", eval.Trip.Format() + fmt.Sprintf("  (%d fuel stops)", eval.Trip.FuelStops)},
		{"---"},
		{"Total Charge", cli.FormatCurrency(eval.TotalCharge)},
		{"Rate Per Mile", cli.FormatRatePerMile(eval.ActualRPM)},
		{"Trip Expenses", cli.FormatCurrency(eval.Costs.TotalExpenses)},
		{"Net Profit", cli.RenderProfit(eval.NetProfit)},
		{"Profit Per Mile", cli.FormatRatePerMile(eval.ProfitMile)},
		{"Margin", cli.FormatPercent(eval.Margin)},
	}

	if eval.Factors.DaysIdle > 0 || eval.Factors.AreaIsBad ||
		eval.Factors.RelocatesToGoodArea || eval.Factors.LimitedAlternatives {
		rows = append(rows, []string{"---"})
		if eval.Factors.DaysIdle > 0 {
			rows = append(rows, []string{"Days Idle", fmt.Sprintf("%d", eval.Factors.DaysIdle)})
		}
		if eval.Factors.AreaIsBad {
			rows = append(rows, []string{"Origin Market", "weak"})
		}
		if eval.Factors.RelocatesToGoodArea {
			rows = append(rows, []string{"Destination Market", "strong"})
		}
		if eval.Factors.LimitedAlternatives {
			rows = append(rows, []string{"Alternatives", "limited"})
		}
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Printf("  Verdict: %s  (confidence: %s)\n", cli.RenderVerdict(eval.Decision.Verdict), eval.Decision.Confidence)
	if eval.Decision.Score > 0 {
		fmt.Printf("  Factor score: %d\n", eval.Decision.Score)
	}
	fmt.Printf("  %s\n", eval.Decision.Reason)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
