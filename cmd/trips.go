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
	flagTripDate     string
	flagTripOrigin   string
	flagTripDest     string
	flagTripLoaded   float64
	flagTripDeadhead float64
	flagTripRate     float64
	flagTripTolls    float64
	flagTripCompany  string
	flagTripLoadNum  string
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "List recorded trips",
	RunE:  runTripsList,
}

var tripsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a completed trip",
	Example: `  loadpilot trips add --date 2026-08-20 --origin "Atlanta, GA" --dest "Dallas, TX" \
      --loaded-miles 780 --deadhead-miles 40 --rate 1150`,
	RunE: runTripsAdd,
}

var tripsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a recorded trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripsRm,
}

func init() {
	tripsAddCmd.Flags().StringVar(&flagTripDate, "date", "", "Trip date (YYYY-MM-DD, default today)")
	tripsAddCmd.Flags().StringVar(&flagTripOrigin, "origin", "", "Pickup location")
	tripsAddCmd.Flags().StringVar(&flagTripDest, "dest", "", "Drop-off location")
	tripsAddCmd.Flags().Float64Var(&flagTripLoaded, "loaded-miles", 0, "Loaded miles")
	tripsAddCmd.Flags().Float64Var(&flagTripDeadhead, "deadhead-miles", 0, "Deadhead miles")
	tripsAddCmd.Flags().Float64Var(&flagTripRate, "rate", 0, "Flat rate in USD")
	tripsAddCmd.Flags().Float64Var(&flagTripTolls, "tolls", 0, "Tolls in USD")
	tripsAddCmd.Flags().StringVar(&flagTripCompany, "company", "", "Broker or shipper name")
	tripsAddCmd.Flags().StringVar(&flagTripLoadNum, "load-number", "", "Load or confirmation number")
	_ = tripsAddCmd.MarkFlagRequired("loaded-miles")
	_ = tripsAddCmd.MarkFlagRequired("rate")

	tripsCmd.AddCommand(tripsAddCmd)
	tripsCmd.AddCommand(tripsRmCmd)
	rootCmd.AddCommand(tripsCmd)
}

func runTripsList(_ *cobra.Command, _ []string) error {
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
		return enc.Encode(view.Loads)
	}

	if len(view.Loads) == 0 {
		fmt.Println("\n  No trips in this period.")
		return nil
	}

	sorted := make([]model.LoadRecord, len(view.Loads))
	copy(sorted, view.Loads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	rows := make([][]string, 0, len(sorted))
	for _, l := range sorted {
		rows = append(rows, []string{
			l.ID,
			l.Date,
			fmt.Sprintf("%s → %s", l.Origin, l.Destination),
			cli.FormatMiles(l.TotalMiles),
			cli.FormatRatePerMile(l.RatePerMile),
			cli.FormatCurrency(l.TotalCharge),
			cli.FormatCurrency(l.NetProfit),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Date", "Route", "Miles", "RPM", "Charge", "Profit"},
		Rows:    rows,
	}))
	return nil
}

func runTripsAdd(_ *cobra.Command, _ []string) error {
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

	// Price the trip with the decision engine so the stored record carries
	// a consistent cost and profit breakdown.
	eng := newEngine(cfg)
	eval, err := eng.Evaluate(model.LoadInput{
		Origin:        flagTripOrigin,
		Destination:   flagTripDest,
		LoadedMiles:   flagTripLoaded,
		DeadheadMiles: flagTripDeadhead,
		Rate:          flagTripRate,
		Tolls:         flagTripTolls,
	}, nil)
	if err != nil {
		return err
	}

	date := flagTripDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
	}

	id := fmt.Sprintf("trip-%d", time.Now().UnixNano())
	doc := store.Document{
		"id":            id,
		"date":          date,
		"origin":        flagTripOrigin,
		"destination":   flagTripDest,
		"companyName":   flagTripCompany,
		"loadNumber":    flagTripLoadNum,
		"loadedMiles":   flagTripLoaded,
		"deadheadMiles": flagTripDeadhead,
		"totalMiles":    eval.Input.TotalMiles(),
		"totalCharge":   eval.TotalCharge,
		"rpm":           eval.Input.RatePerMile,
		"netProfit":     eval.NetProfit,
		"operatingCost": eval.Costs.TotalExpenses,
		"fuelCost":      eval.Costs.FuelCost,
		"tolls":         flagTripTolls,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := rs.PutTrip(ctx, cfg.Store.Principal, id, doc); err != nil {
		return fmt.Errorf("saving trip: %w", err)
	}

	fmt.Printf("  Recorded trip %s: %s, net %s\n",
		id, cli.FormatCurrency(eval.TotalCharge), cli.FormatCurrency(eval.NetProfit))
	return nil
}

func runTripsRm(_ *cobra.Command, args []string) error {
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
	if err := rs.DeleteTrip(ctx, cfg.Store.Principal, args[0]); err != nil {
		return fmt.Errorf("deleting trip: %w", err)
	}

	fmt.Printf("  Deleted trip %s\n", args[0])
	return nil
}
