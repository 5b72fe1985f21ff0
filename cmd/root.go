// Package cmd implements the loadpilot CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expediterhq/loadpilot/internal/config"
	"github.com/expediterhq/loadpilot/internal/engine"
	"github.com/expediterhq/loadpilot/internal/finance"
	"github.com/expediterhq/loadpilot/internal/store"
)

var (
	flagPeriod  string
	flagQuiet   bool
	flagOffline bool
	flagJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "loadpilot",
	Short: "Freight load decision and financial tracking CLI",
	Long:  "Evaluate candidate loads against your real operating costs and track trip financials.",
	RunE:  runFinancials,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPeriod, "period", "p", "", `Period filter: "all", a year, or YYYY-MM`)
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Serve financials from the local archive, no remote fetch")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit JSON instead of tables")
}

// loadConfig is the shared config path used by all commands.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagPeriod == "" {
		flagPeriod = cfg.General.DefaultPeriod
	}
	if cfg.General.Quiet {
		flagQuiet = true
	}
	return cfg, nil
}

// newEngine builds the decision engine from configured rates and thresholds.
func newEngine(cfg config.Config) *engine.Engine {
	return engine.New(cfg.Costs, cfg.Thresholds, cfg.Markets)
}

// newRecordStore selects the configured store backend.
func newRecordStore(cfg config.Config) (store.RecordStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		if cfg.Store.RedisAddr == "" {
			return nil, fmt.Errorf("store backend %q requires redis_addr", cfg.Store.Backend)
		}
		return store.NewRedis(cfg.Store.RedisAddr), nil
	case "memory":
		return store.NewMemory(), nil
	case "http", "":
		client := store.NewClient(cfg.Store.BaseURL, config.StoreAPIKey(cfg))
		if client == nil {
			return nil, fmt.Errorf("store backend %q requires base_url", "http")
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newLoader wires the financial loader to the configured store and the
// local snapshot archive. The archive is best-effort: commands still work
// without it, minus offline mode.
func newLoader(cfg config.Config) (*finance.Loader, error) {
	rs, err := newRecordStore(cfg)
	if err != nil {
		return nil, err
	}

	archive, err := store.OpenArchive(store.ArchivePath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Archive unavailable: %v\n", err)
		}
		archive = nil
	}

	return finance.NewLoader(rs, archive, cfg.Store.Principal, cfg.Cache, cfg.Costs), nil
}
