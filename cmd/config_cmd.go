package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/expediterhq/loadpilot/internal/config"
	"github.com/expediterhq/loadpilot/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default period: %s\n", cfg.General.DefaultPeriod)
	fmt.Printf("    Quiet:          %v\n", cfg.General.Quiet)
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Backend:   %s\n", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case "redis":
		fmt.Printf("    Redis:     %s\n", cfg.Store.RedisAddr)
	default:
		fmt.Printf("    Base URL:  %s\n", cfg.Store.BaseURL)
	}
	if cfg.Store.Principal != "" {
		fmt.Printf("    Principal: %s\n", cfg.Store.Principal)
	} else {
		fmt.Println("    Principal: not configured")
	}
	apiKey := config.StoreAPIKey(cfg)
	if apiKey != "" {
		fmt.Printf("    API key:   %s\n", maskKey(apiKey))
	} else {
		fmt.Println("    API key:   not configured")
	}
	fmt.Println()

	fmt.Println("  [Costs]")
	fmt.Printf("    Per-mile total: $%.3f/mi\n", cfg.Costs.PerMileTotal())
	fmt.Printf("    Fuel:           $%.3f/mi\n", cfg.Costs.Fuel)
	fmt.Printf("    Maintenance:    $%.3f/mi (+$%.3f tires)\n", cfg.Costs.Maintenance, cfg.Costs.TireReserve)
	fmt.Printf("    Food:           $%.3f/mi\n", cfg.Costs.Food)
	fmt.Printf("    Fixed:          $%.3f/mi\n", cfg.Costs.Fixed)
	fmt.Printf("    Idle day:       $%.0f/day\n", cfg.Costs.IdleDayFixed)
	fmt.Println()

	fmt.Println("  [Thresholds]  ($/mi: accept / evaluate / relocation)")
	fmt.Printf("    Short (<=400mi):  %.2f / %.2f / %.2f\n",
		cfg.Thresholds.Short.Accept, cfg.Thresholds.Short.Evaluate, cfg.Thresholds.Short.Relocation)
	fmt.Printf("    Medium (-600mi):  %.2f / %.2f / %.2f\n",
		cfg.Thresholds.Medium.Accept, cfg.Thresholds.Medium.Evaluate, cfg.Thresholds.Medium.Relocation)
	fmt.Printf("    Long (>600mi):    %.2f / %.2f / %.2f\n",
		cfg.Thresholds.Long.Accept, cfg.Thresholds.Long.Evaluate, cfg.Thresholds.Long.Relocation)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    TTL:        %ds\n", cfg.Cache.TTLSeconds)
	fmt.Printf("    Wait:       %dms x %d\n", cfg.Cache.PollIntervalMS, cfg.Cache.MaxWaitAttempts)
	fmt.Printf("    Archive:    %s\n", store.ArchivePath())
	if archive, err := store.OpenArchive(store.ArchivePath()); err == nil {
		if last := archive.LastSynced(); !last.IsZero() {
			fmt.Printf("    Last sync:  %s\n", last.Local().Format(time.RFC3339))
		}
		_ = archive.Close()
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Refresh:  %ds\n", cfg.Daemon.PollIntervalSec)

	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if config.Exists() {
		return fmt.Errorf("config already exists at %s", config.ConfigPath())
	}
	if err := config.Save(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("  Wrote %s\n", config.ConfigPath())
	return nil
}

func configPathHint() string {
	return config.ConfigPath()
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
