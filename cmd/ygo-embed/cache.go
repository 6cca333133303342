package main

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local card cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show card cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		svc, err := newServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		used, err := svc.store.Used(cmd.Context())
		if err != nil {
			return err
		}
		path, _ := cfg.StoragePath()
		stats := svc.cache.Stats()

		label := colorize.New(colorize.FgCyan).SprintFunc()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", label("Store:  "), path)
		fmt.Fprintf(out, "%s %d cards, %d aliases\n", label("Entries:"), stats.Entries, stats.Aliases)
		if cfg.Storage.Quota > 0 {
			fmt.Fprintf(out, "%s %d / %d bytes (%.1f%%)\n", label("Used:   "), used, cfg.Storage.Quota,
				float64(used)/float64(cfg.Storage.Quota)*100)
		} else {
			fmt.Fprintf(out, "%s %d bytes\n", label("Used:   "), used)
		}
		fmt.Fprintf(out, "%s %s\n", label("Expiry: "), cfg.Cache.Expiry)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached card",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		svc, err := newServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		n := svc.cache.Len()
		svc.cache.Clear(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached cards\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
