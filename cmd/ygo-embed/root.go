package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/ygo-embed/internal/config"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "ygo-embed",
	Short: "Render Yu-Gi-Oh! card embeds, decklists and hover previews in blog posts",
	Long: `ygo-embed scans blog posts for card markup and replaces it with rendered
card elements using data from the YGOPRODeck card database.

Supported markup:
  embed::Dark Magician                        full card panel
  deck::main::["Dark Magician x3", "Raigeki"] decklist grid (main, extra, side, upgrade)
  [[Dark Magician]]                           inline reference with hover preview

Card data is cached locally for a week.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ~/.ygo-embed/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
}

// loadConfig loads and validates the configuration, then installs the
// logger it asks for.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if debugMode || cfg.App.DebugMode {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	return cfg, nil
}
