package main

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards/ygoprodeck"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the card database is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		timeout, _ := cfg.GetAPITimeout()
		client := ygoprodeck.NewClient(ygoprodeck.ClientOptions{
			BaseURL:   cfg.API.BaseURL,
			Timeout:   timeout,
			UserAgent: cfg.API.UserAgent,
		})

		if !client.CheckAvailability(cmd.Context()) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is unreachable\n", colorize.RedString("✗"), cfg.API.BaseURL)
			return fmt.Errorf("card database unavailable")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is reachable\n", colorize.GreenString("✓"), cfg.API.BaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
