package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/decklist"
)

var (
	deckSection string
	deckFile    string
)

var deckCmd = &cobra.Command{
	Use:   "deck [entry...]",
	Short: "Resolve a decklist",
	Long: `Deck parses decklist entries such as "Dark Magician x3" or "2 Raigeki",
looks the cards up and prints the resolved section.

Entries are taken from the arguments, or one per line from --file.

Examples:
  ygo-embed deck "Dark Magician x3" "Raigeki" "Mirror Force x2"
  ygo-embed deck --section extra --file extra.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		section, err := decklist.ParseSection(deckSection)
		if err != nil {
			return err
		}

		entries := args
		if deckFile != "" {
			fromFile, err := readEntries(deckFile)
			if err != nil {
				return err
			}
			entries = append(entries, fromFile...)
		}
		if len(entries) == 0 {
			return fmt.Errorf("no deck entries given")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		svc, err := newServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		fetched, err := svc.lookup.FetchMany(cmd.Context(), decklist.Names(entries))
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			slog.Warn("Some cards could not be fetched", "error", err)
		}

		printSlots(cmd.OutOrStdout(), section, decklist.ResolveFetched(entries, fetched))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deckCmd)

	deckCmd.Flags().StringVarP(&deckSection, "section", "s", "main", "Deck section: main, extra, side or upgrade")
	deckCmd.Flags().StringVar(&deckFile, "file", "", "Read entries from a file, one per line")
}

// readEntries reads non-blank lines from path.
func readEntries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open deck file: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read deck file: %w", err)
	}
	return entries, nil
}
