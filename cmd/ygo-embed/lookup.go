package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

var lookupSearch bool

var lookupCmd = &cobra.Command{
	Use:   "lookup name...",
	Short: "Look up cards by name",
	Long: `Lookup resolves card names against the local cache and the card database
and prints their details. Quantity suffixes like "x3" are ignored.

With --search, names are matched as substrings of cached cards first.

Examples:
  ygo-embed lookup "Dark Magician"
  ygo-embed lookup "Raigeki" "Mirror Force x2"
  ygo-embed lookup --search magician`,
	Args: cobra.MinimumNArgs(1),
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

		out := cmd.OutOrStdout()

		if lookupSearch {
			for _, query := range args {
				found := svc.lookup.Search(cmd.Context(), query)
				if len(found) == 0 {
					fmt.Fprintf(out, "No cards match %q\n", query)
					continue
				}
				for _, c := range found {
					fmt.Fprintln(out, typeColor(c).Sprint(c.Name))
				}
			}
			return nil
		}

		var failed int
		for i, name := range args {
			if i > 0 {
				fmt.Fprintln(out)
			}
			c, err := svc.lookup.FetchOne(cmd.Context(), name)
			if err != nil {
				failed++
				var nf *cards.NotFoundError
				if errors.As(err, &nf) {
					fmt.Fprintf(out, "Card not found: %s\n", nf.Name)
					continue
				}
				fmt.Fprintf(out, "Lookup of %q failed: %v\n", name, err)
				continue
			}
			printCard(out, c)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d lookups failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().BoolVarP(&lookupSearch, "search", "s", false, "Match names as substrings of cached cards")
}
