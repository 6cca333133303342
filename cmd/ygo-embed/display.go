package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	colorize "github.com/fatih/color"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/decklist"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/markup"
)

// typeColor picks the frame color of a card.
func typeColor(c *cards.Card) *colorize.Color {
	switch {
	case c.IsSpell():
		return colorize.New(colorize.FgGreen)
	case c.IsTrap():
		return colorize.New(colorize.FgMagenta)
	default:
		return colorize.New(colorize.FgYellow)
	}
}

// printCard writes the details of a card.
func printCard(w io.Writer, c *cards.Card) {
	label := colorize.New(colorize.FgCyan).SprintFunc()

	fmt.Fprintln(w, typeColor(c).Add(colorize.Bold).Sprint(c.Name))
	fmt.Fprintf(w, "  %s %d\n", label("ID:  "), c.ID)
	fmt.Fprintf(w, "  %s %s\n", label("Type:"), c.Type)
	if c.Race != "" {
		fmt.Fprintf(w, "  %s %s\n", label("Race:"), c.Race)
	}

	if c.IsMonster() {
		var stats []string
		if c.Attribute != "" {
			stats = append(stats, c.Attribute)
		}
		switch {
		case c.IsLink() && c.LinkVal != nil:
			stats = append(stats, "LINK-"+strconv.Itoa(*c.LinkVal))
		case c.Level != nil && strings.Contains(c.Type, "XYZ"):
			stats = append(stats, "Rank "+strconv.Itoa(*c.Level))
		case c.Level != nil:
			stats = append(stats, "Level "+strconv.Itoa(*c.Level))
		}
		if c.ATK != nil {
			stats = append(stats, "ATK "+strconv.Itoa(*c.ATK))
		}
		if c.DEF != nil && !c.IsLink() {
			stats = append(stats, "DEF "+strconv.Itoa(*c.DEF))
		}
		if len(stats) > 0 {
			fmt.Fprintf(w, "  %s %s\n", label("Stats:"), strings.Join(stats, " / "))
		}
	}

	fmt.Fprintf(w, "  %s %s / %s\n", label("Price:"),
		formatPrice("$", c.Prices.TCGPlayer), formatPrice("€", c.Prices.Cardmarket))

	if c.Description != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(c.Description, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func formatPrice(symbol string, p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s%.2f", symbol, *p)
}

// printSlots writes a resolved deck section, grouping copies of a card.
func printSlots(w io.Writer, section decklist.Section, slots []decklist.Slot) {
	title := section.Title()
	if title == "" {
		title = "Upgrade"
	}
	colorize.New(colorize.FgCyan, colorize.Bold).Fprintf(w, "%s (%d)\n", title, decklist.Count(slots))

	missing := colorize.New(colorize.FgRed).SprintFunc()
	for _, s := range slots {
		switch s.Kind {
		case decklist.SlotCard:
			if s.Copy > 1 {
				continue
			}
			fmt.Fprintf(w, "  %dx %s\n", s.Entry.Quantity, typeColor(s.Card).Sprint(s.Card.Name))
		case decklist.SlotMissing:
			fmt.Fprintf(w, "  %dx %s\n", s.Entry.Quantity, missing(s.Entry.Name+" (not found)"))
		case decklist.SlotInvalid:
			fmt.Fprintf(w, "  %s\n", missing(fmt.Sprintf("%q: %v", s.Raw, s.Err)))
		}
	}
}

// printReport summarizes an enhanced document.
func printReport(w io.Writer, name string, r *markup.Report) {
	ok := colorize.New(colorize.FgGreen).SprintFunc()
	warn := colorize.New(colorize.FgYellow).SprintFunc()

	fmt.Fprintf(w, "%s %s: %d embeds, %d decklists, %d references\n",
		ok("✓"), name, r.Rendered.Embeds, r.Rendered.Decklists, r.Rendered.References)
	if r.Rendered.Missing > 0 || r.Rendered.Failed > 0 {
		fmt.Fprintf(w, "  %s %d missing, %d failed\n", warn("!"), r.Rendered.Missing, r.Rendered.Failed)
	}
	if r.Errors > 0 {
		fmt.Fprintf(w, "  %s %d markup errors\n", warn("!"), r.Errors)
	}
	if r.PrefetchErr != nil {
		fmt.Fprintf(w, "  %s prefetch: %v\n", warn("!"), r.PrefetchErr)
	}
}
