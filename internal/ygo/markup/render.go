package markup

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/decklist"
)

// RenderStats counts rendered elements.
type RenderStats struct {
	Embeds     int
	Decklists  int
	References int
	Missing    int
	Failed     int
}

func (s *RenderStats) add(o RenderStats) {
	s.Embeds += o.Embeds
	s.Decklists += o.Decklists
	s.References += o.References
	s.Missing += o.Missing
	s.Failed += o.Failed
}

// RenderEmbeds fills every div.ygo-card-embed with the card panel.
func RenderEmbeds(ctx context.Context, rc *Context, doc *goquery.Document) RenderStats {
	var stats RenderStats

	doc.Find("." + ClassEmbed).Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr(AttrCardName, "")
		card, err := rc.Card(ctx, name)
		switch {
		case err == nil:
			s.SetHtml(embedHTML(card))
			if class := typeClass(card); class != "" {
				s.AddClass(class)
			}
			stats.Embeds++
		case cards.IsNotFound(err):
			s.SetHtml(errorBlock(ClassMissing, "Card not found: "+name))
			stats.Missing++
		default:
			rc.Logger().Warn("Error loading card", "name", name, "error", err)
			s.SetHtml(errorBlock("", "Error loading card: "+name))
			stats.Failed++
		}
	})

	return stats
}

// RenderDecklists fills every div.ygo-decklist with its card grid. Entries
// come from the data-card-names attribute or, failing that, from the list
// items inside the element.
func RenderDecklists(ctx context.Context, rc *Context, doc *goquery.Document) RenderStats {
	var stats RenderStats

	doc.Find("." + ClassDecklist).Each(func(_ int, s *goquery.Selection) {
		section, err := decklist.ParseSection(s.AttrOr(AttrDeckSection, string(decklist.Main)))
		if err != nil {
			s.SetHtml(errorBlock("", "Error loading decklist: "+err.Error()))
			stats.Failed++
			return
		}

		raw, err := deckEntries(s)
		if err != nil {
			s.SetHtml(errorBlock("", "Error loading decklist: "+err.Error()))
			stats.Failed++
			return
		}

		found, err := rc.Cards(ctx, decklist.Names(raw))
		if err != nil {
			rc.Logger().Warn("Error loading decklist", "section", section, "error", err)
			s.SetHtml(errorBlock("", "Error loading decklist: "+err.Error()))
			stats.Failed++
			return
		}

		slots := decklist.ResolveFetched(raw, found)
		s.SetHtml(deckHTML(section, slots))
		s.SetAttr(AttrDeckSection, string(section))
		s.SetAttr("data-card-count", strconv.Itoa(decklist.Count(slots)))

		for _, slot := range slots {
			if slot.Kind != decklist.SlotCard {
				stats.Missing++
			}
		}
		stats.Decklists++
	})

	return stats
}

// RenderReferences attaches image URLs to every span.hover-card so the
// page can show previews without another lookup.
func RenderReferences(ctx context.Context, rc *Context, doc *goquery.Document) RenderStats {
	var stats RenderStats

	doc.Find("span." + ClassHover).Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr(AttrCardName, "")
		card, err := rc.Card(ctx, name)
		switch {
		case err == nil:
			s.SetAttr("data-img-small", card.SmallImageURL)
			s.SetAttr("data-img-large", card.LargeImageURL)
			s.SetAttr("data-card-id", strconv.Itoa(card.ID))
			stats.References++
		case cards.IsNotFound(err):
			s.AddClass(ClassMissing)
			stats.Missing++
		default:
			rc.Logger().Debug("Hover preview unavailable", "name", name, "error", err)
			stats.Failed++
		}
	})

	return stats
}

func deckEntries(s *goquery.Selection) ([]string, error) {
	if encoded, ok := s.Attr(AttrCardNames); ok {
		var raw []string
		if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
			return nil, fmt.Errorf("invalid card list: %w", err)
		}
		return raw, nil
	}

	var raw []string
	s.Find("li").Each(func(_ int, li *goquery.Selection) {
		if text := strings.TrimSpace(li.Text()); text != "" {
			raw = append(raw, text)
		}
	})
	return raw, nil
}

func errorBlock(extraClass, msg string) string {
	class := ClassError
	if extraClass != "" {
		class += " " + extraClass
	}
	return fmt.Sprintf(`<div class="%s">❌ %s</div>`, class, html.EscapeString(msg))
}

func typeClass(card *cards.Card) string {
	switch {
	case card.IsMonster():
		return "ygo-monster-card"
	case card.IsSpell():
		return "ygo-spell-card"
	case card.IsTrap():
		return "ygo-trap-card"
	default:
		return ""
	}
}

func embedHTML(card *cards.Card) string {
	name := html.EscapeString(card.Name)
	large := html.EscapeString(card.LargeImageURL)

	var b strings.Builder
	b.WriteString(`<div class="ygo-embed-container">`)
	fmt.Fprintf(&b, `<div class="ygo-card-image-container"><a href="%s" target="_blank" rel="noopener nofollow">`+
		`<img class="ygo-card-image" src="%s" alt="%s" loading="lazy"></a></div>`, large, large, name)
	b.WriteString(`<div class="ygo-card-details">`)
	fmt.Fprintf(&b, `<h4 class="ygo-card-name">%s</h4>`, name)
	b.WriteString(statsHTML(card))
	fmt.Fprintf(&b, `<p class="ygo-card-oracle-text">%s</p>`, descriptionHTML(card.Description))
	b.WriteString(priceHTML(card.Prices))
	b.WriteString(`</div></div>`)
	return b.String()
}

func statsHTML(card *cards.Card) string {
	var b strings.Builder
	b.WriteString(`<div class="ygo-card-stats">`)
	fmt.Fprintf(&b, `<span class="ygo-card-type">%s</span>`, html.EscapeString(card.Type))

	if !card.IsMonster() {
		if card.Race != "" {
			fmt.Fprintf(&b, `<span class="ygo-card-race">%s</span>`, html.EscapeString(card.Race))
		}
		b.WriteString(`</div>`)
		return b.String()
	}

	if card.Attribute != "" {
		fmt.Fprintf(&b, `<span class="ygo-card-attribute">%s</span>`, html.EscapeString(card.Attribute))
	}
	if card.Race != "" {
		fmt.Fprintf(&b, `<span class="ygo-card-race">%s</span>`, html.EscapeString(card.Race))
	}
	if card.Level != nil && *card.Level > 0 {
		label := "Level"
		if strings.Contains(strings.ToUpper(card.Type), "XYZ") {
			label = "Rank"
		}
		fmt.Fprintf(&b, `<span class="ygo-card-level">%s %d</span>`, label, *card.Level)
	}
	if card.ATK != nil {
		fmt.Fprintf(&b, `<span class="ygo-card-atk">ATK/%d</span>`, *card.ATK)
	}
	switch {
	case card.IsLink():
		fmt.Fprintf(&b, `<span class="ygo-card-def">LINK-%d</span>`, *card.LinkVal)
	case card.DEF != nil:
		fmt.Fprintf(&b, `<span class="ygo-card-def">DEF/%d</span>`, *card.DEF)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func descriptionHTML(desc string) string {
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(desc), "\n", "<br><br>")
}

func priceHTML(p cards.Prices) string {
	return fmt.Sprintf(`<p class="ygo-card-price"><strong>TCGplayer:</strong> $%s<br><strong>Cardmarket:</strong> €%s</p>`,
		formatPrice(p.TCGPlayer), formatPrice(p.Cardmarket))
}

func formatPrice(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func deckHTML(section decklist.Section, slots []decklist.Slot) string {
	var b strings.Builder
	b.WriteString(`<div class="ygo-deck-section">`)
	if title := section.Title(); title != "" {
		fmt.Fprintf(&b, `<h3 class="ygo-deck-title">%s</h3>`, title)
	}
	b.WriteString(`<div class="ygo-decklist-grid">`)
	for _, slot := range slots {
		b.WriteString(slotHTML(slot))
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func slotHTML(slot decklist.Slot) string {
	switch slot.Kind {
	case decklist.SlotCard:
		card := slot.Card
		name := html.EscapeString(card.Name)
		large := html.EscapeString(card.LargeImageURL)

		class := "ygo-decklist-card"
		if tc := typeClass(card); tc != "" {
			class += " " + tc
		}
		return fmt.Sprintf(`<div class="%s" data-card-id="%d">`+
			`<a href="%s" target="_blank" rel="noopener nofollow"><img src="%s" alt="%s" title="%s" loading="lazy"></a>`+
			`<a class="ygo-card-name" href="%s" target="_blank" rel="noopener nofollow">%s</a></div>`,
			class, card.ID, large, html.EscapeString(card.SmallImageURL), name, name, large, name)

	case decklist.SlotMissing:
		return fmt.Sprintf(`<div class="ygo-decklist-card %s"><div class="ygo-card-placeholder"></div>`+
			`<span class="ygo-card-name">%s</span><span class="ygo-card-error">Card not found</span></div>`,
			ClassMissing, html.EscapeString(slot.Entry.Name))

	default:
		return fmt.Sprintf(`<div class="ygo-decklist-card %s ygo-card-invalid"><div class="ygo-card-placeholder"></div>`+
			`<span class="ygo-card-name">%s</span><span class="ygo-card-error">Invalid entry</span></div>`,
			ClassMissing, html.EscapeString(slot.Raw))
	}
}
