// Package markup turns card markup in post HTML into rendered card
// elements. Conversion rewrites the directives into placeholder elements;
// the renderers then fill the placeholders with card data.
package markup

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class and attribute names shared with the stylesheet.
const (
	ClassEmbed    = "ygo-card-embed"
	ClassDecklist = "ygo-decklist"
	ClassHover    = "hover-card"
	ClassLoading  = "ygo-loading"
	ClassError    = "ygo-error"
	ClassMissing  = "ygo-card-missing"

	AttrCardName    = "data-card-name"
	AttrCardNames   = "data-card-names"
	AttrDeckSection = "data-deck-section"
)

var (
	embedDirective = regexp.MustCompile(`(?i)^embed::(.*)$`)
	deckDirective  = regexp.MustCompile(`(?i)^deck::(main|extra|side|upgrade)::\[(.*)\]$`)
	cardReference  = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
)

// referenceContainers are the elements whose text may carry [[Name]]
// references.
const referenceContainers = "p, li, h2, h3, h4, td"

// Conversion counts what ConvertMarkup rewrote.
type Conversion struct {
	Embeds     int
	Decklists  int
	References int
	Errors     int
}

// ConvertMarkup rewrites directive paragraphs and inline references in doc:
//
//	embed::Dark Magician                       -> div.ygo-card-embed
//	deck::main::["Dark Magician x3", "Raigeki"] -> div.ygo-decklist
//	[[Dark Magician]]                          -> span.hover-card
//
// Malformed directives become paragraphs carrying the ygo-error class.
func ConvertMarkup(doc *goquery.Document) Conversion {
	var conv Conversion

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())

		if m := embedDirective.FindStringSubmatch(text); m != nil {
			name := strings.TrimSpace(m[1])
			if name == "" {
				markError(p, "Error parsing card embed: card name cannot be empty")
				conv.Errors++
				return
			}
			p.ReplaceWithHtml(fmt.Sprintf(`<div class="%s" %s="%s"><div class="%s">Loading card...</div></div>`,
				ClassEmbed, AttrCardName, html.EscapeString(name), ClassLoading))
			conv.Embeds++
			return
		}

		if m := deckDirective.FindStringSubmatch(text); m != nil {
			var names []string
			if err := json.Unmarshal([]byte("["+m[2]+"]"), &names); err != nil {
				markError(p, "Error parsing deck list: "+err.Error())
				conv.Errors++
				return
			}
			encoded, _ := json.Marshal(names)
			p.ReplaceWithHtml(fmt.Sprintf(`<div class="%s" %s="%s" %s="%s"><div class="%s">Loading deck...</div></div>`,
				ClassDecklist,
				AttrDeckSection, strings.ToLower(m[1]),
				AttrCardNames, html.EscapeString(string(encoded)),
				ClassLoading))
			conv.Decklists++
		}
	})

	doc.Find(referenceContainers).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			conv.References += convertReferences(n)
		}
	})

	return conv
}

func markError(p *goquery.Selection, msg string) {
	p.AddClass(ClassError)
	p.SetText("❌ " + msg)
}

// convertReferences replaces [[Name]] in the text below n with hover
// spans and returns how many were created. Code, links, scripts and
// already converted elements are left alone.
func convertReferences(n *nethtml.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case nethtml.TextNode:
			count += expandReferences(c)
		case nethtml.ElementNode:
			if !skipReferences(c) {
				count += convertReferences(c)
			}
		}
		c = next
	}
	return count
}

func skipReferences(n *nethtml.Node) bool {
	switch n.DataAtom {
	case atom.A, atom.Code, atom.Pre, atom.Script, atom.Style, atom.Textarea:
		return true
	}
	return hasClass(n, ClassHover) || hasClass(n, ClassEmbed) || hasClass(n, ClassDecklist)
}

func expandReferences(text *nethtml.Node) int {
	locs := cardReference.FindAllStringSubmatchIndex(text.Data, -1)
	if len(locs) == 0 {
		return 0
	}

	parent := text.Parent
	data := text.Data
	count, last := 0, 0
	for _, loc := range locs {
		name := strings.TrimSpace(data[loc[2]:loc[3]])
		if name == "" {
			continue
		}
		if loc[0] > last {
			parent.InsertBefore(&nethtml.Node{Type: nethtml.TextNode, Data: data[last:loc[0]]}, text)
		}
		parent.InsertBefore(hoverSpan(name), text)
		last = loc[1]
		count++
	}
	if count == 0 {
		return 0
	}
	if last < len(data) {
		parent.InsertBefore(&nethtml.Node{Type: nethtml.TextNode, Data: data[last:]}, text)
	}
	parent.RemoveChild(text)
	return count
}

func hoverSpan(name string) *nethtml.Node {
	span := &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []nethtml.Attribute{
			{Key: "class", Val: ClassHover},
			{Key: AttrCardName, Val: name},
		},
	}
	span.AppendChild(&nethtml.Node{Type: nethtml.TextNode, Data: name})
	return span
}

func hasClass(n *nethtml.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
