package markup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/decklist"
)

// Format is the input format of a post.
type Format int

const (
	FormatHTML Format = iota
	FormatMarkdown
)

// Options configures an Enhancer.
type Options struct {
	// Sanitize runs the input through the sanitizer policy before
	// conversion.
	Sanitize bool

	// Policy overrides NewPolicy.
	Policy *bluemonday.Policy

	Logger *slog.Logger
}

// Report summarizes one enhanced document.
type Report struct {
	Conversion
	Rendered RenderStats

	// PrefetchErr is the error of the initial bulk lookup, if any.
	PrefetchErr error
}

// Enhancer converts card markup in posts into rendered card elements.
type Enhancer struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
}

// NewEnhancer creates an enhancer resolving cards through fetcher.
func NewEnhancer(fetcher Fetcher, opts Options) *Enhancer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sanitize && opts.Policy == nil {
		opts.Policy = NewPolicy()
	}
	return &Enhancer{fetcher: fetcher, opts: opts, logger: opts.Logger}
}

// Enhance reads a post from r, renders its card markup and writes the
// result to w. HTML fragments are written back as fragments. Card lookup
// failures are rendered in place and reported, never returned.
func (e *Enhancer) Enhance(ctx context.Context, r io.Reader, w io.Writer, format Format) (*Report, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read post: %w", err)
	}

	if format == FormatMarkdown {
		if src, err = RenderMarkdown(src); err != nil {
			return nil, err
		}
	}
	if e.opts.Sanitize {
		src = Sanitize(e.opts.Policy, src)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse post: %w", err)
	}

	report := &Report{Conversion: ConvertMarkup(doc)}

	rc := NewContext(e.fetcher, e.logger)
	if names := collectNames(doc); len(names) > 0 {
		if err := rc.Prefetch(ctx, names); err != nil {
			e.logger.Warn("Prefetching cards failed", "names", len(names), "error", err)
			report.PrefetchErr = err
		}
	}

	report.Rendered.add(RenderEmbeds(ctx, rc, doc))
	report.Rendered.add(RenderDecklists(ctx, rc, doc))
	report.Rendered.add(RenderReferences(ctx, rc, doc))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	out, err := documentHTML(doc, isFullDocument(src))
	if err != nil {
		return report, fmt.Errorf("render post: %w", err)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return report, fmt.Errorf("write post: %w", err)
	}

	e.logger.Debug("Enhanced post",
		"embeds", report.Rendered.Embeds,
		"decklists", report.Rendered.Decklists,
		"references", report.Rendered.References,
		"missing", report.Rendered.Missing,
		"failed", report.Rendered.Failed)
	return report, nil
}

// collectNames returns every card name the document refers to, in
// document order.
func collectNames(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	doc.Find("." + ClassEmbed).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr(AttrCardName, ""))
	})
	doc.Find("." + ClassDecklist).Each(func(_ int, s *goquery.Selection) {
		raw, err := deckEntries(s)
		if err != nil {
			return
		}
		for _, name := range decklist.Names(raw) {
			add(name)
		}
	})
	doc.Find("span." + ClassHover).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr(AttrCardName, ""))
	})
	return names
}

func isFullDocument(src []byte) bool {
	head := bytes.ToLower(src[:min(len(src), 512)])
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype"))
}

func documentHTML(doc *goquery.Document, full bool) (string, error) {
	if full {
		return goquery.OuterHtml(doc.Selection)
	}
	return doc.Find("body").Html()
}
