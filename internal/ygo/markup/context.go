package markup

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

// Fetcher resolves card names.
type Fetcher interface {
	FetchOne(ctx context.Context, name string) (*cards.Card, error)
	FetchMany(ctx context.Context, names []string) (map[string]*cards.Card, error)
}

type outcome struct {
	card *cards.Card
	err  error
}

// Context carries the collaborators of one rendering pass and remembers
// every lookup made during it, so each name is fetched at most once per
// document.
type Context struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]outcome
}

// NewContext creates a rendering context.
func NewContext(fetcher Fetcher, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		fetcher: fetcher,
		logger:  logger,
		seen:    make(map[string]outcome),
	}
}

// Prefetch fetches names in one go. Names that do not exist are remembered
// as missing; on a failed fetch the unresolved names are left for the
// renderers to retry individually.
func (rc *Context) Prefetch(ctx context.Context, names []string) error {
	found, err := rc.fetcher.FetchMany(ctx, names)

	rc.mu.Lock()
	defer rc.mu.Unlock()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if card, ok := found[name]; ok {
			rc.seen[name] = outcome{card: card}
		} else if err == nil {
			rc.seen[name] = outcome{err: &cards.NotFoundError{Name: name}}
		}
	}
	return err
}

// Card returns the card for name.
func (rc *Context) Card(ctx context.Context, name string) (*cards.Card, error) {
	name = strings.TrimSpace(name)

	rc.mu.Lock()
	out, ok := rc.seen[name]
	rc.mu.Unlock()
	if ok {
		return out.card, out.err
	}

	card, err := rc.fetcher.FetchOne(ctx, name)
	if ctx.Err() == nil {
		rc.mu.Lock()
		rc.seen[name] = outcome{card: card, err: err}
		rc.mu.Unlock()
	}
	return card, err
}

// Cards returns the cards found for names keyed by name. Names that do not
// exist are absent. Any other failure is returned.
func (rc *Context) Cards(ctx context.Context, names []string) (map[string]*cards.Card, error) {
	found := make(map[string]*cards.Card, len(names))
	var missing []string

	rc.mu.Lock()
	for _, name := range names {
		out, ok := rc.seen[name]
		switch {
		case !ok:
			missing = append(missing, name)
		case out.err == nil:
			found[name] = out.card
		case !cards.IsNotFound(out.err):
			rc.mu.Unlock()
			return found, out.err
		}
	}
	rc.mu.Unlock()

	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := rc.fetcher.FetchMany(ctx, missing)

	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, name := range missing {
		if card, ok := fetched[name]; ok {
			found[name] = card
			rc.seen[name] = outcome{card: card}
		} else if err == nil {
			rc.seen[name] = outcome{err: &cards.NotFoundError{Name: name}}
		}
	}
	return found, err
}

// Logger returns the context logger.
func (rc *Context) Logger() *slog.Logger {
	return rc.logger
}
