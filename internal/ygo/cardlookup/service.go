// Package cardlookup serves card lookups from the cache, falling back to the
// batching request queue for names that are not cached yet.
package cardlookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards/queue"
)

// CardCache is the read side of the card cache.
type CardCache interface {
	Get(name string) (*cards.Card, bool)
	Cards() []*cards.Card
}

// Enqueuer accepts batched lookups.
type Enqueuer interface {
	EnqueueMany(names []string) []<-chan queue.Result
}

// Pinger checks whether the remote card database is reachable.
type Pinger interface {
	CheckAvailability(ctx context.Context) bool
}

// Service combines the cache and the request queue.
type Service struct {
	cache  CardCache
	queue  Enqueuer
	pinger Pinger
	logger *slog.Logger
}

// NewService creates a lookup service. pinger may be nil, in which case Ping
// always reports the API as unavailable.
func NewService(cache CardCache, q Enqueuer, pinger Pinger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:  cache,
		queue:  q,
		pinger: pinger,
		logger: logger,
	}
}

// FetchOne returns the card for name, from the cache when possible.
func (s *Service) FetchOne(ctx context.Context, name string) (*cards.Card, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, &cards.ParseError{Input: name, Reason: "empty card name"}
	}

	if card, ok := s.cache.Get(trimmed); ok {
		return card, nil
	}

	return wait(ctx, s.queue.EnqueueMany([]string{trimmed})[0])
}

// FetchMany looks up every distinct name and returns the cards found, keyed
// by the trimmed requested name. Names that do not exist are left out;
// timeout and transport failures are returned joined together alongside the
// cards that did resolve.
func (s *Service) FetchMany(ctx context.Context, names []string) (map[string]*cards.Card, error) {
	found := make(map[string]*cards.Card, len(names))
	seen := make(map[string]struct{}, len(names))
	var uncached []string

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		if card, ok := s.cache.Get(name); ok {
			found[name] = card
			continue
		}
		uncached = append(uncached, name)
	}

	if len(uncached) == 0 {
		return found, nil
	}

	s.logger.Debug("Fetching uncached cards", "cached", len(found), "uncached", len(uncached))

	var errs []error
	for i, ch := range s.queue.EnqueueMany(uncached) {
		card, err := wait(ctx, ch)
		switch {
		case err == nil:
			found[uncached[i]] = card
		case cards.IsNotFound(err):
			s.logger.Debug("Card not found", "name", uncached[i])
		case ctx.Err() != nil:
			return found, ctx.Err()
		default:
			errs = append(errs, err)
		}
	}

	return found, errors.Join(errs...)
}

// Search returns cached cards whose normalized name contains the normalized
// query. When none match it falls back to a remote lookup of the query
// itself. Failures yield an empty result.
func (s *Service) Search(ctx context.Context, query string) []*cards.Card {
	needle := cards.NormalizeName(query)
	if needle == "" {
		return nil
	}

	var matches []*cards.Card
	for _, card := range s.cache.Cards() {
		if strings.Contains(cards.NormalizeName(card.Name), needle) {
			matches = append(matches, card)
		}
	}
	if len(matches) > 0 {
		return matches
	}

	card, err := s.FetchOne(ctx, query)
	if err != nil {
		s.logger.Debug("Search found nothing", "query", query, "error", err)
		return nil
	}
	return []*cards.Card{card}
}

// Ping reports whether the card database API is reachable.
func (s *Service) Ping(ctx context.Context) bool {
	if s.pinger == nil {
		return false
	}
	return s.pinger.CheckAvailability(ctx)
}

func wait(ctx context.Context, ch <-chan queue.Result) (*cards.Card, error) {
	select {
	case res := <-ch:
		return res.Card, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
