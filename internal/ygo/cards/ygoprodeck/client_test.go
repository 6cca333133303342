package ygoprodeck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

const darkMagicianJSON = `{"data":[{
	"id": 46986414,
	"name": "Dark Magician",
	"type": "Normal Monster",
	"desc": "The ultimate wizard in terms of attack and defense.",
	"atk": 2500,
	"def": 2100,
	"level": 7,
	"race": "Spellcaster",
	"attribute": "DARK",
	"card_images": [{"id": 46986414, "image_url": "https://images.ygoprodeck.com/images/cards/46986414.jpg", "image_url_small": "https://images.ygoprodeck.com/images/cards_small/46986414.jpg"}],
	"card_prices": [{"cardmarket_price": "0.12", "tcgplayer_price": "0.25"}]
}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientOptions{
		BaseURL:        server.URL,
		RateLimit:      time.Millisecond,
		InitialBackoff: time.Millisecond,
	})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientOptions{})

	require.NotNil(t, client)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.NotEmpty(t, client.userAgent)
}

func TestClient_GetCardByName_Exact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cardinfo.php", r.URL.Path)
		assert.Equal(t, "Dark Magician", r.URL.Query().Get("name"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(darkMagicianJSON))
	})

	card, err := client.GetCardByName(context.Background(), "Dark Magician")
	require.NoError(t, err)

	assert.Equal(t, "Dark Magician", card.Name)
	assert.Equal(t, "Normal Monster", card.Type)
	assert.Equal(t, "DARK", card.Attribute)
	require.NotNil(t, card.ATK)
	assert.Equal(t, 2500, *card.ATK)
	require.NotNil(t, card.Level)
	assert.Equal(t, 7, *card.Level)
	assert.Equal(t, "https://images.ygoprodeck.com/images/cards_small/46986414.jpg", card.SmallImageURL)
	require.NotNil(t, card.Prices.TCGPlayer)
	assert.InDelta(t, 0.25, *card.Prices.TCGPlayer, 1e-9)
	assert.True(t, card.Complete())
}

func TestClient_GetCardByName_FuzzyFallback(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("name") != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"No card matching your query was found in the database."}`))
			return
		}

		assert.Equal(t, "dark magician girl", r.URL.Query().Get("fname"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"name":"Dark Magician Girl the Dragon Knight","type":"Fusion Monster","card_images":[{"image_url":"l","image_url_small":"s"}]},
			{"id":2,"name":"Dark Magician Girl","type":"Effect Monster","card_images":[{"image_url":"l","image_url_small":"s"}]}
		]}`))
	})

	card, err := client.GetCardByName(context.Background(), "dark magician girl")
	require.NoError(t, err)
	assert.Equal(t, "Dark Magician Girl", card.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_LookupCard_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No card matching your query was found in the database."}`))
	})

	_, err := client.LookupCard(context.Background(), "Not A Real Card x2")
	require.Error(t, err)

	var nf *cards.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Not A Real Card", nf.Name)
}

func TestClient_LookupCard_ServerErrorIsTransport(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.LookupCard(context.Background(), "Dark Magician")
	require.Error(t, err)
	assert.True(t, cards.IsTransport(err))
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestClient_RateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(darkMagicianJSON))
	})

	card, err := client.GetCardByName(context.Background(), "Dark Magician")
	require.NoError(t, err)
	assert.Equal(t, "Dark Magician", card.Name)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestClient_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{invalid json}`))
	})

	_, err := client.LookupCard(context.Background(), "Dark Magician")
	require.Error(t, err)
	assert.True(t, cards.IsTransport(err))
}

func TestClient_LookupCard_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.LookupCard(ctx, "Dark Magician")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, cards.IsTransport(err))
}

func TestClient_CheckAvailability(t *testing.T) {
	up := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkDBVer.php", r.URL.Path)
		_, _ = w.Write([]byte(`[{"database_version":"112.45","last_update":"2026-10-01 12:00:00"}]`))
	})
	assert.True(t, up.CheckAvailability(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	assert.False(t, down.CheckAvailability(context.Background()))
}

func TestStripQuantity(t *testing.T) {
	assert.Equal(t, "Pot of Greed", StripQuantity("Pot of Greed x3"))
	assert.Equal(t, "Pot of Greed", StripQuantity("Pot of Greed X 2"))
	assert.Equal(t, "Number 39: Utopia", StripQuantity("Number 39: Utopia"))
}

func TestSelectFuzzyResult(t *testing.T) {
	results := []APICard{
		{Name: "Ghost Ogre & Snow Rabbit"},
		{Name: "Ghost Belle & Haunted Mansion"},
	}

	assert.Equal(t, "Ghost Belle & Haunted Mansion", selectFuzzyResult("ghost belle & haunted", results).Name)
	assert.Equal(t, "Ghost Ogre & Snow Rabbit", selectFuzzyResult("something else", results).Name)
}
