package matchfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/platform/resilience"
	"github.com/riskibarqy/prode/internal/usecase"
)

const feedDocument = `{
  "results": [
    {"id": 4506263, "home": {"id": 10077, "name": "Club"}, "away": {"id": "1", "name": "Rival"},
     "tournament": {"name": "Liga Profesional"},
     "status": {"utcTime": "2025-11-30T22:00:00.000Z", "finished": true, "scoreStr": "2 - 1", "reason": {"short": "FT", "long": "Full-Time"}}},
    "not-an-entry"
  ],
  "fixtures": {
    "b": [{"id": "200", "home": {"id": 3}, "away": {"id": 10077}, "leagueName": "Copa Argentina",
           "status": {"utcTime": "2026-04-10T00:00:00Z", "timeTBD": true}}],
    "a": {"nested": [{"id": "100", "home": {"id": 10077}, "away": {"id": 5}, "status": {"utcTime": "2026-04-05T00:00:00Z", "reason": {"longKey": "postponed"}}}]}
  },
  "allFixtures": null
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		APIKey:         "secret-key",
		ClubID:         "10077",
		Timezone:       "America/Argentina/Buenos_Aires",
		CountryCode:    "ARG",
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClient_FetchMatchFeedDecodesBuckets(t *testing.T) {
	t.Parallel()

	var gotQuery, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get(apiKeyHeader)
		if r.URL.Path != teamFixturesPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedDocument))
	}, resilience.CircuitBreakerConfig{})

	feed, err := client.FetchMatchFeed(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	wantQuery := "ccode3=ARG&teamId=10077&timezone=America%2FArgentina%2FBuenos_Aires"
	if gotQuery != wantQuery {
		t.Fatalf("unexpected query: got=%s want=%s", gotQuery, wantQuery)
	}
	if gotKey != "secret-key" {
		t.Fatalf("api key header not sent")
	}
	if feed.Skipped != 1 {
		t.Fatalf("unexpected skipped: got=%d want=1", feed.Skipped)
	}
	if len(feed.Buckets) != 2 {
		t.Fatalf("unexpected buckets: %+v", feed.Buckets)
	}

	result := feed.Buckets[0].Entries[0]
	if feed.Buckets[0].Name != usecase.BucketResults || result.ExternalID != "4506263" || result.Home.ID != "10077" || result.Away.ID != "1" {
		t.Fatalf("unexpected result entry: %+v", result)
	}
	if !result.Finished || result.ScoreText != "2 - 1" || result.TournamentName != "Liga Profesional" || len(result.StatusTexts) != 2 {
		t.Fatalf("unexpected result details: %+v", result)
	}

	fixtures := feed.Buckets[1]
	if fixtures.Name != usecase.BucketFixtures || len(fixtures.Entries) != 2 {
		t.Fatalf("unexpected fixtures bucket: %+v", fixtures)
	}
	// Mapping keys are walked in sorted order: "a" before "b".
	if fixtures.Entries[0].ExternalID != "100" || fixtures.Entries[1].ExternalID != "200" {
		t.Fatalf("unexpected nested order: %+v", fixtures.Entries)
	}
	if !fixtures.Entries[1].TimeUndefined || fixtures.Entries[1].TournamentName != "Copa Argentina" {
		t.Fatalf("unexpected fixture entry: %+v", fixtures.Entries[1])
	}
	if fixtures.Entries[0].StatusTexts[0] != "postponed" {
		t.Fatalf("unexpected status texts: %+v", fixtures.Entries[0].StatusTexts)
	}
}

func TestClient_FetchMatchFeedFailures(t *testing.T) {
	t.Parallel()

	t.Run("client error is not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "bad team", http.StatusBadRequest)
		}, resilience.CircuitBreakerConfig{})
		client.maxRetries = 2

		if _, err := client.FetchMatchFeed(context.Background()); err == nil {
			t.Fatalf("expected error for 400 response")
		}
		if got := calls.Load(); got != 1 {
			t.Fatalf("unexpected attempts: got=%d want=1", got)
		}
	})

	t.Run("undecodable document", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}, resilience.CircuitBreakerConfig{})

		_, err := client.FetchMatchFeed(context.Background())
		if !crerr.Is(err, usecase.ErrMalformedPayload) {
			t.Fatalf("expected ErrMalformedPayload, got %v", err)
		}
	})

	t.Run("breaker opens on server errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})

		if _, err := client.FetchMatchFeed(context.Background()); err == nil {
			t.Fatalf("expected error for 502 response")
		}
		_, err := client.FetchMatchFeed(context.Background())
		if !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
		if got := calls.Load(); got != 1 {
			t.Fatalf("open breaker must not call the provider: calls=%d", got)
		}
	})

	t.Run("missing configuration", func(t *testing.T) {
		t.Parallel()

		client := NewClient(ClientConfig{ClubID: "10077", Logger: logging.NewNop()})
		if _, err := client.FetchMatchFeed(context.Background()); !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	})
}

func TestCollectEntries_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		wantEntries int
		wantSkipped int
	}{
		{name: "absent", raw: "", wantEntries: 0},
		{name: "null", raw: "null", wantEntries: 0},
		{name: "list", raw: `[{"id":1},{"id":2}]`, wantEntries: 2},
		{name: "nested", raw: `{"x":[{"id":1}],"y":{"z":[{"id":2},{"id":3}]},"w":null}`, wantEntries: 3},
		{name: "scalar", raw: `42`, wantSkipped: 1},
	}

	for _, tt := range tests {
		entries, skipped := collectEntries([]byte(tt.raw))
		if len(entries) != tt.wantEntries || skipped != tt.wantSkipped {
			t.Fatalf("%s: got entries=%d skipped=%d want entries=%d skipped=%d", tt.name, len(entries), skipped, tt.wantEntries, tt.wantSkipped)
		}
	}
}

func TestFlexibleID(t *testing.T) {
	t.Parallel()

	var entry matchEntry
	if err := entry.ID.UnmarshalJSON([]byte(`" 77 "`)); err != nil || entry.ID != "77" {
		t.Fatalf("string id: got=%q err=%v", entry.ID, err)
	}
	if err := entry.ID.UnmarshalJSON([]byte(`1234`)); err != nil || entry.ID != "1234" {
		t.Fatalf("number id: got=%q err=%v", entry.ID, err)
	}
	if err := entry.ID.UnmarshalJSON([]byte(`{"x":1}`)); err == nil {
		t.Fatalf("object id must fail")
	}
}
