package matchfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/platform/resilience"
	"github.com/riskibarqy/prode/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	teamFixturesPath = "/teams/fixtures"
	maxResponseBytes = 6 << 20
	apiKeyHeader     = "X-Api-Key"
)

var errMatchFeedTransient = crerr.New("match feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	ClubID         string
	Timezone       string
	CountryCode    string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	Clock          clockwork.Clock
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client pulls the club's fixtures document. It implements usecase.FixtureSource.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	clubID      string
	timezone    string
	countryCode string
	maxRetries  int
	logger      *logging.Logger
	clock       clockwork.Clock
	breaker     *resilience.CircuitBreaker
	flight      resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		clubID:      strings.TrimSpace(cfg.ClubID),
		timezone:    strings.TrimSpace(cfg.Timezone),
		countryCode: strings.TrimSpace(cfg.CountryCode),
		maxRetries:  max(cfg.MaxRetries, 0),
		logger:      logger.Named("matchfeed"),
		clock:       clock,
		breaker:     resilience.NewCircuitBreaker(cfg.CircuitBreaker, clock),
	}
}

// FetchMatchFeed issues one request and splits the document into its
// buckets. Entries that cannot be decoded are counted in Skipped.
func (c *Client) FetchMatchFeed(ctx context.Context) (usecase.MatchFeed, error) {
	if c.baseURL == "" {
		return usecase.MatchFeed{}, fmt.Errorf("%w: match feed base url is not configured", usecase.ErrDependencyUnavailable)
	}
	if c.clubID == "" {
		return usecase.MatchFeed{}, fmt.Errorf("%w: match feed club id is not configured", usecase.ErrInvalidInput)
	}

	query := map[string]string{"teamId": c.clubID}
	if c.timezone != "" {
		query["timezone"] = c.timezone
	}
	if c.countryCode != "" {
		query["ccode3"] = c.countryCode
	}

	var envelope feedEnvelope
	if _, err := c.doJSON(ctx, teamFixturesPath, query, &envelope); err != nil {
		return usecase.MatchFeed{}, fmt.Errorf("fetch team fixtures team_id=%s: %w", c.clubID, err)
	}

	feed := usecase.MatchFeed{Buckets: make([]usecase.FeedBucket, 0, 3)}
	for _, bucket := range []struct {
		name string
		raw  json.RawMessage
	}{
		{name: usecase.BucketResults, raw: envelope.Results},
		{name: usecase.BucketFixtures, raw: envelope.Fixtures},
		{name: usecase.BucketAllFixtures, raw: envelope.AllFixtures},
	} {
		entries, skipped := decodeBucket(bucket.raw)
		feed.Skipped += skipped
		if len(entries) == 0 {
			continue
		}
		feed.Buckets = append(feed.Buckets, usecase.FeedBucket{Name: bucket.name, Entries: entries})
	}

	if feed.Skipped > 0 {
		c.logger.WarnContext(ctx, "match feed entries skipped", "skipped", feed.Skipped)
	}
	c.logger.DebugContext(ctx, "match feed fetched", "entries", feed.EntryCount(), "buckets", len(feed.Buckets))
	return feed, nil
}

func decodeBucket(raw json.RawMessage) ([]usecase.ExternalMatchPayload, int) {
	items, skipped := collectEntries(raw)
	out := make([]usecase.ExternalMatchPayload, 0, len(items))
	for _, item := range items {
		var entry matchEntry
		if err := sonic.Unmarshal(item, &entry); err != nil {
			skipped++
			continue
		}
		out = append(out, usecase.ExternalMatchPayload{
			ExternalID:     string(entry.ID),
			Home:           usecase.ExternalTeamRef{ID: string(entry.Home.ID), Name: strings.TrimSpace(entry.Home.Name)},
			Away:           usecase.ExternalTeamRef{ID: string(entry.Away.ID), Name: strings.TrimSpace(entry.Away.Name)},
			TournamentName: entry.tournamentName(),
			KickoffRaw:     strings.TrimSpace(entry.Status.UTCTime),
			Finished:       entry.Status.Finished,
			Cancelled:      entry.Status.Cancelled,
			ScoreText:      strings.TrimSpace(entry.Status.ScoreStr),
			StatusTexts:    entry.statusTexts(),
			TimeUndefined:  entry.Status.TimeTBD,
		})
	}
	return out, skipped
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) ([]byte, error) {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		var raw []byte
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isMatchFeedCircuitFailure)
		if crerr.Is(execErr, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "match feed circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: match feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return raw, execErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, crerr.Mark(fmt.Errorf("decode match feed payload: %w", err), usecase.ErrMalformedPayload)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Mark(fmt.Errorf("send request: %s", sanitizeSensitiveText(err.Error(), c.apiKey)), errMatchFeedTransient)
		} else {
			raw, readErr := readBody(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(fmt.Errorf("read response body: %v", readErr), errMatchFeedTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(fmt.Errorf("match feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), errMatchFeedTransient)
			default:
				return nil, fmt.Errorf("match feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := c.clock.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.Chan():
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("match feed request failed")
	}
	c.logger.WarnContext(ctx, "match feed request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

// readBody copies the limited body through a pooled buffer; the returned
// slice does not alias the pool.
func readBody(body io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(body, maxResponseBytes)); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}

func sanitizeSensitiveText(value, secret string) string {
	value = strings.TrimSpace(value)
	if value == "" || secret == "" {
		return value
	}
	return strings.ReplaceAll(value, secret, "REDACTED")
}

func isMatchFeedCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errMatchFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.User = nil
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
