// Package statsapi fetches schedules and box scores from the MLB Stats API.
package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

// Default client constants.
const (
	DefaultBaseURL     = "https://statsapi.mlb.com"
	DefaultSeasonStart = "03-20"
	DefaultSeasonEnd   = "11-05"
	DefaultChunkDays   = 7

	userAgent       = "bullpen/1.0 (feature pipeline)"
	timeout         = 10 * time.Second
	sportMLB        = "1"
	queryDateFmt    = "01/02/2006"
	windowDateFmt   = "01-02"
	endpointFeed    = "feed"
	endpointSched   = "schedule"
	maxErrorSnippet = 512
)

type retryPolicy struct {
	attempts int
	delay    time.Duration // attempt n waits delay * n
}

// Client reads the public Stats API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger

	detailRetry   retryPolicy
	scheduleRetry retryPolicy

	chunkDays   int
	seasonStart string
	seasonEnd   string
}

// NewClient creates a client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		detailRetry:   retryPolicy{attempts: 5, delay: 500 * time.Millisecond},
		scheduleRetry: retryPolicy{attempts: 3, delay: time.Second},
		chunkDays:     DefaultChunkDays,
		seasonStart:   DefaultSeasonStart,
		seasonEnd:     DefaultSeasonEnd,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("statsapi")
	}
	return c
}

// Schedule returns every game dated within [from, to].
func (c *Client) Schedule(ctx context.Context, from, to time.Time) ([]model.Game, error) {
	params := url.Values{}
	params.Set("sportId", sportMLB)
	params.Set("startDate", from.Format(queryDateFmt))
	params.Set("endDate", to.Format(queryDateFmt))
	fullURL := fmt.Sprintf("%s/api/v1/schedule?%s", c.baseURL, params.Encode())

	body, err := c.doRequestWithRetry(ctx, fullURL, endpointSched, c.scheduleRetry)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule failed: %w", err)
	}
	var resp scheduleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: schedule: %w", ErrDecode, err)
	}
	var games []model.Game
	for _, d := range resp.Dates {
		for _, e := range d.Games {
			if g, ok := e.toGame(d.Date); ok {
				games = append(games, g)
			}
		}
	}
	return games, nil
}

// SeasonWindow returns the first and last day scanned for a season.
func (c *Client) SeasonWindow(season int) (time.Time, time.Time, error) {
	start, err := time.Parse(windowDateFmt, c.seasonStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("season start %q: %w", c.seasonStart, err)
	}
	end, err := time.Parse(windowDateFmt, c.seasonEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("season end %q: %w", c.seasonEnd, err)
	}
	return time.Date(season, start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(season, end.Month(), end.Day(), 0, 0, 0, 0, time.UTC), nil
}

// SeasonSchedule scans a season in chunks. A chunk that still fails after
// retries is logged and skipped; the call fails only when every chunk does.
// Games are unique by id and ordered by date, then id.
func (c *Client) SeasonSchedule(ctx context.Context, season int) ([]model.Game, error) {
	from, end, err := c.SeasonWindow(season)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]model.Game)
	chunks, failed := 0, 0
	for cur := from; cur.Before(end); {
		next := cur.AddDate(0, 0, c.chunkDays)
		chunks++
		games, err := c.Schedule(ctx, cur, next)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			metrics.RecordScheduleChunk("error")
			c.logger.Warn(ctx, "schedule chunk skipped",
				logger.Int("season", season),
				logger.String("from", cur.Format(model.DateLayout)),
				logger.Error(err))
		} else {
			metrics.RecordScheduleChunk("ok")
			for _, g := range games {
				byID[g.ID] = g
			}
		}
		cur = next
	}
	if chunks > 0 && failed == chunks {
		return nil, fmt.Errorf("season %d: %w", season, ErrScheduleUnavailable)
	}

	out := make([]model.Game, 0, len(byID))
	for _, g := range byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	c.logger.Info(ctx, "season schedule fetched",
		logger.Int("season", season),
		logger.Int("games", len(out)),
		logger.Int("failed_chunks", failed))
	return out, nil
}

// BoxScore fetches the live feed of a game and extracts its box score.
func (c *Client) BoxScore(ctx context.Context, gameID int) (*model.BoxScore, error) {
	fullURL := fmt.Sprintf("%s/api/v1.1/game/%s/feed/live", c.baseURL, strconv.Itoa(gameID))
	start := time.Now()
	body, err := c.doRequestWithRetry(ctx, fullURL, endpointFeed, c.detailRetry)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordDetailFetch("error", elapsed)
		return nil, fmt.Errorf("fetch game %d failed: %w", gameID, err)
	}
	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordDetailFetch("error", elapsed)
		return nil, fmt.Errorf("%w: game %d: %w", ErrDecode, gameID, err)
	}
	metrics.RecordDetailFetch("ok", elapsed)
	return resp.toBoxScore(gameID), nil
}

// doRequestWithRetry performs an HTTP request with linear backoff.
func (c *Client) doRequestWithRetry(ctx context.Context, fullURL, endpoint string, policy retryPolicy) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < policy.attempts; attempt++ {
		if attempt > 0 {
			metrics.RecordFetchRetry(endpoint)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(policy.delay * time.Duration(attempt)):
			}
		}

		body, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
		c.logger.Debug(ctx, "request failed",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Error(err))
	}

	return nil, fmt.Errorf("%w: %w", ErrMaxRetries, lastErr)
}

// doRequest performs a single HTTP request.
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > maxErrorSnippet {
			msg = msg[:maxErrorSnippet]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	return body, nil
}
