package synthetic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/bullpen/internal/domain/model"
)

const maxErrorBody = 512

// Client reads projections from a running bullpen server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Projections fetches up to limit projections.
func (c *Client) Projections(ctx context.Context, limit int) ([]model.Projection, error) {
	url := c.baseURL + "/projections?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get projections: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("get projections: status %d: %s", resp.StatusCode, body)
	}

	var out []model.Projection
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode projections: %w", err)
	}
	return out, nil
}
