package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
)

// Client talks to The Odds API v4.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	regions    string
	markets    string
}

func NewClient(cfg *config.OddsConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		regions:    cfg.Regions,
		markets:    cfg.Markets,
	}
}

// EventOdds fetches all upcoming events with bookmaker odds for one sport.
// Quota usage is reported via response headers and logged so operators can
// watch the monthly budget.
func (c *Client) EventOdds(ctx context.Context, sportKey string) ([]Event, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/odds", c.baseURL, sportKey)

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", c.markets)
	params.Set("oddsFormat", "decimal")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create odds request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds request failed for %s: %w", sportKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("odds API returned status %d for %s: %s", resp.StatusCode, sportKey, string(body))
	}

	if remaining := resp.Header.Get("X-Requests-Remaining"); remaining != "" {
		slog.Info("odds API quota", "sport_key", sportKey, "requests_remaining", remaining)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode odds response for %s: %w", sportKey, err)
	}
	return events, nil
}
