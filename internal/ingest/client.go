package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
)

const maxAttempts = 3

// Client talks to the football data API (API-Football v3 shape). Every
// response wraps its payload in a "response" array.
type Client struct {
	httpClient *http.Client
	host       string
	apiKey     string
}

func NewClient(cfg *config.FootballConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		host:       cfg.Host,
		apiKey:     cfg.APIKey,
	}
}

// getJSON performs one API call with retries. Rate-limit responses honor
// the Retry-After header (default 60s); transport errors back off
// exponentially. Any other non-200 fails immediately, the caller decides
// whether that sinks the run.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("https://%s%s", c.host, path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request for %s: %w", path, err)
		}
		req.Header.Set("x-apisports-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				wait := time.Duration(1<<attempt) * time.Second
				slog.Warn("football API request failed, retrying", "path", path, "attempt", attempt, "wait", wait, "error", err)
				if err := sleepCtx(ctx, wait); err != nil {
					return err
				}
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited on %s", path)
			if attempt < maxAttempts {
				wait := retryAfter(resp)
				slog.Warn("football API rate limited", "path", path, "attempt", attempt, "wait", wait)
				if err := sleepCtx(ctx, wait); err != nil {
					return err
				}
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("football API returned status %d for %s", resp.StatusCode, path)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response for %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("football API request failed after %d attempts for %s: %w", maxAttempts, path, lastErr)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 60 * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ---------------------------------------------------------------------------
// Payload shapes. Only the fields we read are declared.

type leaguePayload struct {
	Response []struct {
		League struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
			Logo string `json:"logo"`
		} `json:"league"`
		Country struct {
			Name string `json:"name"`
		} `json:"country"`
	} `json:"response"`
}

type teamPayload struct {
	Response []struct {
		Team struct {
			ID      int64  `json:"id"`
			Name    string `json:"name"`
			Code    string `json:"code"`
			Country string `json:"country"`
			Logo    string `json:"logo"`
		} `json:"team"`
	} `json:"response"`
}

type squadPayload struct {
	Response []struct {
		Team struct {
			ID int64 `json:"id"`
		} `json:"team"`
		Players []struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			Position string `json:"position"`
		} `json:"players"`
	} `json:"response"`
}

type fixturePayload struct {
	Response []struct {
		Fixture struct {
			ID      int64     `json:"id"`
			Date    time.Time `json:"date"`
			Referee string    `json:"referee"`
			Venue   struct {
				Name string `json:"name"`
			} `json:"venue"`
		} `json:"fixture"`
		Teams struct {
			Home struct {
				ID int64 `json:"id"`
			} `json:"home"`
			Away struct {
				ID int64 `json:"id"`
			} `json:"away"`
		} `json:"teams"`
		Goals struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"goals"`
	} `json:"response"`
}

type eventPayload struct {
	Response []struct {
		Time struct {
			Elapsed int `json:"elapsed"`
		} `json:"time"`
		Team struct {
			ID int64 `json:"id"`
		} `json:"team"`
		Type   string `json:"type"`
		Player struct {
			Name string `json:"name"`
		} `json:"player"`
		Assist struct {
			Name string `json:"name"`
		} `json:"assist"`
	} `json:"response"`
}

type statisticsPayload struct {
	Response []struct {
		Team struct {
			ID int64 `json:"id"`
		} `json:"team"`
		Statistics []struct {
			Type  string      `json:"type"`
			Value interface{} `json:"value"` // number, "55%", or null
		} `json:"statistics"`
	} `json:"response"`
}

// statValue coerces the API's mixed-type statistic values to a float.
// Percentages arrive as "55%", missing values as null.
func statValue(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// league fetches one league by upstream ID for a season.
func (c *Client) league(ctx context.Context, leagueID int64, season string) (*leaguePayload, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(leagueID, 10))
	params.Set("season", season)

	var payload leaguePayload
	if err := c.getJSON(ctx, "/leagues", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// teams fetches all teams of a league for a season.
func (c *Client) teams(ctx context.Context, leagueID int64, season string) (*teamPayload, error) {
	params := url.Values{}
	params.Set("league", strconv.FormatInt(leagueID, 10))
	params.Set("season", season)

	var payload teamPayload
	if err := c.getJSON(ctx, "/teams", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// squad fetches the current squad of one team.
func (c *Client) squad(ctx context.Context, teamAPIID int64) (*squadPayload, error) {
	params := url.Values{}
	params.Set("team", strconv.FormatInt(teamAPIID, 10))

	var payload squadPayload
	if err := c.getJSON(ctx, "/players/squads", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// fixtures fetches all fixtures of a league for a season.
func (c *Client) fixtures(ctx context.Context, leagueID int64, season string) (*fixturePayload, error) {
	params := url.Values{}
	params.Set("league", strconv.FormatInt(leagueID, 10))
	params.Set("season", season)

	var payload fixturePayload
	if err := c.getJSON(ctx, "/fixtures", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// fixtureEvents fetches the event timeline of one fixture.
func (c *Client) fixtureEvents(ctx context.Context, fixtureAPIID int64) (*eventPayload, error) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureAPIID, 10))

	var payload eventPayload
	if err := c.getJSON(ctx, "/fixtures/events", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// fixtureStatistics fetches per-team statistics of one fixture.
func (c *Client) fixtureStatistics(ctx context.Context, fixtureAPIID int64) (*statisticsPayload, error) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureAPIID, 10))

	var payload statisticsPayload
	if err := c.getJSON(ctx, "/fixtures/statistics", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
