// Package geocoding resolves free-text addresses to coordinates through
// an HTTP geocoding service. Resolution is best-effort: any failure
// falls back to a pinned default location so directory writes never
// block on the external service.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/domicare/rota/pkg/geo"
)

type candidate struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Client queries the geocoding service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	fallback   geo.Coordinates
	logger     *slog.Logger
}

// NewClient creates a geocoding client. An empty baseURL disables the
// service entirely; Resolve then always returns the fallback.
func NewClient(baseURL string, timeout time.Duration, fallback geo.Coordinates, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   fallback,
		logger:     logger,
	}
}

// Resolve returns coordinates for the address. Timeouts, non-200
// responses, and empty candidate lists all degrade to the fallback
// location with a warning log.
func (c *Client) Resolve(ctx context.Context, address string) geo.Coordinates {
	if c.baseURL == "" {
		return c.fallback
	}

	coords, err := c.lookup(ctx, address)
	if err != nil {
		c.logger.Warn("geocoding failed, using fallback location",
			"address", address,
			"error", err,
		)
		return c.fallback
	}
	return coords
}

func (c *Client) lookup(ctx context.Context, address string) (geo.Coordinates, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&limit=1", c.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return geo.Coordinates{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Coordinates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Coordinates{}, fmt.Errorf("geocoding service returned status %d", resp.StatusCode)
	}

	var candidates []candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return geo.Coordinates{}, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(candidates) == 0 {
		return geo.Coordinates{}, fmt.Errorf("no candidates for %q", address)
	}

	return geo.Coordinates{
		Longitude: candidates[0].Longitude,
		Latitude:  candidates[0].Latitude,
	}, nil
}
