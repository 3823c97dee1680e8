// Package rawg fetches canonical game metadata from the RAWG API.
package rawg

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

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/catalog"
	"github.com/sakif/playtrack/internal/metrics"
	"github.com/sakif/playtrack/internal/model"
)

const (
	DefaultBaseURL = "https://api.rawg.io/api"
	provider       = "rawg"
)

// Client implements catalog.Lookup.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var _ catalog.Lookup = (*Client)(nil)

// NewClient builds a client. timeout bounds every call, including reading
// the body.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
	}
}

// gameDetail is the subset of GET /games/{id} we keep.
type gameDetail struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	DescriptionRaw  string  `json:"description_raw"`
	BackgroundImage string  `json:"background_image"`
	Released        string  `json:"released"`
	Genres          []named `json:"genres"`
	Platforms       []struct {
		Platform named `json:"platform"`
	} `json:"platforms"`
	Developers []named `json:"developers"`
	Publishers []named `json:"publishers"`
}

type named struct {
	Name string `json:"name"`
}

func (c *Client) FetchGame(ctx context.Context, externalID string) (*model.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/games/%s?key=%s", c.baseURL, url.PathEscape(externalID), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperror.CatalogUnavailable(provider, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching RAWG game", slog.String("external_id", externalID))
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.CatalogRequest(provider, "error")
		return nil, apperror.CatalogUnavailable(provider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.CatalogRequest(provider, "not_found")
		return nil, apperror.NotFoundf("game not found in catalog with id %s", externalID)
	case resp.StatusCode != http.StatusOK:
		c.metrics.CatalogRequest(provider, "error")
		return nil, apperror.CatalogUnavailable(provider, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var d gameDetail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		c.metrics.CatalogRequest(provider, "error")
		return nil, apperror.CatalogUnavailable(provider, fmt.Errorf("decoding game %s: %w", externalID, err))
	}
	c.metrics.CatalogRequest(provider, "ok")
	return d.toGame(externalID), nil
}

// toGame converts the payload. RAWG answers slug lookups too, so the
// external id is always the numeric id from the body, never the request ref.
func (d *gameDetail) toGame(requested string) *model.Game {
	externalID := requested
	if d.ID > 0 {
		externalID = strconv.Itoa(d.ID)
	}
	g := &model.Game{
		ExternalID:  externalID,
		Title:       d.Name,
		Description: d.DescriptionRaw,
		CoverImage:  d.BackgroundImage,
		Genres:      names(d.Genres),
		Platforms:   make([]string, 0, len(d.Platforms)),
		Developer:   strings.Join(names(d.Developers), ", "),
		Publisher:   strings.Join(names(d.Publishers), ", "),
	}
	for _, p := range d.Platforms {
		g.Platforms = append(g.Platforms, p.Platform.Name)
	}
	if t, err := time.Parse(time.DateOnly, d.Released); err == nil {
		g.ReleaseDate = &t
	}
	return g
}

func names(in []named) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, n.Name)
	}
	return out
}
