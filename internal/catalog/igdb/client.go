// Package igdb fetches optional game detail (screenshots, storyline, themes)
// from IGDB. Requests are authorized with a Twitch app token obtained through
// the OAuth2 client-credentials flow; the token source caches and refreshes
// it automatically.
package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/catalog"
	"github.com/sakif/playtrack/internal/metrics"
	"github.com/sakif/playtrack/internal/model"
)

const (
	DefaultBaseURL  = "https://api.igdb.com/v4"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"
	imageBaseURL    = "https://images.igdb.com/igdb/image/upload"
	provider        = "igdb"
)

type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
}

// Client implements catalog.Enricher.
type Client struct {
	clientID string
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

var _ catalog.Enricher = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := cc.Client(ctx)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		clientID: cfg.ClientID,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		http:     httpClient,
		logger:   logger,
		metrics:  m,
	}
}

type igdbGame struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Storyline   string `json:"storyline"`
	Summary     string `json:"summary"`
	Screenshots []struct {
		ImageID string `json:"image_id"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
	} `json:"screenshots"`
	Themes    []named `json:"themes"`
	GameModes []named `json:"game_modes"`
}

type named struct {
	Name string `json:"name"`
}

// Enrich searches IGDB by title and returns the detail of the exact
// (case-insensitive) match, or of the first result when nothing matches
// exactly. No result at all is ErrNotFound.
func (c *Client) Enrich(ctx context.Context, title string) (*model.GameEnrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := fmt.Sprintf(`search "%s";
fields name, storyline, summary, screenshots.image_id, screenshots.width, screenshots.height, themes.name, game_modes.name;
limit 5;`, strings.ReplaceAll(title, `"`, `\"`))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", strings.NewReader(body))
	if err != nil {
		return nil, apperror.CatalogUnavailable(provider, err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.CatalogRequest(provider, "error")
		return nil, apperror.CatalogUnavailable(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.CatalogRequest(provider, "error")
		return nil, apperror.CatalogUnavailable(provider, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var results []igdbGame
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.metrics.CatalogRequest(provider, "error")
		return nil, apperror.CatalogUnavailable(provider, fmt.Errorf("decoding search results: %w", err))
	}
	if len(results) == 0 {
		c.metrics.CatalogRequest(provider, "not_found")
		return nil, apperror.NotFoundf("no IGDB match for %q", title)
	}
	c.metrics.CatalogRequest(provider, "ok")

	best := results[0]
	for _, r := range results {
		if strings.EqualFold(r.Name, title) {
			best = r
			break
		}
	}
	return best.toEnrichment(), nil
}

func (g *igdbGame) toEnrichment() *model.GameEnrichment {
	e := &model.GameEnrichment{
		Storyline:   g.Storyline,
		Summary:     g.Summary,
		Screenshots: make([]model.Screenshot, 0, len(g.Screenshots)),
		Themes:      make([]string, 0, len(g.Themes)),
		GameModes:   make([]string, 0, len(g.GameModes)),
	}
	for _, s := range g.Screenshots {
		e.Screenshots = append(e.Screenshots, model.Screenshot{
			URL:    ImageURL(s.ImageID, "t_screenshot_big"),
			URLHD:  ImageURL(s.ImageID, "t_1080p"),
			Width:  s.Width,
			Height: s.Height,
		})
	}
	for _, t := range g.Themes {
		e.Themes = append(e.Themes, t.Name)
	}
	for _, m := range g.GameModes {
		e.GameModes = append(e.GameModes, m.Name)
	}
	return e
}

// ImageURL builds a CDN url for an IGDB image id at the given size preset.
func ImageURL(imageID, size string) string {
	if imageID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s.jpg", imageBaseURL, size, imageID)
}
