// Package places searches Google Places for candidate addresses and renders
// them as text a chat model can pick a place ID from.
package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

const (
	// ToolName is the function name the model sees.
	ToolName = "google_places"

	// ToolDescription is shown to the model in the tool list and the prompt.
	ToolDescription = "A wrapper around Google Places. Useful for when you need to validate or " +
		"discover addressed from ambiguous text. Input should be a search query."

	// QueryDescription documents the single tool argument.
	QueryDescription = "Query for google maps"

	// NoResults is returned to the model when the search finds nothing.
	NoResults = "Google Places did not find any places that match the description"

	defaultTopK       = 5
	defaultRatePerSec = 5
	defaultBurst      = 1
	defaultTimeout    = 20 * time.Second
	maxDetailLookups  = 4
)

// ErrEmptyQuery is returned when the model calls the tool without a query.
var ErrEmptyQuery = errors.New("places: query is required")

// Searcher is the subset of *maps.Client used here.
type Searcher interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

// Config holds the Google Places settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string

	// TopK limits how many search results are detailed and returned
	TopK int

	// RequestsPerSecond and Burst shape outgoing Places requests
	RequestsPerSecond float64
	Burst             int

	// Timeout bounds one tool invocation
	Timeout time.Duration

	HTTPClient *http.Client
}

// Place is one rendered candidate.
type Place struct {
	Name    string
	Address string
	PlaceID string
	Phone   string
	Website string
}

// Client runs text searches and hydrates the top results with details.
type Client struct {
	searcher Searcher
	limiter  *rate.Limiter
	topK     int
	language string
	timeout  time.Duration
}

// New creates a Client backed by the Google Maps Places web service.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("places: api key is required")
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, maps.WithHTTPClient(cfg.HTTPClient))
	}

	mc, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("places: create maps client: %w", err)
	}
	return NewWithSearcher(mc, cfg), nil
}

// NewWithSearcher creates a Client on top of any Searcher.
func NewWithSearcher(s Searcher, cfg Config) *Client {
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRatePerSec
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		searcher: s,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		topK:     topK,
		language: cfg.Language,
		timeout:  timeout,
	}
}

// Search finds places matching query. Up to TopK results are returned in
// search order; each is enriched with phone and website when the details
// lookup succeeds.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("places: rate limiter: %w", err)
	}
	resp, err := c.searcher.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("places: text search %q: %w", query, err)
	}

	results := resp.Results
	if len(results) > c.topK {
		results = results[:c.topK]
	}

	found := make([]Place, len(results))
	for i, r := range results {
		found[i] = Place{Name: r.Name, Address: r.FormattedAddress, PlaceID: r.PlaceID}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDetailLookups)
	for i := range found {
		if found[i].PlaceID == "" {
			continue
		}
		i := i
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return err
			}
			d, err := c.searcher.PlaceDetails(gctx, &maps.PlaceDetailsRequest{
				PlaceID:  found[i].PlaceID,
				Language: c.language,
				Fields: []maps.PlaceDetailsFieldMask{
					maps.PlaceDetailsFieldMaskName,
					maps.PlaceDetailsFieldMaskFormattedAddress,
					maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
					maps.PlaceDetailsFieldMaskWebsite,
				},
			})
			if err != nil {
				// keep the search result fields
				return nil
			}
			mergeDetails(&found[i], d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("places: details: %w", err)
	}

	return found, nil
}

func mergeDetails(p *Place, d maps.PlaceDetailsResult) {
	if d.Name != "" {
		p.Name = d.Name
	}
	if d.FormattedAddress != "" {
		p.Address = d.FormattedAddress
	}
	p.Phone = d.FormattedPhoneNumber
	p.Website = d.Website
}

// Lookup runs Search and formats the result for the model.
func (c *Client) Lookup(ctx context.Context, query string) (string, error) {
	found, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return Format(found), nil
}

// Format renders places as a numbered list, or NoResults when empty.
func Format(found []Place) string {
	if len(found) == 0 {
		return NoResults
	}

	var b strings.Builder
	for i, p := range found {
		fmt.Fprintf(&b, "%d. %s\nAddress: %s\nGoogle place ID: %s\nPhone: %s\nWebsite: %s\n\n",
			i+1, p.Name, orUnknown(p.Address), p.PlaceID, orUnknown(p.Phone), orUnknown(p.Website))
	}
	return strings.TrimRight(b.String(), "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
