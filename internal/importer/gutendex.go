package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "Librarian/1.0 (https://github.com/mrlokans/librarian)"

// GutendexBook is one result of the Gutendex search endpoint.
type GutendexBook struct {
	ID      int              `json:"id"`
	Title   string           `json:"title"`
	Authors []GutendexPerson `json:"authors"`
}

type GutendexPerson struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year"`
	DeathYear *int   `json:"death_year"`
}

type gutendexPage struct {
	Count   int            `json:"count"`
	Next    *string        `json:"next"`
	Results []GutendexBook `json:"results"`
}

// GutendexClient queries the Project Gutenberg catalog through gutendex.com.
// Outgoing requests are throttled to one per second with a burst of two.
type GutendexClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewGutendexClient creates a client for baseURL, e.g. "https://gutendex.com".
func NewGutendexClient(baseURL string) *GutendexClient {
	return &GutendexClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Search returns the first page of books matching term. An empty term
// returns the default listing.
func (c *GutendexClient) Search(ctx context.Context, term string) ([]GutendexBook, error) {
	searchURL := c.baseURL + "/books/"
	if term = strings.TrimSpace(term); term != "" {
		searchURL += "?search=" + url.QueryEscape(term)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var page gutendexPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return page.Results, nil
}
