package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Searcher is a ranked-snippet search backend.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// DefaultGoogleCSEURL is the Custom Search JSON API endpoint.
const DefaultGoogleCSEURL = "https://www.googleapis.com/customsearch/v1"

// NewSearcher builds the backend selected by c.SearchBackend.
// Every backend shares one HTTP client bounded by c.SearchTimeout.
func NewSearcher(c Config) (Searcher, error) {
	hc := &http.Client{Timeout: c.SearchTimeout}
	switch strings.ToLower(c.SearchBackend) {
	case BackendGoogle, "":
		return NewGoogleSearch(hc, c.GoogleCSEURL, c.GoogleAPIKey, c.GoogleCSEID), nil
	case BackendSearxng:
		return NewSearxngSearch(hc, c.SearxngURL), nil
	case BackendDuckDuckGo:
		return NewDDGSearch(hc, ""), nil
	}
	return nil, fmt.Errorf("unknown search backend %q", c.SearchBackend)
}

// GoogleSearch queries the Google Custom Search JSON API.
type GoogleSearch struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cseID   string
}

// NewGoogleSearch creates a Custom Search client. Empty baseURL uses DefaultGoogleCSEURL.
func NewGoogleSearch(hc *http.Client, baseURL, apiKey, cseID string) *GoogleSearch {
	if baseURL == "" {
		baseURL = DefaultGoogleCSEURL
	}
	return &GoogleSearch{client: hc, baseURL: baseURL, apiKey: apiKey, cseID: cseID}
}

// Search returns at most limit items. Non-2xx responses are errors.
func (g *GoogleSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	q.Set("cx", g.cseID)
	q.Set("q", query)
	if limit > 0 && limit <= 10 {
		q.Set("num", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	var data googleResponse
	if err := getJSON(ctx, g.client, u.String(), &data); err != nil {
		return nil, fmt.Errorf("google cse: %w", err)
	}

	out := make([]SearchResult, 0, len(data.Items))
	for _, it := range data.Items {
		out = append(out, SearchResult{
			Title:   orNA(it.Title),
			Snippet: orNA(it.Snippet),
			Link:    orNA(it.Link),
		})
	}
	return capResults(out, limit), nil
}

// SearxngSearch queries a SearXNG instance's JSON API.
type SearxngSearch struct {
	client  *http.Client
	baseURL string
}

// NewSearxngSearch creates a SearXNG client rooted at baseURL.
func NewSearxngSearch(hc *http.Client, baseURL string) *SearxngSearch {
	return &SearxngSearch{client: hc, baseURL: strings.TrimRight(baseURL, "/")}
}

// Search returns at most limit results in engine rank order.
func (s *SearxngSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	u, err := url.Parse(s.baseURL + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	var data searxngResponse
	if err := getJSON(ctx, s.client, u.String(), &data); err != nil {
		return nil, fmt.Errorf("searxng: %w", err)
	}

	out := make([]SearchResult, 0, len(data.Results))
	for _, r := range data.Results {
		out = append(out, SearchResult{
			Title:   orNA(CleanHTML(r.Title)),
			Snippet: orNA(CleanHTML(r.Content)),
			Link:    orNA(r.URL),
		})
	}
	return capResults(out, limit), nil
}

// getJSON performs a GET and decodes a 2xx JSON body into v.
func getJSON(ctx context.Context, hc *http.Client, rawURL string, v any) error {
	metrics.SearchRequests.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgentBot)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		metrics.SearchErrors.Add(1)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.SearchErrors.Add(1)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		metrics.SearchErrors.Add(1)
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx reply from a search backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), Truncate(e.Body, 200))
}

func capResults(rs []SearchResult, limit int) []SearchResult {
	if limit > 0 && len(rs) > limit {
		return rs[:limit]
	}
	return rs
}
