package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultDDGURL is the DuckDuckGo HTML lite endpoint.
const DefaultDDGURL = "https://html.duckduckgo.com/html/"

// DDGSearch scrapes the keyless DuckDuckGo HTML lite endpoint.
type DDGSearch struct {
	client  *http.Client
	baseURL string
	region  string
}

// NewDDGSearch creates a DuckDuckGo client. Empty baseURL uses DefaultDDGURL.
func NewDDGSearch(hc *http.Client, baseURL string) *DDGSearch {
	if baseURL == "" {
		baseURL = DefaultDDGURL
	}
	return &DDGSearch{client: hc, baseURL: baseURL, region: "wt-wt"}
}

// Search posts the query form and parses at most limit results.
func (d *DDGSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	metrics.SearchRequests.Add(1)

	form := url.Values{"q": {query}, "kl": {d.region}, "df": {""}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", UserAgentChrome)
	req.Header.Set("Referer", "https://html.duckduckgo.com/")

	resp, err := d.client.Do(req)
	if err != nil {
		metrics.SearchErrors.Add(1)
		return nil, fmt.Errorf("ddg html: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SearchErrors.Add(1)
		return nil, fmt.Errorf("ddg html: %w", &StatusError{StatusCode: resp.StatusCode})
	}

	results, err := parseDDGHTML(resp.Body)
	if err != nil {
		metrics.SearchErrors.Add(1)
		return nil, err
	}
	slog.Debug("ddg results", slog.Int("count", len(results)))
	return capResults(results, limit), nil
}

// parseDDGHTML extracts search results from DDG HTML lite response.
func parseDDGHTML(r io.Reader) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}

	var results []SearchResult
	doc.Find(".result, .web-result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.result__a, .result__title a, a.result-link").First()
		title := strings.TrimSpace(link.Text())
		href, exists := link.Attr("href")
		if !exists || title == "" {
			return
		}
		href = ddgUnwrapURL(href)
		if href == "" {
			return
		}
		snippet := CleanHTML(s.Find(".result__snippet, .result__body").First().Text())

		results = append(results, SearchResult{
			Title:   title,
			Snippet: orNA(snippet),
			Link:    href,
		})
	})
	return results, nil
}

// ddgUnwrapURL extracts the actual URL from DDG redirect wrappers.
// DDG HTML wraps links as: //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=...
func ddgUnwrapURL(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") || strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				return uddg
			}
		}
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
