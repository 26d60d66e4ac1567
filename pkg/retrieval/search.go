package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	defaultSearchBaseURL = "https://html.duckduckgo.com/html/"
	defaultResultCount   = 20
	defaultHTTPTimeout   = 10 * time.Second
)

// DefaultExcludedDomains are filtered from search results before they are
// returned. Aggregator domains tend to crowd out primary sources.
var DefaultExcludedDomains = []string{"substack.com"}

// Result is one ranked search hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Searcher queries the DuckDuckGo HTML endpoint, which needs no API key and
// returns a parseable static page.
type Searcher struct {
	httpClient *http.Client
	baseURL    string
	excluded   []string
	logger     zerolog.Logger
}

// SearcherOptions configures a Searcher. Zero values get sane defaults.
type SearcherOptions struct {
	HTTPClient      *http.Client
	BaseURL         string
	ExcludedDomains []string
	Logger          zerolog.Logger
}

// NewSearcher creates a web search adapter.
func NewSearcher(opts SearcherOptions) *Searcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultSearchBaseURL
	}
	excluded := opts.ExcludedDomains
	if excluded == nil {
		excluded = DefaultExcludedDomains
	}
	return &Searcher{
		httpClient: client,
		baseURL:    baseURL,
		excluded:   excluded,
		logger:     opts.Logger.With().Str("component", "searcher").Logger(),
	}
}

// Search returns up to count results for the query, with excluded domains
// already filtered out.
func (s *Searcher) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 {
		count = defaultResultCount
	}
	s.logger.Info().Str("query", query).Msg("Performing web search")

	endpoint := s.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned unexpected status %s", resp.Status)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results page: %w", err)
	}

	results := parseResults(root)
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if s.isExcluded(r.URL) {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) >= count {
			break
		}
	}

	s.logger.Info().Int("results", len(filtered)).Msg("Search complete")
	return filtered, nil
}

func (s *Searcher) isExcluded(resultURL string) bool {
	for _, domain := range s.excluded {
		if strings.Contains(resultURL, domain) {
			return true
		}
	}
	return false
}

// FormatResults renders results as the text block handed back to the expert.
// Each hit only carries title, snippet, and URL; the expert must read the
// pages themselves for full content.
func FormatResults(query string, results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n", query)
	for _, r := range results {
		fmt.Fprintf(&b, "\nTitle: %s\nDescription: %s\nURL: %s\n", r.Title, r.Snippet, r.URL)
	}
	return b.String()
}

// parseResults walks the DuckDuckGo HTML page. Each hit is an element with
// class "result" containing an anchor "result__a" (title and redirect link)
// and a "result__snippet" node.
func parseResults(root *html.Node) []Result {
	var results []Result
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "result") {
			if r, ok := parseResultNode(n); ok {
				results = append(results, r)
			}
			// Result blocks do not nest; no need to descend further.
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return results
}

func parseResultNode(n *html.Node) (Result, bool) {
	var r Result
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				r.Title = nodeText(n)
				r.URL = resolveRedirect(attrValue(n, "href"))
			case hasClass(n, "result__snippet"):
				r.Snippet = nodeText(n)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return r, r.URL != ""
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> redirect links.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attrValue(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
