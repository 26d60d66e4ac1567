// Package retrieval provides the web search and page fetch adapters. Both
// are thin leaves: they own their HTTP policy, and callers render any error
// as a descriptive text payload instead of aborting the session.
package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	// maxExtractChars bounds the plain text returned from a fetched page.
	maxExtractChars = 4000

	// maxFetchBytes bounds how much of the response body is read at all.
	maxFetchBytes = 2 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Fetcher retrieves a web page and extracts its readable text.
type Fetcher struct {
	httpClient *http.Client
	maxChars   int
	logger     zerolog.Logger
}

// FetcherOptions configures a Fetcher. Zero values get sane defaults.
type FetcherOptions struct {
	HTTPClient *http.Client
	MaxChars   int
	Logger     zerolog.Logger
}

// NewFetcher creates a page fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = maxExtractChars
	}
	return &Fetcher{
		httpClient: client,
		maxChars:   maxChars,
		logger:     opts.Logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch downloads the page and returns its extracted text, truncated to the
// configured bound and prefixed with the source URL so the result block is
// self-describing.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	f.logger.Info().Str("url", pageURL).Msg("Fetching page content")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching URL %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("error fetching URL %s: unexpected status %s", pageURL, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		return "", fmt.Errorf("unsupported content type %q from %s", contentType, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("error reading body from %s: %w", pageURL, err)
	}

	text := ExtractText(string(body))
	truncated := false
	if runes := []rune(text); len(runes) > f.maxChars {
		text = string(runes[:f.maxChars])
		truncated = true
	}
	if truncated {
		text += "..."
	}

	f.logger.Info().Str("url", pageURL).Int("chars", utf8.RuneCountInString(text)).Msg("Fetched and extracted page content")
	return fmt.Sprintf("Content from %s:\n\n%s", pageURL, text), nil
}

// ExtractText strips markup, scripts, and styles from an HTML document and
// returns the remaining text with one trimmed line per text run.
func ExtractText(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		// html.Parse is extremely tolerant; if it fails anyway, the raw
		// bytes are better than nothing.
		return strings.TrimSpace(doc)
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if trimmed := strings.TrimSpace(line); trimmed != "" {
					lines = append(lines, trimmed)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return strings.Join(lines, "\n")
}
