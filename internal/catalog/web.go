package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// WebConfig configures the HTTP catalog client.
type WebConfig struct {
	BaseURL        string
	Username       string
	Password       string
	RequestTimeout time.Duration
	PollAttempts   int
	PollInterval   time.Duration
}

// WebClient implements Client against the catalog's server-rendered pages.
// One authenticated cookie session backs all operations until Close.
type WebClient struct {
	cfg        WebConfig
	httpClient *http.Client
	opened     bool
}

var _ Client = (*WebClient)(nil)

// NewWebClient builds a catalog client. The HTTP client is created on Open so
// every session starts with a fresh cookie jar.
func NewWebClient(cfg WebConfig) *WebClient {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 15
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &WebClient{cfg: cfg}
}

// Open establishes the authenticated session: load the home page, submit the
// login form when one is present, and verify the form is gone afterwards.
func (c *WebClient) Open(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return &SessionError{Op: "open", Err: err}
	}
	c.httpClient = &http.Client{Jar: jar, Timeout: c.cfg.RequestTimeout}

	doc, err := c.fetchDocument(ctx, c.cfg.BaseURL+"/")
	if err != nil {
		return &SessionError{Op: "open", Err: err}
	}

	if doc.Find("input[name='username']").Length() > 0 {
		form := url.Values{}
		form.Set("username", c.cfg.Username)
		form.Set("password", c.cfg.Password)
		doc, err = c.postForm(ctx, c.cfg.BaseURL+"/login", form)
		if err != nil {
			return &SessionError{Op: "login", Err: err}
		}
		if doc.Find("input[name='username']").Length() > 0 {
			return &SessionError{Op: "login", Err: errors.New("credentials rejected")}
		}
	}

	c.opened = true
	return nil
}

// Search queries the catalog's movie search page and parses the result cards.
// An empty result list is not an error.
func (c *WebClient) Search(ctx context.Context, query string) ([]Candidate, error) {
	if !c.opened {
		return nil, &SessionError{Op: "search", Err: errors.New("client not open")}
	}
	searchURL := c.cfg.BaseURL + "/movies/search?q=" + url.QueryEscape(query)
	doc, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, &SessionError{Op: "search", Err: err}
	}

	var candidates []Candidate
	seen := make(map[string]struct{})
	doc.Find("a[href*='/movie/']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !strings.Contains(href, "/info/") {
			// Category and navigation links share the /movie/ prefix.
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		display := strings.TrimSpace(sel.Find(".card-title").First().Text())
		if display == "" {
			display = firstLine(sel.Text())
		}
		if display == "" {
			return
		}
		yearText := strings.TrimSpace(sel.Find(".card-year").First().Text())
		if yearText == "" {
			yearText, _ = sel.Find("img").First().Attr("alt")
		}
		candidates = append(candidates, Candidate{
			DisplayTitle: display,
			DetailRef:    href,
			RawYearText:  strings.TrimSpace(yearText),
		})
	})
	return candidates, nil
}

// FetchLocator opens the candidate's detail view, follows its play link, and
// polls the player page until a non-blob media source shows up or the window
// elapses. A lapsed window returns (nil, nil).
func (c *WebClient) FetchLocator(ctx context.Context, cand Candidate) (*Locator, error) {
	if !c.opened {
		return nil, &SessionError{Op: "fetch locator", Err: errors.New("client not open")}
	}
	detailURL, err := c.resolveRef(cand.DetailRef)
	if err != nil {
		return nil, fmt.Errorf("resolve detail ref: %w", err)
	}
	doc, err := c.fetchDocument(ctx, detailURL)
	if err != nil {
		return nil, &SessionError{Op: "fetch detail", Err: err}
	}

	playURL := detailURL
	if href, ok := doc.Find("a[href*='/play/']").First().Attr("href"); ok {
		playURL, err = c.resolveRef(href)
		if err != nil {
			return nil, fmt.Errorf("resolve play ref: %w", err)
		}
	}

	for attempt := 0; attempt < c.cfg.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.cfg.PollInterval):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		doc, err = c.fetchDocument(ctx, playURL)
		if err != nil {
			return nil, &SessionError{Op: "fetch player", Err: err}
		}
		if src := extractMediaSource(doc); src != "" {
			if locator, ok := NewLocator(src); ok {
				return &locator, nil
			}
		}
	}
	return nil, nil
}

// Close drops the session. Idempotent.
func (c *WebClient) Close() error {
	c.httpClient = nil
	c.opened = false
	return nil
}

func (c *WebClient) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned %d for %s", resp.StatusCode, pageURL)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (c *WebClient) postForm(ctx context.Context, pageURL string, form url.Values) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pageURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned %d for %s", resp.StatusCode, pageURL)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (c *WebClient) resolveRef(ref string) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL + "/")
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(parsed).String(), nil
}

// extractMediaSource pulls the first usable media URI from a player page.
// Blob URIs never leave the browser context and are useless as locators.
func extractMediaSource(doc *goquery.Document) string {
	sources := []string{}
	if src, ok := doc.Find("video").First().Attr("src"); ok {
		sources = append(sources, src)
	}
	doc.Find("video source").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			sources = append(sources, src)
		}
	})
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if strings.HasPrefix(src, "http") && !strings.Contains(src, "blob") {
			return src
		}
	}
	return ""
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
