package serpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/newsrag/internal/httpclient"
	"github.com/mohammad-safakhou/newsrag/models"
)

const (
	ProviderName    = "serpapi"
	DefaultEndpoint = "https://serpapi.com/search"
	DefaultEngine   = "google_news"
)

var ErrMissingAPIKey = errors.New("SERPAPI_KEY is not configured")

// Client queries SerpAPI's news engine.
type Client struct {
	APIKey   string
	Endpoint string
	Engine   string
	HTTP     *httpclient.Client
}

type newsResponse struct {
	Error       string      `json:"error"`
	NewsResults []newsEntry `json:"news_results"`
}

type newsEntry struct {
	Title   string      `json:"title"`
	Link    string      `json:"link"`
	Snippet string      `json:"snippet"`
	Stories []newsEntry `json:"stories"`
}

func (c *Client) Search(ctx context.Context, query string, n int) ([]models.SearchHit, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, c.fail(ErrMissingAPIKey)
	}
	if n <= 0 {
		n = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.APIKey)
	params.Set("engine", firstNonEmpty(c.Engine, DefaultEngine))
	params.Set("num", strconv.Itoa(n))
	endpoint := firstNonEmpty(c.Endpoint, DefaultEndpoint) + "?" + params.Encode()

	hc := c.HTTP
	if hc == nil {
		hc = httpclient.New(0, 0, 0)
	}
	var raw newsResponse
	if err := hc.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, &raw); err != nil {
		return nil, c.fail(err)
	}
	if raw.Error != "" {
		return nil, c.fail(errors.New(raw.Error))
	}
	if raw.NewsResults == nil {
		return nil, c.fail(errors.New("response has no news_results"))
	}

	out := make([]models.SearchHit, 0, n)
	for _, e := range raw.NewsResults {
		if len(out) >= n {
			break
		}
		// Story clusters carry their articles under stories[].
		if e.Link == "" && len(e.Stories) > 0 {
			s := e.Stories[0]
			e = newsEntry{Title: firstNonEmpty(s.Title, e.Title), Link: s.Link, Snippet: firstNonEmpty(s.Snippet, e.Snippet)}
		}
		out = append(out, models.SearchHit{Title: e.Title, URL: strings.TrimSpace(e.Link), Snippet: e.Snippet})
	}
	return out, nil
}

func (c *Client) fail(err error) error {
	return &models.SearchProviderError{Provider: ProviderName, Err: redact(err, c.APIKey)}
}

// redact keeps the API key out of errors that echo the request URL.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "***"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
