package direct

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
)

var ErrNotHTML = errors.New("response is not HTML")

// Fetch downloads a page over plain HTTP and extracts its readable text.
type Fetch struct {
	Client    *http.Client
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

func (f Fetch) Exec(ctx context.Context, url string) (models.Page, error) {
	if strings.TrimSpace(url) == "" {
		return models.Page{}, errors.New("invalid url")
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Page{}, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Page{Status: resp.StatusCode}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Readable text is a fraction of the markup; cap the download accordingly.
	limit := int64(8 << 20)
	if f.MaxChars > 0 {
		limit = int64(f.MaxChars) * 64
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return models.Page{Status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}
	if !isHTML(resp.Header.Get("Content-Type"), body) {
		return models.Page{Status: resp.StatusCode}, ErrNotHTML
	}

	page, err := extract.Article(bytes.NewReader(body), url, f.MaxChars)
	if err != nil {
		return models.Page{Status: resp.StatusCode}, err
	}
	page.Status = resp.StatusCode
	page.RenderMS = int(time.Since(t0) / time.Millisecond)
	return page, nil
}

func isHTML(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}
