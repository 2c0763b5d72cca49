package chromedp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
)

// Fetch renders pages in headless Chrome before extraction, for sites that
// build their article body client-side.
type Fetch struct {
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

	html, err := f.render(ctx, url)
	if err != nil {
		return models.Page{URL: url}, err
	}
	page, err := extract.Article(strings.NewReader(html), url, f.MaxChars)
	if err != nil {
		return models.Page{URL: url}, err
	}
	page.Status = 200
	page.RenderMS = int(time.Since(t0) / time.Millisecond)
	return page, nil
}

func (f Fetch) render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if f.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.UserAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
