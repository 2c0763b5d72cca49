package web_fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/direct"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
)

const MaxCharsDefault = 20000

// WebFetcher downloads one URL and returns its readable text. Any failure,
// including an empty extraction, is returned as an error.
type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Page, error)
}

func NewWebFetcher(cfg config.FetchConfig) (WebFetcher, error) {
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch cfg.Renderer {
	case config.RendererHTTP, "":
		return direct.Fetch{
			Client:    &http.Client{},
			Timeout:   cfg.Timeout,
			MaxChars:  maxChars,
			UserAgent: cfg.UserAgent,
		}, nil
	case config.RendererChromedp:
		return chromedp.Fetch{Timeout: cfg.Timeout, MaxChars: maxChars, UserAgent: cfg.UserAgent}, nil
	default:
		return nil, fmt.Errorf("unsupported fetch renderer %q", cfg.Renderer)
	}
}
