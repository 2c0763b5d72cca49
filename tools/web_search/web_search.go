package web_search

import (
	"context"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/httpclient"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/tools/web_search/serpapi"
	"github.com/rs/zerolog"
)

// Searcher returns up to n ranked news hits for query. Any failure is a
// provider-wide *models.SearchProviderError.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]models.SearchHit, error)
}

// NewSearcher builds the configured news search provider.
func NewSearcher(cfg config.SearchConfig, log zerolog.Logger) Searcher {
	hc := httpclient.New(cfg.Timeout, cfg.Retries, 0, httpclient.WithLogger(log))
	return &serpapi.Client{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		Engine:   cfg.Engine,
		HTTP:     hc,
	}
}
