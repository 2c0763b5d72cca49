package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/newsrag/internal/helpers"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch"
	"github.com/mohammad-safakhou/newsrag/tools/web_search"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxResults = 5

type Options struct {
	MaxResults  int
	Concurrency int
}

// Fetcher searches for news and downloads each hit's text.
type Fetcher struct {
	search     web_search.Searcher
	pages      web_fetch.WebFetcher
	maxResults int
	limit      int
	log        zerolog.Logger
}

func New(search web_search.Searcher, pages web_fetch.WebFetcher, log zerolog.Logger, opts Options) *Fetcher {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = opts.MaxResults
	}
	return &Fetcher{
		search:     search,
		pages:      pages,
		maxResults: opts.MaxResults,
		limit:      opts.Concurrency,
		log:        log.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch returns at most MaxResults documents in search rank order. A page
// that cannot be fetched falls back to its search snippet and is reported as
// a FetchWarning; hits with no URL or no text at all are dropped. The error
// is non-nil only when the search itself fails.
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]models.SearchResult, []*models.FetchWarning, error) {
	t0 := time.Now()
	hits, err := f.search.Search(ctx, query, f.maxResults)
	if err != nil {
		return nil, nil, err
	}
	if len(hits) > f.maxResults {
		hits = hits[:f.maxResults]
	}
	f.log.Debug().Int("hits", len(hits)).Dur("elapsed", time.Since(t0)).Msg("search complete")

	var (
		slots = make([]models.SearchResult, len(hits))
		warns = make([]*models.FetchWarning, len(hits))
		g     errgroup.Group
	)
	g.SetLimit(f.limit)
	for i, hit := range hits {
		url := strings.TrimSpace(hit.URL)
		if url == "" {
			continue
		}
		g.Go(func() error {
			text, err := f.fetchOne(ctx, url)
			if err != nil {
				warns[i] = &models.FetchWarning{URL: url, Err: err}
				f.log.Warn().Err(err).Str("url", url).Int("rank", i+1).Msg("page fetch failed, using search snippet")
				text = helpers.PlainText(hit.Snippet)
			}
			slots[i] = models.SearchResult{URL: url, Content: text}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.SearchResult, 0, len(slots))
	var warnings []*models.FetchWarning
	for i, s := range slots {
		if warns[i] != nil {
			warnings = append(warnings, warns[i])
		}
		if s.URL == "" || s.Content == "" {
			continue
		}
		out = append(out, s)
	}
	f.log.Info().Int("documents", len(out)).Int("fallbacks", len(warnings)).Dur("elapsed", time.Since(t0)).Msg("fetch complete")
	return out, warnings, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) (string, error) {
	page, err := f.pages.Exec(ctx, url)
	if err != nil {
		return "", err
	}
	text := helpers.CollapseWhitespace(page.Text)
	if text == "" {
		return "", fmt.Errorf("page has no text")
	}
	return text, nil
}
