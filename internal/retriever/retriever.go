package retriever

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/tools/embedding"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
	DefaultTopK         = 5
)

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	Concurrency  int
}

// Retriever replaces each document's text with the chunks most similar to
// the query. Documents are indexed independently of one another.
type Retriever struct {
	embedder embedding.Embedder
	splitter Splitter
	topK     int
	limit    int
	log      zerolog.Logger
}

func New(embedder embedding.Embedder, log zerolog.Logger, opts Options) *Retriever {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = min(DefaultChunkOverlap, opts.ChunkSize/2)
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &Retriever{
		embedder: embedder,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		topK:     opts.TopK,
		limit:    opts.Concurrency,
		log:      log.With().Str("component", "retriever").Logger(),
	}
}

// Retrieve returns a copy of results with each Content distilled to its top-k
// chunks joined by "\n", most similar first. A document that cannot be
// embedded or indexed gets empty Content and a RetrievalDegradation; the
// returned error is non-nil only when ctx is done.
func (r *Retriever) Retrieve(ctx context.Context, query string, results []models.SearchResult) ([]models.SearchResult, []*models.RetrievalDegradation, error) {
	out := make([]models.SearchResult, len(results))
	copy(out, results)

	pending := 0
	for _, res := range out {
		if strings.TrimSpace(res.Content) != "" {
			pending++
		}
	}
	if pending == 0 {
		return out, nil, ctx.Err()
	}

	var (
		mu       sync.Mutex
		degraded []*models.RetrievalDegradation
	)
	degrade := func(i int, err error) {
		d := &models.RetrievalDegradation{URL: out[i].URL, Err: err}
		r.log.Warn().Err(err).Str("url", out[i].URL).Msg("retrieval degraded, dropping document content")
		out[i].Content = ""
		mu.Lock()
		degraded = append(degraded, d)
		mu.Unlock()
	}

	qvec, err := embedding.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		for i := range out {
			if strings.TrimSpace(out[i].Content) != "" {
				degrade(i, fmt.Errorf("embed query: %w", err))
			}
		}
		return out, degraded, ctx.Err()
	}

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i := range out {
		if strings.TrimSpace(out[i].Content) == "" {
			continue
		}
		g.Go(func() error {
			t0 := time.Now()
			excerpt, chunks, err := r.distill(ctx, qvec, out[i].Content)
			if err != nil {
				degrade(i, err)
				return nil
			}
			out[i].Content = excerpt
			r.log.Debug().Str("url", out[i].URL).Int("chunks", chunks).Dur("elapsed", time.Since(t0)).Msg("document distilled")
			return nil
		})
	}
	_ = g.Wait()

	return out, degraded, ctx.Err()
}

func (r *Retriever) distill(ctx context.Context, qvec []float32, text string) (string, int, error) {
	chunks := r.splitter.Split(text)
	if len(chunks) == 0 {
		return "", 0, fmt.Errorf("no chunks produced")
	}
	vecs, err := r.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		return "", len(chunks), fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return "", len(chunks), fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	ix, err := NewIndex(vecs)
	if err != nil {
		return "", len(chunks), fmt.Errorf("build index: %w", err)
	}
	hits, err := ix.TopK(qvec, r.topK)
	if err != nil {
		return "", len(chunks), fmt.Errorf("search index: %w", err)
	}
	selected := make([]string, len(hits))
	for i, h := range hits {
		selected[i] = chunks[h.Chunk]
	}
	return strings.Join(selected, "\n"), len(chunks), nil
}
