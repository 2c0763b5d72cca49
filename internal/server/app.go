package server

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/fetcher"
	"github.com/mohammad-safakhou/newsrag/internal/pipeline"
	"github.com/mohammad-safakhou/newsrag/internal/retriever"
	"github.com/mohammad-safakhou/newsrag/internal/synth"
	openai_provider "github.com/mohammad-safakhou/newsrag/provider/openai"
	"github.com/mohammad-safakhou/newsrag/session"
	"github.com/mohammad-safakhou/newsrag/session/inmemory"
	redis_session "github.com/mohammad-safakhou/newsrag/session/redis"
	"github.com/mohammad-safakhou/newsrag/tools/embedding"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch"
	"github.com/mohammad-safakhou/newsrag/tools/web_search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// App is the wired pipeline plus the resources it owns.
type App struct {
	Pipeline *pipeline.Pipeline
	Synth    *synth.Synthesizer

	closers []func() error
}

// Close releases external connections.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build wires every component from cfg. Metrics are registered with reg when
// it is non-nil. Background work stops when ctx is cancelled.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*App, error) {
	app := &App{}

	pages, err := web_fetch.NewWebFetcher(cfg.Fetch)
	if err != nil {
		return nil, fmt.Errorf("page fetcher: %w", err)
	}
	f := fetcher.New(web_search.NewSearcher(cfg.Search, log), pages, log, fetcher.Options{
		MaxResults:  cfg.Search.MaxResults,
		Concurrency: cfg.Fetch.Concurrency,
	})

	embeddingModel := ""
	if cfg.Embedding.Provider == config.EmbeddingOpenAI {
		embeddingModel = cfg.Embedding.Model
	}
	llm, err := openai_provider.New(cfg.LLM, embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case config.EmbeddingLocal:
		h, err := embedding.NewHashing(cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("local embedder: %w", err)
		}
		embedder = h
	default:
		embedder = embedding.NewEmbedding(llm)
	}
	r := retriever.New(embedder, log, retriever.Options{
		ChunkSize:    cfg.Retrieval.ChunkSize,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
		TopK:         cfg.Retrieval.TopK,
		Concurrency:  cfg.Retrieval.Concurrency,
	})

	store, err := app.sessionStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.Synth = synth.New(llm, store, log, synth.Options{})

	var metrics *pipeline.Metrics
	if reg != nil {
		metrics = pipeline.NewMetrics(reg)
	}
	app.Pipeline = pipeline.New(f, r, app.Synth, log, pipeline.Options{Metrics: metrics})
	return app, nil
}

func (a *App) sessionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (session.Store, error) {
	if cfg.Session.Store == config.SessionRedis {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Storage.Redis.Timeout)
		defer cancel()
		client, err := redis_session.Conn(pingCtx, cfg.Storage.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		log.Info().Str("addr", cfg.Storage.Redis.Addr()).Msg("using redis session store")
		return redis_session.NewRedisSessionStore(client, cfg.Session.TTL), nil
	}

	store := inmemory.NewInMemorySessionStore(cfg.Session.TTL, cfg.Session.MaxSessions)
	if cfg.Session.TTL > 0 {
		go sweep(ctx, store, cfg.Session.TTL, log)
	}
	return store, nil
}

func sweep(ctx context.Context, store *inmemory.Store, ttl time.Duration, log zerolog.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Debug().Int("sessions", n).Msg("expired sessions removed")
			}
		}
	}
}
