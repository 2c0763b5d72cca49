package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("newsrag/internal/pipeline")

type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]models.SearchResult, []*models.FetchWarning, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, results []models.SearchResult) ([]models.SearchResult, []*models.RetrievalDegradation, error)
}

type Synthesizer interface {
	Generate(ctx context.Context, query string, docs []models.SearchResult, sessionID string) (*models.StructuredAnswer, error)
}

// Observer is told about every state change of every run.
type Observer func(from, to State)

type Options struct {
	Observer Observer
	Metrics  *Metrics
}

// Pipeline runs Fetcher, Retriever and Synthesizer in order for one request.
type Pipeline struct {
	fetcher   Fetcher
	retriever Retriever
	synth     Synthesizer
	log       zerolog.Logger
	observer  Observer
	metrics   *Metrics
}

func New(f Fetcher, r Retriever, s Synthesizer, log zerolog.Logger, opts Options) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		retriever: r,
		synth:     s,
		log:       log.With().Str("component", "pipeline").Logger(),
		observer:  opts.Observer,
		metrics:   opts.Metrics,
	}
}

// run tracks one request's state.
type run struct {
	p     *Pipeline
	state State
	log   zerolog.Logger
}

func (r *run) advance(to State) {
	from := r.state
	r.state = to
	r.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("state")
	if r.p.observer != nil {
		r.p.observer(from, to)
	}
}

func (r *run) fail(err error) error {
	stage := r.state
	r.advance(Failed)
	perr := &PipelineError{Stage: stage, Err: err}
	r.p.metrics.outcome(perr.Kind())
	r.log.Error().Err(err).Str("stage", stage.String()).Str("error_kind", perr.Kind()).Msg("pipeline failed")
	return perr
}

// Run answers req. On failure the error is a *PipelineError.
func (p *Pipeline) Run(ctx context.Context, req models.QueryRequest) (*models.StructuredAnswer, error) {
	sessionID := req.Session()
	query := strings.TrimSpace(req.Query)

	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("query.length", len(query)),
	))
	defer span.End()

	r := &run{p: p, state: Idle, log: p.log.With().Str("session_id", sessionID).Logger()}
	answer, err := r.execute(ctx, query, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("answer.sections", len(answer.Sections)))
	return answer, nil
}

func (r *run) execute(ctx context.Context, query, sessionID string) (*models.StructuredAnswer, error) {
	if query == "" {
		return nil, r.fail(&models.ValidationError{Err: models.ErrEmptyQuery})
	}
	start := time.Now()

	r.advance(Fetching)
	var results []models.SearchResult
	err := r.stage(ctx, "pipeline.fetch", func(ctx context.Context) error {
		var (
			warnings []*models.FetchWarning
			err      error
		)
		results, warnings, err = r.p.fetcher.Fetch(ctx, query)
		r.p.metrics.addFallbacks(len(warnings))
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return &models.SearchProviderError{Provider: "search", Err: ErrNoResults}
		}
		return nil
	})
	if err != nil {
		return nil, r.fail(err)
	}

	r.advance(Retrieving)
	var docs []models.SearchResult
	err = r.stage(ctx, "pipeline.retrieve", func(ctx context.Context) error {
		var (
			degraded []*models.RetrievalDegradation
			err      error
		)
		docs, degraded, err = r.p.retriever.Retrieve(ctx, query, results)
		r.p.metrics.addDegradations(len(degraded))
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}

	r.advance(Synthesizing)
	var answer *models.StructuredAnswer
	err = r.stage(ctx, "pipeline.synthesize", func(ctx context.Context) error {
		var err error
		answer, err = r.p.synth.Generate(ctx, query, docs, sessionID)
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}

	r.advance(Done)
	r.p.metrics.outcome("done")
	r.log.Info().
		Int("documents", len(docs)).
		Int("sections", len(answer.Sections)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline done")
	return answer, nil
}

// stage runs fn inside a span named name and records its duration against
// the current state.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	r.p.metrics.observeStage(r.state, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
