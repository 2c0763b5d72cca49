package synth

//go:generate mockgen -source=synth.go -destination=mocks/mock_llm.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/newsrag/internal/helpers"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/provider"
	"github.com/mohammad-safakhou/newsrag/session"
	"github.com/rs/zerolog"
)

// LLM is the completion side of provider.Provider.
type LLM interface {
	Complete(ctx context.Context, messages []provider.Message, format *provider.ResponseSchema) (string, error)
}

type Options struct {
	// Now stamps history turns. Defaults to time.Now.
	Now func() time.Time
}

// Synthesizer turns distilled context into a StructuredAnswer and keeps the
// per-session conversation history.
type Synthesizer struct {
	llm   LLM
	store session.Store
	locks *session.Locker
	log   zerolog.Logger
	now   func() time.Time
}

func New(llm LLM, store session.Store, log zerolog.Logger, opts Options) *Synthesizer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Synthesizer{
		llm:   llm,
		store: store,
		locks: session.NewLocker(),
		log:   log.With().Str("component", "synth").Logger(),
		now:   opts.Now,
	}
}

// Generate answers query from docs within sessionID's conversation. Calls for
// the same session run one at a time; the exchange is recorded only when a
// valid answer was produced.
func (s *Synthesizer) Generate(ctx context.Context, query string, docs []models.SearchResult, sessionID string) (*models.StructuredAnswer, error) {
	if sessionID == "" {
		sessionID = models.DefaultSessionID
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	history, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	messages := buildMessages(history, query, docs)
	s.log.Debug().
		Str("session_id", sessionID).
		Int("history_turns", len(history)).
		Int("documents", len(docs)).
		Msg("requesting answer")

	raw, err := s.llm.Complete(ctx, messages, ResponseFormat())
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer, err := ParseAnswer(raw)
	if err != nil {
		return nil, err
	}
	if err := resolveSources(answer, docs, raw); err != nil {
		return nil, err
	}

	serialized, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}
	at := s.now()
	if err := s.store.Append(ctx, sessionID,
		models.Turn{Role: models.RoleUser, Content: query, At: at},
		models.Turn{Role: models.RoleAssistant, Content: string(serialized), At: at},
	); err != nil {
		return nil, fmt.Errorf("save session history: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID).
		Int("sections", len(answer.Sections)).
		Msg("answer generated")
	return answer, nil
}

// Reset drops sessionID's history.
func (s *Synthesizer) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.store.Evict(ctx, sessionID)
}

// resolveSources rewrites every sourceUrl to the matching context URL and
// rejects any that is not one of them.
func resolveSources(answer *models.StructuredAnswer, docs []models.SearchResult, raw string) error {
	urls := make([]string, 0, len(docs))
	for _, d := range docs {
		urls = append(urls, d.URL)
	}
	set := helpers.NewURLSet(urls)
	for i, sec := range answer.Sections {
		member, ok := set.Lookup(sec.SourceURL)
		if !ok {
			return &models.GenerationParseError{
				Raw: raw,
				Err: fmt.Errorf("section %d cites %q, which is not a supplied source", i, sec.SourceURL),
			}
		}
		answer.Sections[i].SourceURL = member
	}
	return nil
}
