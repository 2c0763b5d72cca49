package embedding

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/newsrag/provider"
)

// Embedder maps texts to fixed-dimension vectors. Query and chunk vectors
// must come from the same Embedder for their similarity to mean anything.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// DefaultBatchSize bounds the inputs sent in one provider call.
const DefaultBatchSize = 96

// Embedding delegates to an LLM provider's embedding endpoint.
type Embedding struct {
	provider  provider.Provider
	batchSize int
}

func NewEmbedding(provider provider.Provider) *Embedding {
	return &Embedding{
		provider:  provider,
		batchSize: DefaultBatchSize,
	}
}

func (e *Embedding) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.provider.CreateEmbedding(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedOne is a convenience wrapper for a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}
