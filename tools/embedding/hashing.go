package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"math"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis"
	"github.com/blevesearch/bleve/analysis/analyzer/standard"
)

// Hashing is an offline embedder: text is run through bleve's standard
// analyzer and the resulting terms are feature-hashed into a signed,
// L2-normalised vector. It needs no network and is fully deterministic.
type Hashing struct {
	dims     int
	analyzer *analysis.Analyzer
}

func NewHashing(dims int) (*Hashing, error) {
	if dims <= 0 {
		return nil, errors.New("dimensions must be > 0")
	}
	analyzer := bleve.NewIndexMapping().AnalyzerNamed(standard.Name)
	if analyzer == nil {
		return nil, errors.New("bleve standard analyzer unavailable")
	}
	return &Hashing{dims: dims, analyzer: analyzer}, nil
}

func (h *Hashing) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h *Hashing) embed(text string) []float32 {
	vec := make([]float32, h.dims)
	for _, tok := range h.analyzer.Analyze([]byte(text)) {
		f := fnv.New32a()
		_, _ = f.Write(tok.Term)
		sum := f.Sum32()
		sign := float32(1)
		if sum&(1<<31) != 0 {
			sign = -1
		}
		vec[int(sum%uint32(h.dims))] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
