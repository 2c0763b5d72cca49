package retriever

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Index is a brute-force cosine index over the chunks of one document.
type Index struct {
	vectors [][]float32
	dims    int
}

type Hit struct {
	Chunk int
	Score float64
}

func NewIndex(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to index")
	}
	dims := len(vectors[0])
	if dims == 0 {
		return nil, errors.New("zero-dimension vector")
	}
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("vector %d has %d dims, want %d", i, len(v), dims)
		}
	}
	return &Index{vectors: vectors, dims: dims}, nil
}

// TopK returns up to k chunks by descending cosine similarity to query.
// Equal scores keep chunk order.
func (ix *Index) TopK(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("query has %d dims, index has %d", len(query), ix.dims)
	}
	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Chunk: i, Score: cosine(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
