package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/tools/embedding"
	"github.com/rs/zerolog"
)

// keywordEmbedder scores texts on a fixed vocabulary and can be told to fail
// for texts containing a marker.
type keywordEmbedder struct {
	vocab  []string
	failOn string
	mu     sync.Mutex
	calls  int
}

func (k *keywordEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	k.mu.Lock()
	k.calls++
	k.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if k.failOn != "" && strings.Contains(t, k.failOn) {
			return nil, errors.New("embedding backend unavailable")
		}
		v := make([]float32, len(k.vocab)+1)
		lower := strings.ToLower(t)
		for j, w := range k.vocab {
			v[j] = float32(strings.Count(lower, w))
		}
		v[len(k.vocab)] = 0.01
		out[i] = v
	}
	return out, nil
}

func filler(topic string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Paragraph %d about %s with more words to pad the window out properly. ", i, topic)
	}
	return b.String()
}

func newTestRetriever(e embedding.Embedder, topK int) *Retriever {
	return New(e, zerolog.Nop(), Options{ChunkSize: 300, ChunkOverlap: 30, TopK: topK, Concurrency: 2})
}

func TestRetrieve_SelectsRelevantChunksPerDocument(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"inflation", "football"}}
	r := newTestRetriever(emb, 1)

	doc := filler("football", 10) + "Inflation inflation inflation cooled in March. " + filler("football", 10)
	in := []models.SearchResult{
		{URL: "https://a.example", Content: doc},
		{URL: "https://b.example", Content: filler("football", 3)},
	}
	out, degraded, err := r.Retrieve(context.Background(), "inflation", in)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(degraded) != 0 {
		t.Fatalf("unexpected degradations: %v", degraded)
	}
	if len(out) != 2 || out[0].URL != "https://a.example" || out[1].URL != "https://b.example" {
		t.Fatalf("order or length changed: %+v", out)
	}
	if !strings.Contains(out[0].Content, "Inflation inflation inflation cooled") {
		t.Fatalf("expected the inflation chunk, got %q", out[0].Content)
	}
	if !strings.Contains(doc, out[0].Content) {
		t.Fatal("excerpt contains text absent from the source")
	}
	if in[0].Content != doc {
		t.Fatal("input slice must not be mutated")
	}
}

func TestRetrieve_JoinsTopKInRankOrder(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"rates", "filler", "nothing"}}
	r := New(emb, zerolog.Nop(), Options{ChunkSize: 60, ChunkOverlap: 0, TopK: 2})

	doc := "Nothing relevant here at all, just filler text. " +
		"Rates rose. " +
		"Rates rates rates and more rates were the story. "
	out, _, err := r.Retrieve(context.Background(), "rates", []models.SearchResult{{URL: "u", Content: doc}})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	lines := strings.Split(out[0].Content, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 joined chunks, got %d: %q", len(lines), out[0].Content)
	}
	if !strings.HasPrefix(lines[0], "Rates rates rates") {
		t.Fatalf("most similar chunk should come first, got %q", lines[0])
	}
}

func TestRetrieve_DegradesFailingDocumentOnly(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"inflation"}, failOn: "POISON"}
	r := newTestRetriever(emb, 3)

	in := []models.SearchResult{
		{URL: "https://ok.example", Content: filler("inflation", 4)},
		{URL: "https://bad.example", Content: "POISON " + filler("inflation", 4)},
		{URL: "https://empty.example", Content: ""},
	}
	out, degraded, err := r.Retrieve(context.Background(), "inflation", in)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if out[0].Content == "" {
		t.Error("healthy document should keep an excerpt")
	}
	if out[1].Content != "" {
		t.Error("failing document should be emptied")
	}
	if out[2].Content != "" {
		t.Error("empty document should pass through empty")
	}
	if len(degraded) != 1 || degraded[0].URL != "https://bad.example" {
		t.Fatalf("expected one degradation for bad.example, got %v", degraded)
	}
}

func TestRetrieve_QueryEmbeddingFailureDegradesAll(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"x"}, failOn: "explode"}
	r := newTestRetriever(emb, 3)
	in := []models.SearchResult{
		{URL: "a", Content: "some text"},
		{URL: "b", Content: "other text"},
		{URL: "c"},
	}
	out, degraded, err := r.Retrieve(context.Background(), "explode", in)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(degraded) != 2 {
		t.Fatalf("expected 2 degradations, got %d", len(degraded))
	}
	for _, res := range out {
		if res.Content != "" {
			t.Fatalf("expected all content emptied, got %+v", res)
		}
	}
}

func TestRetrieve_Idempotent(t *testing.T) {
	h, err := embedding.NewHashing(64)
	if err != nil {
		t.Fatalf("NewHashing: %v", err)
	}
	r := newTestRetriever(h, 2)
	in := []models.SearchResult{{URL: "u", Content: filler("elections", 6) + filler("weather", 6)}}

	first, _, _ := r.Retrieve(context.Background(), "weather forecast", in)
	second, _, _ := r.Retrieve(context.Background(), "weather forecast", in)
	if first[0].Content != second[0].Content {
		t.Fatalf("selection differs between identical calls:\n%q\n%q", first[0].Content, second[0].Content)
	}
}

func TestRetrieve_NoContentSkipsEmbedding(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"x"}}
	r := newTestRetriever(emb, 3)
	out, degraded, err := r.Retrieve(context.Background(), "q", []models.SearchResult{{URL: "a"}, {URL: "b", Content: "  "}})
	if err != nil || len(degraded) != 0 || len(out) != 2 {
		t.Fatalf("unexpected result: %v %v %v", out, degraded, err)
	}
	if emb.calls != 0 {
		t.Fatalf("embedder should not be called, got %d calls", emb.calls)
	}
}
