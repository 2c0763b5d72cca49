package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mohammad-safakhou/newsrag/provider"
)

type fakeProvider struct {
	calls [][]string
	err   error
}

func (f *fakeProvider) Complete(context.Context, []provider.Message, *provider.ResponseSchema) (string, error) {
	return "", nil
}

func (f *fakeProvider) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func TestEmbedMany_Batches(t *testing.T) {
	p := &fakeProvider{}
	e := NewEmbedding(p)
	e.batchSize = 2

	vecs, err := e.EmbedMany(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if len(p.calls) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(p.calls))
	}
	for i, v := range vecs {
		if int(v[0]) != i+1 {
			t.Fatalf("vector %d out of order: %v", i, v)
		}
	}
}

func TestEmbedMany_ProviderError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEmbedding(&fakeProvider{err: boom})
	if _, err := e.EmbedMany(context.Background(), []string{"a"}); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if vecs, err := e.EmbedMany(context.Background(), nil); err != nil || vecs != nil {
		t.Fatalf("empty input should be a no-op, got %v %v", vecs, err)
	}
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashing(t *testing.T) {
	h, err := NewHashing(128)
	if err != nil {
		t.Fatalf("NewHashing: %v", err)
	}
	vecs, err := h.EmbedMany(context.Background(), []string{
		"Central bank raises interest rates",
		"the central BANK raised interest rates again",
		"Football club signs new striker",
		"",
	})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if len(vecs[0]) != 128 {
		t.Fatalf("expected 128 dims, got %d", len(vecs[0]))
	}
	if n := cosine(vecs[0], vecs[0]); math.Abs(n-1) > 1e-5 {
		t.Fatalf("expected unit vector, self-similarity %f", n)
	}
	related, unrelated := cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2])
	if related <= unrelated {
		t.Fatalf("expected related texts to score higher: related=%f unrelated=%f", related, unrelated)
	}
	for _, v := range vecs[3] {
		if v != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}

	again, _ := h.EmbedMany(context.Background(), []string{"Central bank raises interest rates"})
	for i := range again[0] {
		if again[0][i] != vecs[0][i] {
			t.Fatal("hashing embedder must be deterministic")
		}
	}
	if _, err := NewHashing(0); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
}
