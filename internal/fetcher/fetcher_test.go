package fetcher

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohammad-safakhou/newsrag/models"
	fetchmodels "github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
	"github.com/rs/zerolog"
)

type stubSearcher struct {
	hits []models.SearchHit
	err  error
	gotN int
}

func (s *stubSearcher) Search(_ context.Context, _ string, n int) ([]models.SearchHit, error) {
	s.gotN = n
	return s.hits, s.err
}

type stubPages struct {
	text     map[string]string
	fail     map[string]bool
	delay    map[string]time.Duration
	inflight int32
	peak     int32
}

func (p *stubPages) Exec(ctx context.Context, url string) (fetchmodels.Page, error) {
	n := atomic.AddInt32(&p.inflight, 1)
	defer atomic.AddInt32(&p.inflight, -1)
	for {
		old := atomic.LoadInt32(&p.peak)
		if n <= old || atomic.CompareAndSwapInt32(&p.peak, old, n) {
			break
		}
	}
	if d := p.delay[url]; d > 0 {
		time.Sleep(d)
	}
	if p.fail[url] {
		return fetchmodels.Page{}, errors.New("connection reset")
	}
	return fetchmodels.Page{URL: url, Text: p.text[url]}, nil
}

func hits(urls ...string) []models.SearchHit {
	out := make([]models.SearchHit, len(urls))
	for i, u := range urls {
		out[i] = models.SearchHit{URL: u, Snippet: "snippet  of <b>" + u + "</b>"}
	}
	return out
}

func TestFetch_PartialFailurePreservesOrder(t *testing.T) {
	search := &stubSearcher{hits: hits("A", "B", "C", "D", "E")}
	pages := &stubPages{
		text: map[string]string{
			"A": "  alpha\n\n text ",
			"C": "gamma\ttext",
			"E": "epsilon text",
		},
		fail: map[string]bool{"B": true, "D": true},
		// Finish in reverse order to make sure output is reordered by rank.
		delay: map[string]time.Duration{"A": 40 * time.Millisecond, "B": 30 * time.Millisecond, "C": 20 * time.Millisecond},
	}
	f := New(search, pages, zerolog.Nop(), Options{MaxResults: 5})

	out, warnings, err := f.Fetch(context.Background(), "q")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if search.gotN != 5 {
		t.Errorf("search asked for %d results, want 5", search.gotN)
	}
	want := []models.SearchResult{
		{URL: "A", Content: "alpha text"},
		{URL: "B", Content: "snippet of B"},
		{URL: "C", Content: "gamma text"},
		{URL: "D", Content: "snippet of D"},
		{URL: "E", Content: "epsilon text"},
	}
	if len(out) != len(want) {
		t.Fatalf("expected %d results, got %d: %+v", len(want), len(out), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, out[i], want[i])
		}
	}
	if len(warnings) != 2 || warnings[0].URL != "B" || warnings[1].URL != "D" {
		t.Fatalf("expected warnings for B and D, got %v", warnings)
	}
}

func TestFetch_DropsEntriesWithoutURLOrText(t *testing.T) {
	search := &stubSearcher{hits: []models.SearchHit{
		{URL: "", Snippet: "orphan"},
		{URL: "X", Snippet: ""},
		{URL: "Y", Snippet: "kept snippet"},
	}}
	pages := &stubPages{fail: map[string]bool{"X": true, "Y": true}}
	out, warnings, err := New(search, pages, zerolog.Nop(), Options{}).Fetch(context.Background(), "q")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 1 || out[0].URL != "Y" || out[0].Content != "kept snippet" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
}

func TestFetch_BoundsResultsAndConcurrency(t *testing.T) {
	urls := []string{"1", "2", "3", "4", "5", "6", "7"}
	search := &stubSearcher{hits: hits(urls...)}
	pages := &stubPages{text: map[string]string{}, delay: map[string]time.Duration{}}
	for _, u := range urls {
		pages.text[u] = "text " + u
		pages.delay[u] = 20 * time.Millisecond
	}
	out, _, err := New(search, pages, zerolog.Nop(), Options{MaxResults: 5, Concurrency: 2}).Fetch(context.Background(), "q")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected output bounded to 5, got %d", len(out))
	}
	if peak := atomic.LoadInt32(&pages.peak); peak > 2 {
		t.Fatalf("concurrency limit exceeded: peak %d", peak)
	}
}

func TestFetch_SearchFailureIsFatal(t *testing.T) {
	spe := &models.SearchProviderError{Provider: "serpapi", Err: errors.New("401")}
	_, _, err := New(&stubSearcher{err: spe}, &stubPages{}, zerolog.Nop(), Options{}).Fetch(context.Background(), "q")
	var got *models.SearchProviderError
	if !errors.As(err, &got) {
		t.Fatalf("expected SearchProviderError, got %v", err)
	}
}

func TestFetch_EmptyPageFallsBack(t *testing.T) {
	search := &stubSearcher{hits: hits("Z")}
	pages := &stubPages{text: map[string]string{"Z": " \n\t "}}
	out, warnings, err := New(search, pages, zerolog.Nop(), Options{}).Fetch(context.Background(), "q")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 1 || !strings.HasPrefix(out[0].Content, "snippet of") {
		t.Fatalf("expected snippet fallback, got %+v", out)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected a warning for the empty page")
	}
}
