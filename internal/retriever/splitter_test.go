package retriever

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func sentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Sentence number %03d talks about markets and policy in some detail. ", i)
	}
	return strings.TrimSpace(b.String())
}

func TestSplit_ShortAndEmpty(t *testing.T) {
	s := NewSplitter(1000, 100)
	if got := s.Split("   "); got != nil {
		t.Fatalf("expected no chunks for blank text, got %v", got)
	}
	got := s.Split("A short article.")
	if len(got) != 1 || got[0] != "A short article." {
		t.Fatalf("unexpected chunks: %q", got)
	}
}

func TestSplit_BoundsAndSubstrings(t *testing.T) {
	text := sentences(80)
	s := NewSplitter(1000, 100)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 1000 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d is not a substring of the source", i)
		}
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %d does not end on a sentence boundary: %q", i, c[len(c)-20:])
		}
	}
}

func TestSplit_ChunkCountMatchesWindowFormula(t *testing.T) {
	text := sentences(120)
	size, overlap := 1000, 100
	chunks := NewSplitter(size, overlap).Split(text)

	n := float64(utf8.RuneCountInString(text))
	want := int(math.Ceil((n - float64(overlap)) / float64(size-overlap)))
	if diff := len(chunks) - want; diff < -1 || diff > 2 {
		t.Fatalf("got %d chunks, formula gives %d", len(chunks), want)
	}
}

func TestSplit_Overlap(t *testing.T) {
	text := sentences(40)
	chunks := NewSplitter(500, 100).Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-60:]
		if !strings.Contains(chunks[i], prevTail) {
			t.Errorf("chunk %d does not carry the tail of chunk %d", i, i-1)
		}
	}
}

func TestSplit_PrefersParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 60) // 300 runes
	text := para + "\n\n" + para + "\n\n" + para
	chunks := NewSplitter(400, 0).Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected one chunk per paragraph, got %d", len(chunks))
	}
	for _, c := range chunks {
		if strings.Contains(c, "\n") {
			t.Fatalf("paragraph boundary inside chunk: %q", c)
		}
	}
}

func TestSplit_FallsBackToCharacters(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := NewSplitter(100, 10).Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected character-level windows, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 100 {
			t.Fatalf("chunk too long: %d", len(c))
		}
	}
}

func TestSplitKeepRestoresText(t *testing.T) {
	for _, sep := range []string{"\n\n", ". ", " ", ""} {
		text := "One. Two three.\n\nFour  five. ñ"
		if got := strings.Join(splitKeep(text, sep), ""); got != text {
			t.Errorf("sep %q: joined pieces %q != %q", sep, got, text)
		}
	}
}
