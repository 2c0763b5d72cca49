package retriever

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators orders split points from coarsest to finest: paragraph,
// line, sentence, word, character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into windows of at most Size runes, preferring the
// coarsest separator that fits and carrying up to Overlap runes of context
// from one window into the next. Every chunk is a substring of the input.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewSplitter(size, overlap int) Splitter {
	return Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}
}

func (s Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

func (s Splitter) split(text string, seps []string) []string {
	sep, rest := seps[len(seps)-1], []string(nil)
	for i, candidate := range seps {
		if candidate == "" {
			sep = ""
			break
		}
		if strings.Contains(text, candidate) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}

	var out, fitting []string
	for _, piece := range splitKeep(text, sep) {
		if runeLen(piece) < s.Size {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, s.merge(fitting)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, s.merge(fitting)...)
	}
	return out
}

// merge packs consecutive pieces into windows, dropping pieces from the
// front of the window until at most Overlap runes remain before continuing.
func (s Splitter) merge(pieces []string) []string {
	var (
		out    []string
		window []string
		total  int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.Size && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				out = append(out, chunk)
			}
			for len(window) > 0 && (total > s.Overlap || total+n > s.Size) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += n
	}
	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

// splitKeep splits on sep, leaving each separator at the end of the piece
// before it so that concatenating the pieces restores text exactly.
func splitKeep(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for i, w := 0, 0; i < len(text); i += w {
			_, w = utf8.DecodeRuneInString(text[i:])
			out = append(out, text[i:i+w])
		}
		return out
	}
	var out []string
	prev := 0
	for {
		j := strings.Index(text[prev:], sep)
		if j < 0 {
			break
		}
		end := prev + j + len(sep)
		out = append(out, text[prev:end])
		prev = end
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
