package extract

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
)

var ErrNoText = errors.New("no readable text extracted")

// Article runs readability over an HTML document and returns its text,
// truncated to maxChars runes when maxChars > 0.
func Article(html io.Reader, pageURL string, maxChars int) (models.Page, error) {
	article, err := readability.FromReader(html, parseURL(pageURL))
	if err != nil {
		return models.Page{}, fmt.Errorf("readability: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return models.Page{}, ErrNoText
	}
	return models.Page{
		URL:    pageURL,
		Title:  strings.TrimSpace(article.Title),
		Byline: strings.TrimSpace(article.Byline),
		Text:   Truncate(text, maxChars),
	}, nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
