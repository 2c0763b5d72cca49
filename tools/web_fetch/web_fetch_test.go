package web_fetch

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/direct"
)

func TestNewWebFetcher(t *testing.T) {
	f, err := NewWebFetcher(config.FetchConfig{Renderer: config.RendererHTTP, Timeout: time.Second})
	if err != nil {
		t.Fatalf("http renderer: %v", err)
	}
	d, ok := f.(direct.Fetch)
	if !ok {
		t.Fatalf("expected direct.Fetch, got %T", f)
	}
	if d.MaxChars != MaxCharsDefault {
		t.Errorf("MaxChars = %d, want default", d.MaxChars)
	}

	f, err = NewWebFetcher(config.FetchConfig{Renderer: config.RendererChromedp, MaxChars: 100})
	if err != nil {
		t.Fatalf("chromedp renderer: %v", err)
	}
	if c, ok := f.(chromedp.Fetch); !ok || c.MaxChars != 100 {
		t.Fatalf("unexpected fetcher %#v", f)
	}

	if _, err := NewWebFetcher(config.FetchConfig{Renderer: "wget"}); err == nil {
		t.Fatal("expected error for unknown renderer")
	}
}
