package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("search.max_results = %d, want 5", cfg.Search.MaxResults)
	}
	if cfg.Retrieval.ChunkSize != 1000 || cfg.Retrieval.ChunkOverlap != 100 || cfg.Retrieval.TopK != 5 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("llm.temperature = %v, want 0.7", cfg.LLM.Temperature)
	}
	if cfg.Session.Store != SessionInMemory {
		t.Errorf("session.store = %q", cfg.Session.Store)
	}
	if cfg.Telemetry.Enabled || cfg.Telemetry.ServiceName != "newsrag" {
		t.Errorf("unexpected telemetry defaults: %+v", cfg.Telemetry)
	}
	if cfg.Fetch.Timeout != 15*time.Second {
		t.Errorf("fetch.timeout = %v", cfg.Fetch.Timeout)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"search": {"max_results": 3},
		"embedding": {"provider": "local", "dimensions": 64},
		"session": {"store": "redis", "ttl": "2h"},
		"storage": {"redis": {"host": "cache", "port": "6380"}}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NEWSRAG_RETRIEVAL_TOP_K", "3")
	t.Setenv("NEWSRAG_SEARCH_API_KEY", "serp-key")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Search.MaxResults != 3 {
		t.Errorf("search.max_results = %d, want 3", cfg.Search.MaxResults)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("retrieval.top_k = %d, want 3 from env", cfg.Retrieval.TopK)
	}
	if cfg.Search.APIKey != "serp-key" {
		t.Errorf("search.api_key = %q", cfg.Search.APIKey)
	}
	if cfg.Embedding.Provider != EmbeddingLocal || cfg.Embedding.Dimensions != 64 {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("session.ttl = %v", cfg.Session.TTL)
	}
	if got := cfg.Storage.Redis.Addr(); got != "cache:6380" {
		t.Errorf("redis addr = %q", got)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Search:    SearchConfig{MaxResults: 5},
			Fetch:     FetchConfig{Renderer: RendererHTTP, Concurrency: 5},
			Retrieval: RetrievalConfig{ChunkSize: 1000, ChunkOverlap: 100, TopK: 5},
			Embedding: EmbeddingConfig{Provider: EmbeddingOpenAI, Model: "m"},
			LLM:       LLMConfig{Model: "m", Temperature: 0.7},
			Session:   SessionConfig{Store: SessionInMemory},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"overlap too large", func(c *Config) { c.Retrieval.ChunkOverlap = 1000 }, "chunk_overlap"},
		{"zero top k", func(c *Config) { c.Retrieval.TopK = 0 }, "top_k"},
		{"too many results", func(c *Config) { c.Search.MaxResults = 50 }, "max_results"},
		{"bad renderer", func(c *Config) { c.Fetch.Renderer = "curl" }, "renderer"},
		{"zero temperature", func(c *Config) { c.LLM.Temperature = 0 }, "temperature"},
		{"bad embedding", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"redis without host", func(c *Config) { c.Session.Store = SessionRedis }, "storage.redis.host"},
		{"telemetry ratio", func(c *Config) { c.Telemetry = TelemetryConfig{Enabled: true, ServiceName: "x", SampleRatio: 2} }, "sample_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
