package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the newsrag service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Session   SessionConfig   `mapstructure:"session"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
}

// SearchConfig configures the news search provider.
type SearchConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Endpoint   string        `mapstructure:"endpoint"`
	Engine     string        `mapstructure:"engine"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
}

func (s SearchConfig) Validate() error {
	if s.MaxResults < 1 || s.MaxResults > 10 {
		return fmt.Errorf("search.max_results must be between 1 and 10")
	}
	if s.Retries < 0 {
		return fmt.Errorf("search.retries cannot be negative")
	}
	return nil
}

const (
	RendererHTTP     = "http"
	RendererChromedp = "chromedp"
)

// FetchConfig configures per-URL page fetching.
type FetchConfig struct {
	Renderer    string        `mapstructure:"renderer"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxChars    int           `mapstructure:"max_chars"`
	Concurrency int           `mapstructure:"concurrency"`
	UserAgent   string        `mapstructure:"user_agent"`
}

func (f FetchConfig) Validate() error {
	switch f.Renderer {
	case RendererHTTP, RendererChromedp:
	default:
		return fmt.Errorf("fetch.renderer must be %q or %q, got %q", RendererHTTP, RendererChromedp, f.Renderer)
	}
	if f.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be > 0")
	}
	return nil
}

// RetrievalConfig controls chunking and top-k selection.
type RetrievalConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	TopK         int `mapstructure:"top_k"`
	Concurrency  int `mapstructure:"concurrency"`
}

func (r RetrievalConfig) Validate() error {
	if r.ChunkSize <= 0 {
		return fmt.Errorf("retrieval.chunk_size must be > 0")
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("retrieval.chunk_overlap must be in [0, chunk_size)")
	}
	if r.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be > 0")
	}
	return nil
}

const (
	EmbeddingOpenAI = "openai"
	EmbeddingLocal  = "local"
)

// EmbeddingConfig selects the embedding provider used for chunks and queries.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

func (e EmbeddingConfig) Validate() error {
	switch e.Provider {
	case EmbeddingOpenAI:
		if strings.TrimSpace(e.Model) == "" {
			return fmt.Errorf("embedding.model is required for the openai provider")
		}
	case EmbeddingLocal:
		if e.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be > 0 for the local provider")
		}
	default:
		return fmt.Errorf("unsupported embedding.provider %q", e.Provider)
	}
	return nil
}

// LLMConfig contains the language model settings
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if l.Temperature <= 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in (0, 2]")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

const (
	SessionInMemory = "inmemory"
	SessionRedis    = "redis"
)

// SessionConfig selects the conversation history backend.
type SessionConfig struct {
	Store       string        `mapstructure:"store"`
	TTL         time.Duration `mapstructure:"ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

func (s SessionConfig) Validate() error {
	switch s.Store {
	case SessionInMemory, SessionRedis:
	default:
		return fmt.Errorf("unsupported session.store %q", s.Store)
	}
	if s.TTL < 0 {
		return fmt.Errorf("session.ttl cannot be negative")
	}
	return nil
}

// TelemetryConfig controls trace export.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (t TelemetryConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be in [0, 1]")
	}
	if strings.TrimSpace(t.ServiceName) == "" {
		return fmt.Errorf("telemetry.service_name is required when telemetry is enabled")
	}
	return nil
}

// StorageConfig contains external storage configurations
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host is required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port is required")
	}
	return nil
}

// Validate checks every section. Credentials are checked where the clients
// are built so that the CLI can start without them.
func (c *Config) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Retrieval.Validate(); err != nil {
		return err
	}
	if err := c.Embedding.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Session.Store == SessionRedis {
		return c.Storage.Redis.Validate()
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.request_timeout", 120*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.endpoint", "https://serpapi.com/search")
	v.SetDefault("search.engine", "google_news")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.retries", 2)
	v.SetDefault("fetch.renderer", RendererHTTP)
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_chars", 20000)
	v.SetDefault("fetch.concurrency", 5)
	v.SetDefault("fetch.user_agent", "newsrag/1.0 (+https://github.com/mohammad-safakhou/newsrag)")
	v.SetDefault("retrieval.chunk_size", 1000)
	v.SetDefault("retrieval.chunk_overlap", 100)
	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.concurrency", 5)
	v.SetDefault("embedding.provider", EmbeddingOpenAI)
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 256)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("session.store", SessionInMemory)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "newsrag")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// LoadConfig reads config.json (from path, or ./config and . when path is
// empty), then applies NEWSRAG_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("NEWSRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Conventional provider variables, used when no prefixed value is set.
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("SERPAPI_KEY")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
