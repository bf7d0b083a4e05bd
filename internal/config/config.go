package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Engine      EngineConfig              `json:"engine"`
	Ingest      IngestConfig              `json:"ingest"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	Provider      string `json:"provider"`
	FileBaseDir   string `json:"file_base_dir"`
}

// EngineConfig holds the orchestration bounds. Zero values are replaced with
// defaults on load so a minimal config file stays valid.
type EngineConfig struct {
	TopK           int `json:"top_k"`
	MaxRewrites    int `json:"max_rewrites"`
	SummarizeAfter int `json:"summarize_after"`
	KeepRecent     int `json:"keep_recent"`
	// timeouts in seconds
	LLMTimeout    int `json:"llm_timeout"`
	SearchTimeout int `json:"search_timeout"`
}

type IngestConfig struct {
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	EmbeddingModel string `json:"embedding_model"`
}

const (
	DefaultTopK           = 6
	DefaultMaxRewrites    = 2
	DefaultSummarizeAfter = 20
	DefaultKeepRecent     = 6
	DefaultLLMTimeout     = 60
	DefaultSearchTimeout  = 15
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 75
	DefaultEmbeddingModel = "gemini-embedding-001"
)

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.TopK == 0 {
		c.Engine.TopK = DefaultTopK
	}
	if c.Engine.MaxRewrites == 0 {
		c.Engine.MaxRewrites = DefaultMaxRewrites
	}
	if c.Engine.SummarizeAfter == 0 {
		c.Engine.SummarizeAfter = DefaultSummarizeAfter
	}
	if c.Engine.KeepRecent == 0 {
		c.Engine.KeepRecent = DefaultKeepRecent
	}
	if c.Engine.LLMTimeout == 0 {
		c.Engine.LLMTimeout = DefaultLLMTimeout
	}
	if c.Engine.SearchTimeout == 0 {
		c.Engine.SearchTimeout = DefaultSearchTimeout
	}
	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = DefaultChunkSize
	}
	if c.Ingest.ChunkOverlap == 0 {
		c.Ingest.ChunkOverlap = DefaultChunkOverlap
	}
	if c.Ingest.EmbeddingModel == "" {
		c.Ingest.EmbeddingModel = DefaultEmbeddingModel
	}
}

func (c *Config) validate() error {
	if c.Engine.TopK < 0 {
		return fmt.Errorf("engine.top_k must be positive")
	}
	if c.Engine.MaxRewrites < 0 {
		return fmt.Errorf("engine.max_rewrites must not be negative")
	}
	if c.Engine.KeepRecent >= c.Engine.SummarizeAfter {
		return fmt.Errorf("engine.keep_recent must be smaller than engine.summarize_after")
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	return nil
}

// LLMDeadline returns the per-call deadline for model invocations.
func (c *Config) LLMDeadline() time.Duration {
	return time.Duration(c.Engine.LLMTimeout) * time.Second
}

// SearchDeadline returns the per-call deadline for vector search and embedding.
func (c *Config) SearchDeadline() time.Duration {
	return time.Duration(c.Engine.SearchTimeout) * time.Second
}
