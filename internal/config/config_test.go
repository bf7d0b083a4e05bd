package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"server_address": ":9000", "provider": "openai"},
		"providers": {"openai": {"model": "gpt-4o", "api_key": "k"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":9000" {
		t.Fatalf("server address = %q", cfg.BasicConfig.ServerAddress)
	}
	if cfg.Engine.TopK != DefaultTopK {
		t.Fatalf("top_k default not applied: %d", cfg.Engine.TopK)
	}
	if cfg.Engine.MaxRewrites != DefaultMaxRewrites {
		t.Fatalf("max_rewrites default not applied: %d", cfg.Engine.MaxRewrites)
	}
	if cfg.Ingest.EmbeddingModel != DefaultEmbeddingModel {
		t.Fatalf("embedding model default not applied: %q", cfg.Ingest.EmbeddingModel)
	}
	if cfg.LLMDeadline() != time.Duration(DefaultLLMTimeout)*time.Second {
		t.Fatalf("llm deadline = %v", cfg.LLMDeadline())
	}
}

func TestLoadExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `{
		"engine": {"top_k": 10, "max_rewrites": 1, "summarize_after": 30, "keep_recent": 4},
		"ingest": {"chunk_size": 800, "chunk_overlap": 100}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.TopK != 10 || cfg.Engine.MaxRewrites != 1 {
		t.Fatalf("explicit engine values overwritten: %+v", cfg.Engine)
	}
	if cfg.Ingest.ChunkSize != 800 || cfg.Ingest.ChunkOverlap != 100 {
		t.Fatalf("explicit ingest values overwritten: %+v", cfg.Ingest)
	}
}

func TestLoadRejectsKeepRecentAboveSummarizeAfter(t *testing.T) {
	path := writeConfig(t, `{"engine": {"summarize_after": 4, "keep_recent": 6}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for keep_recent >= summarize_after")
	}
}

func TestLoadRejectsOverlapAboveChunkSize(t *testing.T) {
	path := writeConfig(t, `{"ingest": {"chunk_size": 100, "chunk_overlap": 120}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for chunk_overlap >= chunk_size")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
