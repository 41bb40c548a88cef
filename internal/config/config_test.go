package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./places.db"
embedding:
  remote_base_url: "http://localhost:9200"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "places.db") {
		t.Errorf("database_path not expanded: %s", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Search.DefaultTopK != 10 {
		t.Errorf("default_top_k = %d, want 10", cfg.Search.DefaultTopK)
	}
	if cfg.Search.RemoteTopK != 20 {
		t.Errorf("remote_top_k = %d, want 20", cfg.Search.RemoteTopK)
	}
	if cfg.Search.WeightDense != 0.4 || cfg.Search.WeightSparse != 0.3 || cfg.Search.WeightImage != 0.3 {
		t.Errorf("unexpected default weights: %v %v %v",
			cfg.Search.WeightDense, cfg.Search.WeightSparse, cfg.Search.WeightImage)
	}
	if cfg.Search.ScoreThreshold != 0.1 {
		t.Errorf("score_threshold = %v, want 0.1", cfg.Search.ScoreThreshold)
	}
	if cfg.Search.ModalityTimeout != 10*time.Second {
		t.Errorf("modality_timeout = %v", cfg.Search.ModalityTimeout)
	}
	if cfg.Embedding.SparseVocabSize != 30315 {
		t.Errorf("sparse_vocab_size = %d", cfg.Embedding.SparseVocabSize)
	}
	if cfg.Rerank.TopN != 15 {
		t.Errorf("rerank top_n = %d, want 15", cfg.Rerank.TopN)
	}
	if cfg.Vector.TextNamespace != "metadata" || cfg.Vector.ImageNamespace != "images" {
		t.Errorf("unexpected namespaces: %q %q", cfg.Vector.TextNamespace, cfg.Vector.ImageNamespace)
	}
}

func TestApplyDefaults_keepsExplicitWeights(t *testing.T) {
	cfg := &Config{}
	cfg.Search.WeightDense = 1.0
	ApplyDefaults(cfg)
	if cfg.Search.WeightSparse != 0 || cfg.Search.WeightImage != 0 {
		t.Errorf("explicit weights should not be overwritten: %v %v",
			cfg.Search.WeightSparse, cfg.Search.WeightImage)
	}
}

func TestApplyEnv_allowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com")
	cfg := &Config{}
	applyEnv(cfg)
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.AllowedOrigins[1] != "https://app.example.com" {
		t.Errorf("origin not trimmed: %q", cfg.Server.AllowedOrigins[1])
	}
}

func TestApplyEnv_vectorAPIKey(t *testing.T) {
	t.Setenv("VECTOR_API_KEY", "secret-key")
	cfg := &Config{}
	applyEnv(cfg)
	if cfg.Vector.APIKey != "secret-key" {
		t.Errorf("api key = %q", cfg.Vector.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when no embedder is configured")
	}
	cfg.Embedding.RemoteBaseURL = "http://localhost:9200"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Rerank.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when rerank enabled without base_url")
	}
}
