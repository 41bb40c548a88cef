// Package config provides configuration loading and structs for the Vibesearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Search    SearchConfig    `yaml:"search"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AllowedOrigins is the CORS allow-list. The ALLOWED_ORIGINS environment
	// variable (comma-separated) overrides the yaml value when set.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds paths for the place catalog and index artifacts.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	DenseIndexPath  string `yaml:"dense_index_path"`
	SparseIndexPath string `yaml:"sparse_index_path"`
	ImageIndexPath  string `yaml:"image_index_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
}

// EmbeddingConfig holds embedder settings for the three modalities.
type EmbeddingConfig struct {
	// Local ONNX dense embedder. Used when ModelPath is set; otherwise the
	// remote embedding service at RemoteBaseURL serves dense vectors.
	ModelPath       string `yaml:"model_path"`
	Dimensions      int    `yaml:"dimensions"`
	MaxTokens       int    `yaml:"max_tokens"`
	UseQuantization bool   `yaml:"use_quantization"`
	CacheSize       int    `yaml:"cache_size"`

	RemoteBaseURL string `yaml:"remote_base_url"`
	DenseModel    string `yaml:"dense_model"`
	ImageModel    string `yaml:"image_model"`
	ImageDims     int    `yaml:"image_dimensions"`

	SparseBaseURL   string `yaml:"sparse_base_url"`
	SparseVocabSize int    `yaml:"sparse_vocab_size"`
}

// VectorConfig holds settings for the remote vector store. When BaseURL is
// empty the server loads local index artifacts from StorageConfig instead.
type VectorConfig struct {
	BaseURL        string `yaml:"base_url"`
	TextNamespace  string `yaml:"text_namespace"`
	ImageNamespace string `yaml:"image_namespace"`
	// APIKey is read from the VECTOR_API_KEY environment variable when empty.
	APIKey string `yaml:"api_key"`
}

// SearchConfig holds fusion weights, candidate counts, and stage timeouts.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
	// RemoteTopK is the per-modality fan-out page size when serving from the
	// remote vector service. Local indices fan out at the requested top_k.
	RemoteTopK      int           `yaml:"remote_top_k"`
	WeightDense     float64       `yaml:"weight_dense"`
	WeightSparse    float64       `yaml:"weight_sparse"`
	WeightImage     float64       `yaml:"weight_image"`
	ScoreThreshold  float64       `yaml:"score_threshold"`
	ModalityTimeout time.Duration `yaml:"modality_timeout"`
}

// RerankConfig holds cross-encoder reranker settings.
type RerankConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	TopN    int           `yaml:"top_n"`
	Timeout time.Duration `yaml:"timeout"`
}

// NarrativeConfig holds LLM summarizer settings. The API key is read from
// the OPENAI_API_KEY environment variable by the LLM client.
type NarrativeConfig struct {
	Enabled    bool          `yaml:"enabled"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	TopPlaces  int           `yaml:"top_places"`
	MaxReviews int           `yaml:"max_reviews"`
	Timeout    time.Duration `yaml:"timeout"`
}

// IngestConfig holds CSV ingestion settings.
type IngestConfig struct {
	PlacesCSV  string `yaml:"places_csv"`
	ReviewsCSV string `yaml:"reviews_csv"`
	MediaCSV   string `yaml:"media_csv"`
	ImageCSV   string `yaml:"image_embeddings_csv"`
	PoolSize   int    `yaml:"pool_size"`
	BatchSize  int    `yaml:"batch_size"`
}

// Load reads and parses the config file at path, expands paths, applies
// defaults, and overlays environment secrets.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.DenseIndexPath = expandPath(cfg.Storage.DenseIndexPath, configDir)
	cfg.Storage.SparseIndexPath = expandPath(cfg.Storage.SparseIndexPath, configDir)
	cfg.Storage.ImageIndexPath = expandPath(cfg.Storage.ImageIndexPath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Ingest.PlacesCSV != "" {
		cfg.Ingest.PlacesCSV = expandPath(cfg.Ingest.PlacesCSV, configDir)
	}
	if cfg.Ingest.ReviewsCSV != "" {
		cfg.Ingest.ReviewsCSV = expandPath(cfg.Ingest.ReviewsCSV, configDir)
	}
	if cfg.Ingest.MediaCSV != "" {
		cfg.Ingest.MediaCSV = expandPath(cfg.Ingest.MediaCSV, configDir)
	}
	if cfg.Ingest.ImageCSV != "" {
		cfg.Ingest.ImageCSV = expandPath(cfg.Ingest.ImageCSV, configDir)
	}

	return &cfg, nil
}

// applyEnv overlays environment-provided secrets and the CORS allow-list.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VECTOR_API_KEY"); v != "" {
		cfg.Vector.APIKey = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Server.AllowedOrigins = origins
	}
}

// Validate checks for configuration that would otherwise fail at first
// request rather than at startup.
func (c *Config) Validate() error {
	if c.Embedding.ModelPath == "" && c.Embedding.RemoteBaseURL == "" {
		return fmt.Errorf("embedding: either model_path or remote_base_url must be set")
	}
	sum := c.Search.WeightDense + c.Search.WeightSparse + c.Search.WeightImage
	if sum <= 0 {
		return fmt.Errorf("search: modality weights must not all be zero")
	}
	if c.Rerank.Enabled && c.Rerank.BaseURL == "" {
		return fmt.Errorf("rerank: base_url required when enabled")
	}
	if c.Narrative.Enabled && c.Narrative.Model == "" {
		return fmt.Errorf("narrative: model required when enabled")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
