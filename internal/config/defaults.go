package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/vibesearch/data/db/places.db"
	}
	if cfg.Storage.DenseIndexPath == "" {
		cfg.Storage.DenseIndexPath = "/usr/local/var/vibesearch/data/indices/dense.idx"
	}
	if cfg.Storage.SparseIndexPath == "" {
		cfg.Storage.SparseIndexPath = "/usr/local/var/vibesearch/data/indices/sparse.json"
	}
	if cfg.Storage.ImageIndexPath == "" {
		cfg.Storage.ImageIndexPath = "/usr/local/var/vibesearch/data/indices/image.idx"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/vibesearch/data/indices/bleve"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.ImageDims == 0 {
		cfg.Embedding.ImageDims = 512
	}
	if cfg.Embedding.SparseVocabSize == 0 {
		cfg.Embedding.SparseVocabSize = 30315
	}
	if cfg.Vector.TextNamespace == "" {
		cfg.Vector.TextNamespace = "metadata"
	}
	if cfg.Vector.ImageNamespace == "" {
		cfg.Vector.ImageNamespace = "images"
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 10
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
	if cfg.Search.RemoteTopK == 0 {
		cfg.Search.RemoteTopK = 20
	}
	if cfg.Search.WeightDense == 0 && cfg.Search.WeightSparse == 0 && cfg.Search.WeightImage == 0 {
		cfg.Search.WeightDense = 0.4
		cfg.Search.WeightSparse = 0.3
		cfg.Search.WeightImage = 0.3
	}
	if cfg.Search.ScoreThreshold == 0 {
		cfg.Search.ScoreThreshold = 0.1
	}
	if cfg.Search.ModalityTimeout == 0 {
		cfg.Search.ModalityTimeout = 10 * time.Second
	}
	if cfg.Rerank.TopN == 0 {
		cfg.Rerank.TopN = 15
	}
	if cfg.Rerank.Timeout == 0 {
		cfg.Rerank.Timeout = 10 * time.Second
	}
	if cfg.Narrative.TopPlaces == 0 {
		cfg.Narrative.TopPlaces = 5
	}
	if cfg.Narrative.MaxReviews == 0 {
		cfg.Narrative.MaxReviews = 3
	}
	if cfg.Narrative.Timeout == 0 {
		cfg.Narrative.Timeout = 20 * time.Second
	}
	if cfg.Ingest.PoolSize == 0 {
		cfg.Ingest.PoolSize = 4
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 32
	}
}
