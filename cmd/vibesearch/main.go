// Package main is the vibesearch CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vibelabs/vibesearch/internal/catalog"
	"github.com/vibelabs/vibesearch/internal/cli"
	"github.com/vibelabs/vibesearch/internal/config"
	"github.com/vibelabs/vibesearch/internal/embedding"
	"github.com/vibelabs/vibesearch/internal/ingest"
	"github.com/vibelabs/vibesearch/internal/keyword"
	"github.com/vibelabs/vibesearch/internal/models"
	"github.com/vibelabs/vibesearch/internal/narrative"
	"github.com/vibelabs/vibesearch/internal/rerank"
	"github.com/vibelabs/vibesearch/internal/search"
	"github.com/vibelabs/vibesearch/internal/server"
	"github.com/vibelabs/vibesearch/internal/vector"
	"github.com/vibelabs/vibesearch/internal/watcher"
	"github.com/vibelabs/vibesearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/vibesearch/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "vibesearch server" from the project dir uses the
// project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Local development keys (VECTOR_API_KEY, OPENAI_API_KEY) live in .env.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("vibesearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var artifactWatcher *watcher.ArtifactWatcher
	if paths := components.ArtifactPaths(cfg); len(paths) > 0 {
		artifactWatcher = watcher.NewArtifactWatcher(paths, func(path string) {
			if err := components.ReloadArtifact(path); err != nil {
				logger.Warn("index artifact reload failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("index artifact reloaded", zap.String("path", path))
		}, logger)
		if err := artifactWatcher.Start(); err != nil {
			logger.Fatal("Failed to start artifact watcher", zap.Error(err))
		}
		defer artifactWatcher.Stop()
	}

	srv := server.NewServer(components.Engine, components.Catalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: vibesearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  vibesearch search coffee upper west side
  vibesearch search "date night italian"           # same as above
  vibesearch search --weight-image 0 cheap eats     # text modalities only
  vibesearch search --rerank --top-k 5 rooftop bar
  vibesearch search --narrative cozy wine bar       # adds an LLM summary
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so
// "vibesearch search cozy bar --rerank" would otherwise ignore --rerank.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = query indices directly)")
	topK := fs.Int("top-k", 0, "number of results (0 = server default)")
	weightDense := fs.Float64("weight-dense", 0, "dense modality weight (0 = default)")
	weightSparse := fs.Float64("weight-sparse", 0, "sparse modality weight (0 = default)")
	weightImage := fs.Float64("weight-image", 0, "image modality weight (0 = default)")
	rerankFlag := fs.Bool("rerank", false, "rerank fused candidates with the cross-encoder")
	narrativeFlag := fs.Bool("narrative", false, "generate an LLM narrative for the top results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	query := &models.SearchQuery{
		Query:        queryStr,
		TopK:         *topK,
		WeightDense:  *weightDense,
		WeightSparse: *weightSparse,
		WeightImage:  *weightImage,
		Rerank:       *rerankFlag,
		Narrative:    *narrativeFlag,
	}

	if *serverURL != "" {
		response, err := searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRankedResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct index access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if query.Narrative {
		resp, err := components.Engine.Search(context.Background(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		cli.WriteNarrative(os.Stdout, resp.LLMResponse)
	}
	response, err := components.Engine.SearchRanked(context.Background(), query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRankedResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.HybridResponse, error) {
	params := url.Values{}
	params.Set("q", query.Query)
	if query.TopK > 0 {
		params.Set("top_k", strconv.Itoa(query.TopK))
	}
	if query.WeightDense > 0 {
		params.Set("weight_dense", strconv.FormatFloat(query.WeightDense, 'f', -1, 64))
	}
	if query.WeightSparse > 0 {
		params.Set("weight_sparse", strconv.FormatFloat(query.WeightSparse, 'f', -1, 64))
	}
	if query.WeightImage > 0 {
		params.Set("weight_image", strconv.FormatFloat(query.WeightImage, 'f', -1, 64))
	}
	if query.Rerank {
		params.Set("rerank", "true")
	}
	if query.Narrative {
		params.Set("narrative", "true")
	}

	resp, err := http.Get(serverURL + "/search?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.HybridResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	placesCSV := fs.String("places", "", "places CSV path (overrides config)")
	reviewsCSV := fs.String("reviews", "", "reviews CSV path (overrides config)")
	mediaCSV := fs.String("media", "", "media CSV path (overrides config)")
	imagesCSV := fs.String("images", "", "precomputed image embeddings CSV path (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *placesCSV != "" {
		cfg.Ingest.PlacesCSV = *placesCSV
	}
	if *reviewsCSV != "" {
		cfg.Ingest.ReviewsCSV = *reviewsCSV
	}
	if *mediaCSV != "" {
		cfg.Ingest.MediaCSV = *mediaCSV
	}
	if *imagesCSV != "" {
		cfg.Ingest.ImageCSV = *imagesCSV
	}
	if cfg.Ingest.PlacesCSV == "" || cfg.Ingest.ReviewsCSV == "" || cfg.Ingest.MediaCSV == "" {
		fmt.Println("Ingest requires places, reviews, and media CSV paths (config or flags)")
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	places, err := ingest.LoadPlaces(cfg.Ingest.PlacesCSV)
	if err != nil {
		logger.Fatal("Failed to load places", zap.Error(err))
	}
	reviews, err := ingest.LoadReviews(cfg.Ingest.ReviewsCSV)
	if err != nil {
		logger.Fatal("Failed to load reviews", zap.Error(err))
	}
	media, err := ingest.LoadMedia(cfg.Ingest.MediaCSV)
	if err != nil {
		logger.Fatal("Failed to load media", zap.Error(err))
	}
	var imageVecs map[string][]float32
	if cfg.Ingest.ImageCSV != "" {
		imageVecs, err = ingest.LoadImageEmbeddings(cfg.Ingest.ImageCSV)
		if err != nil {
			logger.Fatal("Failed to load image embeddings", zap.Error(err))
		}
	}
	records := ingest.MergeDatasets(places, reviews, media)
	logger.Info("datasets merged",
		zap.Int("places", len(places)),
		zap.Int("records", len(records)))

	opts := []ingest.Option{ingest.WithBatchSize(cfg.Ingest.BatchSize)}
	if components.SparseEmbedder != nil && components.LocalSparseIdx != nil {
		opts = append(opts, ingest.WithSparse(components.SparseEmbedder, components.LocalSparseIdx))
	} else if components.SparseEmbedder != nil {
		// Remote mode: the text-namespace index accepts sparse upserts too.
		if store, ok := components.DenseIdx.(ingest.SparseStore); ok {
			opts = append(opts, ingest.WithSparse(components.SparseEmbedder, store))
		}
	}
	if components.ImageIdx != nil && len(imageVecs) > 0 {
		opts = append(opts, ingest.WithImageIndex(components.ImageIdx))
	}
	if components.Keyword != nil {
		opts = append(opts, ingest.WithKeywordIndex(components.Keyword))
	}
	pipeline, err := ingest.NewPipeline(components.Catalog, components.Embedder, components.DenseIdx, cfg.Ingest.PoolSize, logger, opts...)
	if err != nil {
		logger.Fatal("Failed to create ingest pipeline", zap.Error(err))
	}
	defer pipeline.Release()

	stats, err := pipeline.Run(context.Background(), records, imageVecs)
	if err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}
	if err := pipeline.SaveIndices(cfg.Storage.DenseIndexPath, cfg.Storage.SparseIndexPath, cfg.Storage.ImageIndexPath); err != nil {
		logger.Fatal("Failed to save indices", zap.Error(err))
	}
	fmt.Printf("Ingested %d place(s), %d review(s), %d image vector(s)\n",
		stats.Places, stats.Reviews, stats.ImageVectors)
}

// statusResponse is the shape of GET /status.
type statusResponse struct {
	Places         int64                  `json:"places"`
	Reviews        int64                  `json:"reviews"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cat, err := catalog.NewSQLiteCatalog(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open catalog: %v\n", err)
			os.Exit(1)
		}
		defer cat.Close()

		ctx := context.Background()
		placeCount, err := cat.CountPlaces(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count places failed: %v\n", err)
			os.Exit(1)
		}
		reviewCount, err := cat.CountReviews(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count reviews failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{Places: placeCount, Reviews: reviewCount}
		diskBytes, err := catalog.DiskUsageBytes(
			cfg.Storage.DatabasePath,
			cfg.Storage.DenseIndexPath,
			cfg.Storage.SparseIndexPath,
			cfg.Storage.ImageIndexPath,
			cfg.Storage.BleveIndexPath,
		)
		if err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("places:            %d   # venues in the catalog\n", status.Places)
		fmt.Printf("reviews:           %d   # review texts in the catalog\n", status.Reviews)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:  %d   # catalog + index artifacts on disk\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Catalog        catalog.Catalog
	Embedder       embedding.Embedder
	ImageEmbedder  embedding.Embedder
	SparseEmbedder embedding.SparseEmbedder
	DenseIdx       vector.Index
	LocalSparseIdx *vector.SparseIndex
	ImageIdx       vector.Index
	Keyword        keyword.PlaceIndex
	Engine         *search.Engine

	remote     bool
	densePath  string
	sparsePath string
	imagePath  string
}

func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.ImageEmbedder != nil {
		_ = c.ImageEmbedder.Close()
	}
	if c.SparseEmbedder != nil {
		_ = c.SparseEmbedder.Close()
	}
	if c.DenseIdx != nil {
		_ = c.DenseIdx.Close()
	}
	if c.LocalSparseIdx != nil {
		_ = c.LocalSparseIdx.Close()
	}
	if c.ImageIdx != nil {
		_ = c.ImageIdx.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
}

// ArtifactPaths returns the index artifact paths that should be watched for
// hot reload. Remote indices have no local artifacts.
func (c *Components) ArtifactPaths(cfg *config.Config) []string {
	if c.remote {
		return nil
	}
	var paths []string
	if cfg.Storage.DenseIndexPath != "" {
		paths = append(paths, cfg.Storage.DenseIndexPath)
	}
	if c.LocalSparseIdx != nil && cfg.Storage.SparseIndexPath != "" {
		paths = append(paths, cfg.Storage.SparseIndexPath)
	}
	if c.ImageIdx != nil && cfg.Storage.ImageIndexPath != "" {
		paths = append(paths, cfg.Storage.ImageIndexPath)
	}
	return paths
}

// ReloadArtifact reloads the index whose artifact lives at path.
func (c *Components) ReloadArtifact(path string) error {
	switch filepath.Clean(path) {
	case c.densePath:
		return c.DenseIdx.Load(path)
	case c.sparsePath:
		if c.LocalSparseIdx != nil {
			return c.LocalSparseIdx.Load(path)
		}
	case c.imagePath:
		if c.ImageIdx != nil {
			return c.ImageIdx.Load(path)
		}
	}
	return nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	cat, err := catalog.NewSQLiteCatalog(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	components := &Components{Catalog: cat}

	// Dense text embedder: remote service when configured, else local ONNX
	// with a mock fallback for development.
	if cfg.Embedding.RemoteBaseURL != "" {
		embedder, err := embedding.NewRemoteEmbedder(
			cfg.Embedding.RemoteBaseURL,
			cfg.Embedding.DenseModel,
			os.Getenv("OPENAI_API_KEY"),
			cfg.Embedding.Dimensions,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create remote embedder: %w", err)
		}
		components.Embedder = embedder
	} else {
		onnxEmbedder, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using mock embeddings", zap.Error(err))
			components.Embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
		} else {
			components.Embedder = onnxEmbedder
		}
	}

	// Image/text cross-modal embedder shares the remote service with its own
	// model and dimensionality.
	if cfg.Embedding.RemoteBaseURL != "" && cfg.Embedding.ImageModel != "" {
		imageEmbedder, err := embedding.NewRemoteEmbedder(
			cfg.Embedding.RemoteBaseURL,
			cfg.Embedding.ImageModel,
			os.Getenv("OPENAI_API_KEY"),
			cfg.Embedding.ImageDims,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create image embedder: %w", err)
		}
		components.ImageEmbedder = imageEmbedder
	}

	if cfg.Embedding.SparseBaseURL != "" {
		sparseEmbedder, err := embedding.NewRemoteSparseEmbedder(
			cfg.Embedding.SparseBaseURL, "", cfg.Embedding.SparseVocabSize)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create sparse embedder: %w", err)
		}
		components.SparseEmbedder = sparseEmbedder
	}

	var sparseQuerier interface {
		QuerySparse(ctx context.Context, query *vector.SparseVector, k int) ([]*vector.Match, error)
	}

	if cfg.Vector.BaseURL != "" {
		// Remote vector service with per-modality namespaces.
		components.remote = true
		textIdx, err := vector.NewRemoteIndex(cfg.Vector.BaseURL, cfg.Vector.TextNamespace, cfg.Vector.APIKey, vector.MetricInnerProduct)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create remote text index: %w", err)
		}
		components.DenseIdx = textIdx
		sparseQuerier = textIdx
		imageIdx, err := vector.NewRemoteIndex(cfg.Vector.BaseURL, cfg.Vector.ImageNamespace, cfg.Vector.APIKey, vector.MetricInnerProduct)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create remote image index: %w", err)
		}
		components.ImageIdx = imageIdx
	} else {
		denseIdx, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions, vector.MetricInnerProduct)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create dense index: %w", err)
		}
		if cfg.Storage.DenseIndexPath != "" {
			if loadErr := denseIdx.Load(cfg.Storage.DenseIndexPath); loadErr != nil {
				logger.Warn("dense index load skipped (run ingest)", zap.String("path", cfg.Storage.DenseIndexPath), zap.Error(loadErr))
			}
		}
		components.DenseIdx = denseIdx

		if components.SparseEmbedder != nil {
			sparseIdx, err := vector.NewSparseIndex(cfg.Embedding.SparseVocabSize)
			if err != nil {
				components.Close()
				return nil, fmt.Errorf("failed to create sparse index: %w", err)
			}
			if cfg.Storage.SparseIndexPath != "" {
				if loadErr := sparseIdx.Load(cfg.Storage.SparseIndexPath); loadErr != nil {
					logger.Warn("sparse index load skipped (run ingest)", zap.String("path", cfg.Storage.SparseIndexPath), zap.Error(loadErr))
				}
			}
			components.LocalSparseIdx = sparseIdx
			sparseQuerier = sparseIdx
		}

		if cfg.Storage.ImageIndexPath != "" {
			imageIdx, err := vector.NewMemoryIndex(cfg.Embedding.ImageDims, vector.MetricInnerProduct)
			if err != nil {
				components.Close()
				return nil, fmt.Errorf("failed to create image index: %w", err)
			}
			if loadErr := imageIdx.Load(cfg.Storage.ImageIndexPath); loadErr != nil {
				logger.Warn("image index load skipped (run ingest)", zap.String("path", cfg.Storage.ImageIndexPath), zap.Error(loadErr))
			}
			components.ImageIdx = imageIdx
		}
	}

	if cfg.Storage.BleveIndexPath != "" {
		keywordIdx, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
		components.Keyword = keywordIdx
	}

	// Retrievers: the sparse modality prefers the SPLADE-style sparse index
	// and falls back to BM25 over the keyword index.
	denseRetriever := search.NewDenseRetriever(components.Embedder, components.DenseIdx)
	var sparseRetriever search.Retriever
	if components.SparseEmbedder != nil && sparseQuerier != nil {
		sparseRetriever = search.NewSparseRetriever(components.SparseEmbedder, sparseQuerier)
	} else if components.Keyword != nil {
		sparseRetriever = search.NewLexicalRetriever(components.Keyword)
	}
	var imageRetriever search.Retriever
	if components.ImageEmbedder != nil && components.ImageIdx != nil {
		imageRetriever = search.NewDenseRetriever(components.ImageEmbedder, components.ImageIdx)
	}

	engine := search.NewEngine(denseRetriever, sparseRetriever, imageRetriever, cat, &cfg.Search, logger)
	if components.remote {
		engine.SetOverfetch(cfg.Search.RemoteTopK)
	}
	if bleveIdx, ok := components.Keyword.(*keyword.BleveIndex); ok {
		engine.SetSpellChecker(keyword.NewSpellChecker(bleveIdx))
	}
	if cfg.Rerank.Enabled {
		reranker, err := rerank.NewHTTPReranker(cfg.Rerank.BaseURL, cfg.Rerank.Model)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create reranker: %w", err)
		}
		engine.SetReranker(reranker, &cfg.Rerank)
	}
	if cfg.Narrative.Enabled {
		summarizer, err := narrative.NewLLMSummarizer(cfg.Narrative.BaseURL, cfg.Narrative.Model, cfg.Narrative.MaxReviews)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to create summarizer: %w", err)
		}
		engine.SetSummarizer(summarizer, &cfg.Narrative)
	}
	components.Engine = engine

	components.densePath = filepath.Clean(cfg.Storage.DenseIndexPath)
	components.sparsePath = filepath.Clean(cfg.Storage.SparseIndexPath)
	components.imagePath = filepath.Clean(cfg.Storage.ImageIndexPath)

	return components, nil
}

func printUsage() {
	fmt.Println(`vibesearch - Hybrid multi-modal venue search

Usage:
  vibesearch server [flags]           Start the HTTP server
  vibesearch search [flags] <query>   Search venues
  vibesearch ingest [flags]           Build catalog and indices from CSV datasets
  vibesearch status [flags]           Show catalog/index status
  vibesearch version                  Show version
  vibesearch help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/vibesearch/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string          Config file path (for direct mode)
  --server string          Server URL (default: http://localhost:8080). Use empty (--server "") to query indices directly.
  --top-k int              Number of results
  --weight-dense float     Dense modality weight
  --weight-sparse float    Sparse modality weight
  --weight-image float     Image modality weight
  --rerank                 Rerank fused candidates with the cross-encoder
  --narrative              Generate an LLM narrative for the top results
  --output string          Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path
  --places string    Places CSV path (overrides config)
  --reviews string   Reviews CSV path (overrides config)
  --media string     Media CSV path (overrides config)
  --images string    Precomputed image embeddings CSV path (overrides config)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  vibesearch server
  vibesearch search "coffee upper west side"
  vibesearch search --rerank --top-k 5 rooftop bar
  vibesearch search --output json "date night italian"
  vibesearch ingest --places data/places.csv --reviews data/reviews.csv --media data/media.csv
  vibesearch status --output json`)
}
