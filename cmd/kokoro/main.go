// Package main is the Kokoro CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/analysis"
	"github.com/healinggarden/kokoro/internal/config"
	"github.com/healinggarden/kokoro/internal/embedding"
	"github.com/healinggarden/kokoro/internal/profile"
	"github.com/healinggarden/kokoro/internal/scheduler"
	"github.com/healinggarden/kokoro/internal/search"
	"github.com/healinggarden/kokoro/internal/server"
	"github.com/healinggarden/kokoro/internal/store"
	"github.com/healinggarden/kokoro/internal/vector"
	"github.com/healinggarden/kokoro/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kokoro/config.yaml"

// loadConfig loads config from path. When path is the default, it first
// looks for config.yaml in the current directory (for development); if
// that exists it is used. Returns the config and the path actually loaded.
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
	// Local .env files carry API keys in development; absence is fine.
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
	case "profile":
		runProfile()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kokoro version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds the long-lived services built from config.
type Components struct {
	Store      store.Store
	Embedder   embedding.Embedder
	Cache      embedding.Cache
	Redis      *redis.Client
	Index      vector.Index
	Searcher   *search.Service
	Aggregator *profile.Aggregator
	Analyzer   analysis.SentimentAnalyzer
	Summarizer analysis.Summarizer
	Questions  *analysis.QuestionGenerator
	Trends     *analysis.TrendDetector
	Daily      *analysis.DailySummarizer
}

// Close releases storage, index, and cache resources.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if rc, ok := c.Cache.(*embedding.RedisCache); ok {
		_ = rc.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}

	var cache embedding.Cache
	var redisClient *redis.Client
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := embedding.NewRedisCache(
			cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
			cache = embedding.NewMemoryCache()
		} else {
			cache = redisCache
			redisClient = redisCache.Client()
		}
	} else {
		cache = embedding.NewMemoryCache()
	}

	idx, err := buildIndex(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	searchCfg := search.Config{
		CandidateLimit: cfg.Search.CandidateLimit,
		PreviewLength:  cfg.Search.PreviewLength,
		CacheTTL:       time.Duration(cfg.Cache.TTLHours) * time.Hour,
	}
	searcher := search.NewService(st, embedder, cache, searchCfg, logger)

	aggregator := profile.NewAggregator(st, profile.Config{
		WindowDays: cfg.Profile.WindowDays,
		MaxEntries: cfg.Profile.MaxEntries,
	}, logger)

	analyzer, summarizer := buildAnalysis(cfg, logger)

	return &Components{
		Store:      st,
		Embedder:   embedder,
		Cache:      cache,
		Redis:      redisClient,
		Index:      idx,
		Searcher:   searcher,
		Aggregator: aggregator,
		Analyzer:   analyzer,
		Summarizer: summarizer,
		Questions:  analysis.NewQuestionGenerator(st, logger),
		Trends:     analysis.NewTrendDetector(st, analyzer, logger),
		Daily:      analysis.NewDailySummarizer(summarizer),
	}, nil
}

func buildIndex(cfg *config.Config, logger *zap.Logger) (vector.Index, error) {
	var opts *vector.QdrantOptions
	if vector.IndexType(cfg.Index.Type) == vector.IndexTypeQdrant {
		opts = &vector.QdrantOptions{
			URL:        cfg.Index.QdrantURL,
			Collection: cfg.Index.QdrantCollection,
			APIKey:     os.Getenv(cfg.Index.QdrantAPIKeyEnv),
		}
	}
	idx, err := vector.NewIndex(cfg.Index.Type, cfg.Embedding.Dimensions, opts)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.IndexPath != "" {
		if loadErr := idx.Load(cfg.Storage.IndexPath); loadErr != nil {
			logger.Warn("vector index load skipped",
				zap.String("path", cfg.Storage.IndexPath), zap.Error(loadErr))
		}
	}
	return idx, nil
}

func buildEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		apiKey := os.Getenv(cfg.Analysis.OpenAIKeyEnv)
		embedder, err := embedding.NewOpenAIEmbedder(apiKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai embedder: %w", err)
		}
		return embedder, nil
	case "onnx":
		embedder, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath, cfg.Embedding.Model,
			cfg.Embedding.Dimensions, cfg.Embedding.MaxTokens)
		if err != nil {
			logger.Warn("onnx embedder unavailable, using mock", zap.Error(err))
			return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
		}
		return embedder, nil
	default:
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
	}
}

func buildAnalysis(cfg *config.Config, logger *zap.Logger) (analysis.SentimentAnalyzer, analysis.Summarizer) {
	apiKey := os.Getenv(cfg.Analysis.OpenAIKeyEnv)
	if apiKey == "" {
		return analysis.NewLexiconAnalyzer(), analysis.NewExtractiveSummarizer()
	}
	analyzer, err := analysis.NewOpenAIAnalyzer(apiKey, cfg.Analysis.ChatModel)
	if err != nil {
		logger.Warn("openai analyzer unavailable, using lexicon fallback", zap.Error(err))
		return analysis.NewLexiconAnalyzer(), analysis.NewExtractiveSummarizer()
	}
	summarizer, err := analysis.NewOpenAISummarizer(apiKey, cfg.Analysis.ChatModel)
	if err != nil {
		logger.Warn("openai summarizer unavailable, using extractive fallback", zap.Error(err))
		return analyzer, analysis.NewExtractiveSummarizer()
	}
	return analyzer, summarizer
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

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(logger)
		jobs := &scheduler.Jobs{
			Store:      components.Store,
			Aggregator: components.Aggregator,
			Trends:     components.Trends,
			Daily:      components.Daily,
			Logger:     logger,
		}
		for _, job := range []struct {
			name string
			spec string
			fn   scheduler.Job
		}{
			{"daily_summaries", cfg.Scheduler.DailySummaries, jobs.DailySummaries},
			{"emotional_trends", cfg.Scheduler.Trends, jobs.EmotionalTrends},
			{"profile_refresh", cfg.Scheduler.ProfileRefresh, jobs.ProfileRefresh},
			{"cleanup", cfg.Scheduler.Cleanup, jobs.Cleanup},
		} {
			if err := sched.Register(job.name, job.spec, job.fn); err != nil {
				logger.Fatal("Failed to register job", zap.String("job", job.name), zap.Error(err))
			}
		}
		sched.Start()
	}

	srv := server.NewServer(server.Deps{
		Searcher:   components.Searcher,
		Aggregator: components.Aggregator,
		Store:      components.Store,
		Index:      components.Index,
		Analyzer:   components.Analyzer,
		Summarizer: components.Summarizer,
		Questions:  components.Questions,
		Redis:      components.Redis,
	}, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if sched != nil {
		sched.Stop()
	}
	if cfg.Storage.IndexPath != "" {
		if err := components.Index.Save(cfg.Storage.IndexPath); err != nil {
			logger.Warn("vector index save failed",
				zap.String("path", cfg.Storage.IndexPath), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	userID := fs.String("user", "", "user ID to search within (required)")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *userID == "" || fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: kokoro search -user <id> [flags] <query>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())

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

	results, err := components.Searcher.Search(context.Background(), queryStr, *userID, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		_ = json.NewEncoder(os.Stdout).Encode(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No matching entries.")
		return
	}
	for i, result := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, result.Similarity, result.Preview)
		fmt.Printf("   id=%s created=%s\n", result.EntryID, result.CreatedAt.Format(time.RFC3339))
	}
}

func runProfile() {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	refresh := fs.Bool("refresh", false, "recompute the profile before printing")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: kokoro profile [flags] <user-id>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	userID := fs.Arg(0)

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

	ctx := context.Background()
	if *refresh {
		prof, err := components.Aggregator.Refresh(ctx, userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
			os.Exit(1)
		}
		if prof == nil {
			fmt.Println("No recent entries; profile unchanged.")
			return
		}
	}
	prof, err := components.Aggregator.Get(ctx, userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No profile for user %s\n", userID)
		os.Exit(1)
	}
	fmt.Printf("user:       %s\n", prof.UserID)
	fmt.Printf("embeddings: %d\n", prof.EmbeddingsCount)
	fmt.Printf("dimension:  %d\n", len(prof.ProfileVector))
	fmt.Printf("updated:    %s\n", prof.LastUpdated.Format(time.RFC3339))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

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

	count, err := components.Store.CountEntries(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	stats := components.Index.Stats()

	if *outputFormat == "json" {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"entries": count,
			"index":   stats,
		})
		return
	}
	fmt.Printf("entries:       %d\n", count)
	fmt.Printf("index backend: %s\n", stats.Backend)
	fmt.Printf("vectors:       %d (unique ids: %d)\n", stats.TotalVectors, stats.UniqueIDs)
	fmt.Printf("dimension:     %d\n", stats.Dimension)
}

func printUsage() {
	fmt.Println(`kokoro - Semantic journal search and insight service

Usage:
  kokoro server [flags]                 Start the HTTP server
  kokoro search -user <id> <query>      Search a user's entries
  kokoro profile [flags] <user-id>      Show (or refresh) a vector profile
  kokoro status [flags]                 Show storage/index status
  kokoro version                        Show version
  kokoro help                           Show this help

Flags (see "kokoro <command> -h" for details):
  -config <path>   Config file path (default ` + defaultConfigPath + `)
  -debug           Enable debug logging (server)`)
}
