// Package main is the kizami CLI entry point.
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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/kizami/internal/cli"
	"github.com/hyperjump/kizami/internal/config"
	"github.com/hyperjump/kizami/internal/embedding"
	"github.com/hyperjump/kizami/internal/indexer"
	"github.com/hyperjump/kizami/internal/models"
	"github.com/hyperjump/kizami/internal/store"
	"github.com/hyperjump/kizami/internal/watcher"
	"github.com/hyperjump/kizami/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kizami/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
		if _, statErr := os.Stat(path); statErr != nil {
			// No config anywhere; run on defaults.
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Pick up OPENAI_API_KEY and friends from a local .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "delete":
		runDelete()
	case "export":
		runExport()
	case "import":
		runImport()
	case "stats":
		runStats()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("kizami version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Embedder embedding.Embedder
	Store    *store.Store
	Indexer  *indexer.Indexer
}

func (c *Components) Close() {
	if c.Indexer != nil {
		c.Indexer.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// SaveSnapshot persists the store to the configured snapshot path.
func (c *Components) SaveSnapshot() error {
	return c.Store.SaveSnapshot(c.Config.Snapshot.Path)
}

// initializeComponents builds the embedder, store, and indexer from config.
// When loadSnapshot is true and a snapshot file exists, the store is restored
// from it.
func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool, loadSnapshot bool) (*Components, error) {
	embedder, err := buildEmbedder(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	storeOpts := []store.Option{}
	idxOpts := []indexer.IndexerOption{}
	if debug && logger != nil {
		storeOpts = append(storeOpts, store.WithLogger(logger))
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	st, err := store.New(cfg.Store.ToStore(), embedder, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if loadSnapshot {
		if _, statErr := os.Stat(cfg.Snapshot.Path); statErr == nil {
			if loadErr := st.LoadSnapshot(cfg.Snapshot.Path); loadErr != nil {
				return nil, fmt.Errorf("failed to load snapshot: %w", loadErr)
			}
			if logger != nil {
				logger.Info("snapshot loaded",
					zap.String("path", cfg.Snapshot.Path),
					zap.Int("chunks", st.Len()))
			}
		}
	}

	idx, err := indexer.NewIndexer(st, cfg.Chunking.ToChunker(), embedder, cfg.Pipeline.Workers, idxOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}

	return &Components{
		Config:   cfg,
		Logger:   logger,
		Embedder: embedder,
		Store:    st,
		Indexer:  idx,
	}, nil
}

func buildEmbedder(cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	var inner embedding.Embedder
	switch cfg.Provider {
	case "", "fingerprint":
		inner = embedding.NewFingerprintEmbedder(cfg.Dimensions)
	case "openai":
		e, err := embedding.NewOpenAIEmbedder(cfg.Model)
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if cfg.CacheSize > 0 {
		return embedding.NewCachedEmbedder(inner, cfg.CacheSize), nil
	}
	return inner, nil
}

func setup(configPath string, debugFlag bool, loadSnapshot bool) *Components {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if resolvedPath != "" {
		logger.Debug("config loaded", zap.String("config_path", resolvedPath), zap.Bool("debug", debugMode))
	}
	components, err := initializeComponents(cfg, logger, debugMode, loadSnapshot)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return components
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	text := fs.String("text", "", "index literal text instead of a path")
	_ = fs.Parse(os.Args[2:])

	if *text == "" && fs.NArg() < 1 {
		fmt.Println("Usage: kizami index [flags] <file-or-directory>")
		fmt.Println("       kizami index --text \"some text to index\"")
		os.Exit(1)
	}

	components := setup(*configPath, *debug, true)
	defer components.Close()
	ctx := context.Background()

	if *text != "" {
		n, err := components.Indexer.IndexText(ctx, *text, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
			os.Exit(1)
		}
		if err := components.SaveSnapshot(); err != nil {
			fmt.Fprintf(os.Stderr, "Snapshot save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d chunk(s)\n", n)
		return
	}

	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Indexer.IndexDirectory(ctx, path, components.Config.Pipeline.Extensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Indexing directory failed: %v\n", err)
			os.Exit(1)
		}
		if err := components.SaveSnapshot(); err != nil {
			fmt.Fprintf(os.Stderr, "Snapshot save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d file(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter
	n, err := components.Indexer.IndexFile(ctx, path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	if err := components.SaveSnapshot(); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d chunk(s) from %s\n", n, path)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "kizami search query -limit 5"
// would otherwise leave -limit unparsed.
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

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kizami search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kizami search neural networks
  kizami search "neural networks"            # same as above
  kizami search --limit 5 --threshold 0.5 distributed systems
  kizami search --output json your query     # structured JSON for other apps
`)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	limit := fs.Int("limit", 0, "number of results (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
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
	case "compact":
		format = cli.OutputCompact
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text, compact, or json\n", *outputFormat)
		os.Exit(1)
	}

	components := setup(*configPath, *debug, true)
	defer components.Close()

	results, err := components.Store.SearchByText(context.Background(), queryStr, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, queryStr, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kizami delete [flags] <file-path>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	components := setup(*configPath, *debug, true)
	defer components.Close()

	removed := components.Indexer.DeleteFile(path)
	if err := components.SaveSnapshot(); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d chunk(s) for %s\n", removed, path)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	indexName := fs.String("index", "kizami", "index name stamped into each bulk document")
	out := fs.String("o", "", "output file (default stdout)")
	_ = fs.Parse(os.Args[2:])

	components := setup(*configPath, *debug, true)
	defer components.Close()

	docs := components.Store.ExportBulkDocuments(*indexName)
	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	if *out != "" {
		fmt.Printf("Exported %d document(s) to %s\n", len(docs), *out)
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kizami import [flags] <bulk-json-file>")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}
	var docs []*models.BulkDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse input: %v\n", err)
		os.Exit(1)
	}

	components := setup(*configPath, *debug, true)
	defer components.Close()

	if err := components.Store.ImportBulkDocuments(docs); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	if err := components.SaveSnapshot(); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d document(s), store now holds %d chunk(s)\n", len(docs), components.Store.Len())
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	components := setup(*configPath, *debug, true)
	defer components.Close()

	stats := components.Store.GetStats()
	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		cfg := components.Store.Config()
		fmt.Printf("chunks:            %d\n", stats.ChunkCount)
		fmt.Printf("avg_dimension:     %.1f\n", stats.AverageDimension)
		fmt.Printf("est_memory_bytes:  %d\n", stats.EstimatedMemoryBytes)
		fmt.Println()
		fmt.Println("# configuration")
		fmt.Printf("metric:            %s\n", cfg.Metric)
		fmt.Printf("index_type:        %s\n", cfg.IndexType)
		fmt.Printf("max_results:       %d\n", cfg.MaxResults)
		fmt.Printf("snapshot_path:     %s\n", components.Config.Snapshot.Path)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	components := setup(*configPath, *debug, true)
	defer components.Close()
	cfg := components.Config
	logger := components.Logger

	if len(cfg.Watch.Directories) == 0 {
		fmt.Println("No watch directories configured; set watch.directories in config.yaml")
		os.Exit(1)
	}

	idx := components.Indexer
	exts := cfg.Watch.Extensions
	watchOpts := []watcher.WatcherOption{}
	if cfg.Debug || *debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.NewWatcher(
		cfg.Watch.Directories,
		exts,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := idx.IndexFile(context.Background(), path, exts); err != nil {
				logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
				return
			}
			if err := components.SaveSnapshot(); err != nil {
				logger.Warn("watch snapshot save failed", zap.Error(err))
			}
		},
		func(path string) {
			if removed := idx.DeleteFile(path); removed > 0 {
				if err := components.SaveSnapshot(); err != nil {
					logger.Warn("watch snapshot save failed", zap.Error(err))
				}
			}
		},
		watchOpts...,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()
	w.SyncExistingFiles()
	logger.Info("watching", zap.Strings("directories", w.Directories()), zap.Strings("extensions", exts))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if err := components.SaveSnapshot(); err != nil {
		logger.Warn("final snapshot save failed", zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`kizami - text segmentation and vector similarity retrieval

Usage:
  kizami index [flags] <file-or-dir>   Chunk, embed, and store a file or directory
  kizami index --text "..."            Index literal text
  kizami search [flags] <query>        Similarity search over stored chunks
  kizami delete [flags] <file>         Remove a file's chunks from the store
  kizami export [flags]                Export chunks as bulk JSON documents
  kizami import [flags] <file>         Import bulk JSON documents
  kizami stats [flags]                 Show store statistics
  kizami watch [flags]                 Watch configured directories and reindex on change
  kizami version                       Show version
  kizami help                          Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kizami/config.yaml,
                     falling back to ./config.yaml when present)
  --debug            Enable debug logging

Search Flags:
  --limit int        Number of results (default from config)
  --output string    Output format: text, compact, or json (default: text)

Export Flags:
  --index string     Index name stamped into each bulk document (default: kizami)
  -o string          Output file (default: stdout)

Examples:
  kizami index ./docs
  kizami index --text "a small note to remember"
  kizami search "neural networks"
  kizami search --output json --limit 5 distributed consensus
  kizami export -o chunks.json
  kizami stats
  kizami watch`)
}
