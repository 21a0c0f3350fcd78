// Package main is the animerec CLI entry point.
package main

import (
	"bytes"
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

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/artifacts"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/cli"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/config"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/dataprep"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/recommend"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/server"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/watcher"
	"github.com/Vbalimidi/Anime-Recomender-System/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/animerec/config.yaml"

// snapshotRetireGrace is how long a swapped-out snapshot keeps serving
// in-flight requests before it is closed.
const snapshotRetireGrace = 90 * time.Second

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "animerec server" from the project dir uses the
// project's config. Returns the config and the path actually loaded.
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "hybrid":
		runHybrid()
	case "search":
		runSearch()
	case "prepare":
		runPrepare()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("animerec version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (artifact reloads, per-request detail)")
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

	snap, err := artifacts.Load(&cfg.Artifacts, logger)
	if err != nil {
		logger.Fatal("Failed to load artifacts", zap.Error(err))
	}
	provider := artifacts.NewProvider(snap)
	defer func() {
		if cur := provider.Current(); cur != nil {
			_ = cur.Close()
		}
	}()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		watchOpts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.New(cfg.Artifacts.Dir, func() {
			next, loadErr := artifacts.Load(&cfg.Artifacts, logger)
			if loadErr != nil {
				// Keep serving the current snapshot until a full set lands.
				logger.Warn("artifact reload failed", zap.Error(loadErr))
				return
			}
			// Retire the old snapshot only after in-flight requests have
			// drained; grace must exceed the 60s request timeout.
			provider.Replace(next, snapshotRetireGrace)
			logger.Info("artifacts reloaded", zap.String("snapshot_id", next.ID))
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start artifact watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(provider, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQueryName joins all positional args with spaces so multi-word anime
// names work the same with or without shell quoting.
func buildQueryName(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the
// positional argument to the front of the slice so that flag.Parse() sees
// them. Go's flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
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

func parseOutputFormat(name string) (cli.OutputFormat, error) {
	switch name {
	case "json":
		return cli.OutputJSON, nil
	case "text":
		return cli.OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", name)
	}
}

func runRecommend() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:5000", "server URL (empty = load artifacts directly)")
	limit := fs.Int("limit", 10, "number of recommendations")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	name := buildQueryName(fs.Args())
	if name == "" {
		fmt.Println("Usage: animerec recommend [flags] <anime name>")
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	query := &models.AnimeQuery{Name: name, Limit: *limit}

	var response *models.AnimeResponse
	if *serverURL != "" {
		response, err = recommendViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, snap, cleanup := loadSnapshot(*configPath)
		defer cleanup()
		response, err = recommendDirect(snap, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteAnimeResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func recommendDirect(snap *artifacts.Snapshot, query *models.AnimeQuery) (*models.AnimeResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	results, err := snap.Anime.Recommend(context.Background(), query.Name, query.Limit)
	if err != nil {
		// Mirror the API: a miss yields an empty list with suggestions.
		return &models.AnimeResponse{
			Query:       query.Name,
			Results:     []models.RankedResult{},
			Suggestions: snap.Catalog.Suggest(query.Name, 3),
			QueryTime:   time.Since(start).Milliseconds(),
		}, nil
	}
	return &models.AnimeResponse{
		Query:     query.Name,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

func recommendViaHTTP(serverURL string, query *models.AnimeQuery) (*models.AnimeResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/recommend/anime", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.AnimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runHybrid() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("hybrid", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:5000", "server URL (empty = load artifacts directly)")
	limit := fs.Int("limit", 10, "number of recommendations")
	userWeight := fs.Float64("user-weight", 0, "weight for collaborative votes (0 = config default)")
	contentWeight := fs.Float64("content-weight", 0, "weight for content expansion hits (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: animerec hybrid [flags] <user id>")
		os.Exit(1)
	}
	userID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Printf("Invalid user id %q\n", fs.Arg(0))
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	query := &models.HybridQuery{
		UserID:        userID,
		UserWeight:    *userWeight,
		ContentWeight: *contentWeight,
		Limit:         *limit,
	}

	var response *models.HybridResponse
	if *serverURL != "" {
		response, err = hybridViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, snap, cleanup := loadSnapshot(*configPath)
		defer cleanup()
		response, err = hybridDirect(cfg, snap, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteHybridResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func hybridDirect(cfg *config.Config, snap *artifacts.Snapshot, query *models.HybridQuery) (*models.HybridResponse, error) {
	applyRecommendDefaults(query, &cfg.Recommend)
	if err := query.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	results, err := snap.Hybrid.Recommend(context.Background(), query.UserID, recommend.HybridOptions{
		UserWeight:    query.UserWeight,
		ContentWeight: query.ContentWeight,
		TopKUsers:     query.TopKUsers,
		TopKContent:   query.TopKContent,
		Limit:         query.Limit,
	})
	if err != nil {
		return &models.HybridResponse{
			UserID:    query.UserID,
			Results:   []models.HybridResult{},
			QueryTime: time.Since(start).Milliseconds(),
		}, nil
	}
	return &models.HybridResponse{
		UserID:    query.UserID,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

func hybridViaHTTP(serverURL string, query *models.HybridQuery) (*models.HybridResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/recommend/hybrid", "application/json", bytes.NewReader(body))
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

func runSearch() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:5000", "server URL (empty = load artifacts directly)")
	limit := fs.Int("limit", 10, "number of matches")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	q := buildQueryName(fs.Args())
	if q == "" {
		fmt.Println("Usage: animerec search [flags] <query>")
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var results []models.NameSearchResult
	if *serverURL != "" {
		results, err = searchViaHTTP(*serverURL, q, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, snap, cleanup := loadSnapshot(*configPath)
		defer cleanup()
		results, err = snap.Catalog.Search(q, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteNameSearchResults(os.Stdout, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, query string, limit int) ([]models.NameSearchResult, error) {
	u := fmt.Sprintf("%s/api/v1/animes/search?q=%s&limit=%d", serverURL, url.QueryEscape(query), limit)
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Results []models.NameSearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Results, nil
}

func runPrepare() {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	ratingsPath := fs.String("ratings", "", "raw ratings table (csv or xlsx)")
	animePath := fs.String("anime", "", "raw anime metadata table (csv or xlsx)")
	synopsisPath := fs.String("synopsis", "", "raw synopsis table (csv or xlsx)")
	minRatings := fs.Int("min-ratings", 0, "minimum ratings per user (0 = default)")
	_ = fs.Parse(os.Args[2:])

	if *ratingsPath == "" || *animePath == "" || *synopsisPath == "" {
		fmt.Println("Usage: animerec prepare --ratings <file> --anime <file> --synopsis <file>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.Artifacts.Dir, 0755); err != nil {
		fmt.Printf("Failed to create artifacts dir: %v\n", err)
		os.Exit(1)
	}

	summary, err := dataprep.Run(&cfg.Artifacts, dataprep.Options{
		RatingsPath:       *ratingsPath,
		AnimePath:         *animePath,
		SynopsisPath:      *synopsisPath,
		MinRatingsPerUser: *minRatings,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prepare failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Prepared artifacts in %s\n", cfg.Artifacts.Dir)
	fmt.Printf("  users:    %d\n", summary.Users)
	fmt.Printf("  animes:   %d\n", summary.Animes)
	fmt.Printf("  ratings:  %d\n", summary.Ratings)
	fmt.Printf("  catalog:  %d\n", summary.Catalog)
	fmt.Printf("  synopses: %d\n", summary.Synopses)
	fmt.Println("Embedding matrices come from the offline training run; place them in the artifacts dir before serving.")
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	SnapshotID string                 `json:"snapshot_id"`
	LoadedAt   string                 `json:"loaded_at"`
	Animes     int                    `json:"animes"`
	Users      int                    `json:"users"`
	Dimensions int                    `json:"dimensions"`
	Catalog    int                    `json:"catalog"`
	Ratings    int                    `json:"ratings"`
	Config     map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:5000", "server URL (empty = load artifacts directly)")
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
		_, snap, cleanup := loadSnapshot(*configPath)
		status = statusResponse{
			SnapshotID: snap.ID,
			LoadedAt:   snap.LoadedAt.UTC().Format(time.RFC3339),
			Animes:     snap.AnimeMatrix.Rows(),
			Users:      snap.UserMatrix.Rows(),
			Dimensions: snap.AnimeMatrix.Dims(),
			Catalog:    snap.Catalog.Len(),
			Ratings:    snap.Ratings.Len(),
		}
		cleanup()
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
		fmt.Printf("snapshot_id:  %s\n", status.SnapshotID)
		fmt.Printf("loaded_at:    %s\n", status.LoadedAt)
		fmt.Printf("animes:       %d   # rows in the anime embedding matrix\n", status.Animes)
		fmt.Printf("users:        %d   # rows in the user embedding matrix\n", status.Users)
		fmt.Printf("dimensions:   %d\n", status.Dimensions)
		fmt.Printf("catalog:      %d   # metadata records\n", status.Catalog)
		fmt.Printf("ratings:      %d\n", status.Ratings)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
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

// loadSnapshot loads the config and the artifacts it names for direct
// (serverless) commands. Exits on any failure.
func loadSnapshot(configPath string) (*config.Config, *artifacts.Snapshot, func()) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	snap, err := artifacts.Load(&cfg.Artifacts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load artifacts: %v\n", err)
		os.Exit(1)
	}
	return cfg, snap, func() {
		_ = snap.Close()
		_ = logger.Sync()
	}
}

// applyRecommendDefaults fills unset hybrid query fields from the config so
// the direct path behaves like the server's form path.
func applyRecommendDefaults(query *models.HybridQuery, cfg *config.RecommendConfig) {
	if query.UserWeight == 0 && query.ContentWeight == 0 {
		query.UserWeight = cfg.UserWeight
		query.ContentWeight = cfg.ContentWeight
	}
	if query.TopKUsers == 0 {
		query.TopKUsers = cfg.TopKUsers
	}
	if query.TopKContent == 0 {
		query.TopKContent = cfg.TopKContent
	}
}

func printUsage() {
	fmt.Println(`animerec - Anime recommendation engine over precomputed embeddings

Usage:
  animerec server [flags]             Start the HTTP server
  animerec recommend [flags] <name>   Content-based recommendations for an anime
  animerec hybrid [flags] <user id>   Hybrid recommendations for a user
  animerec search [flags] <query>     Fuzzy anime name search
  animerec prepare [flags]            Build serving artifacts from the raw dataset
  animerec status [flags]             Show snapshot and artifact status
  animerec version                    Show version
  animerec help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/animerec/config.yaml)
  --debug            Enable debug logging

Recommend / Hybrid / Search Flags:
  --config string    Config file path (for direct artifact mode)
  --server string    Server URL (default: http://localhost:5000). Use empty (--server "") to load artifacts directly.
  --limit int        Number of results (default: 10)
  --output string    Output format: text or json (default: text)

Hybrid Flags:
  --user-weight float     Weight for collaborative votes (default from config)
  --content-weight float  Weight for content expansion hits (default from config)

Prepare Flags:
  --ratings string    Raw ratings table (csv or xlsx)
  --anime string      Raw anime metadata table (csv or xlsx)
  --synopsis string   Raw synopsis table (csv or xlsx)
  --min-ratings int   Minimum ratings per user (default: 400)

Examples:
  animerec server
  animerec recommend "Steins;Gate"
  animerec recommend --limit 5 --output json Monster
  animerec hybrid 12345
  animerec search cowboy
  animerec prepare --ratings rating_complete.csv --anime anime.csv --synopsis anime_with_synopsis.csv
  animerec status --output json`)
}
