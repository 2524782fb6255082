// Package main is the dagit companion CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/takeru911/dagster/internal/cli"
	"github.com/takeru911/dagster/internal/config"
	"github.com/takeru911/dagster/internal/gateway"
	"github.com/takeru911/dagster/internal/index"
	"github.com/takeru911/dagster/internal/models"
	"github.com/takeru911/dagster/internal/schedule"
	"github.com/takeru911/dagster/internal/search"
	"github.com/takeru911/dagster/internal/server"
	"github.com/takeru911/dagster/internal/storage"
	"github.com/takeru911/dagster/internal/watch"
	"github.com/takeru911/dagster/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/dagit/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "dagit server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded (for watching, etc.).
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
	case "search":
		runSearch()
	case "schedules":
		runSchedules()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("dagit version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (fetch traffic, session state, etc.)")
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

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// Seed before starting so cached snapshots serve until the live
	// fetch lands.
	if components.Store != nil {
		search.SeedFromStore(runCtx, components.Session(), components.Store, logger)
	}
	components.Session().Start(runCtx)
	components.Registry.Start(runCtx)

	// Background refresh of issued index slots. Reads the session through
	// the accessor so a hot-swapped session is the one refreshed.
	go func() {
		ticker := time.NewTicker(cfg.Search.RefreshInterval())
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				components.Session().Refresh()
			}
		}
	}()

	srv := server.NewServer(
		components.Session(),
		components.Registry,
		components.Store,
		&cfg.Server,
		logger,
		components.Gateway.Ping,
	)
	srv.EnableConfigUpdates(resolvedConfigPath)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	var reloadMu sync.Mutex
	activeCfg := cfg
	cw := watch.NewConfigWatcher(resolvedConfigPath, func(next *config.Config) {
		reloadMu.Lock()
		defer reloadMu.Unlock()
		for _, section := range restartSections(activeCfg, next) {
			logger.Warn("config change takes effect after restart", zap.String("section", section))
		}
		if searchConfigChanged(activeCfg, next) {
			sess := search.NewSession(components.Source, sessionOptions(next, logger)...)
			if components.Store != nil {
				search.SeedFromStore(runCtx, sess, components.Store, logger)
			}
			sess.Start(runCtx)
			prev := srv.UpdateSession(sess)
			components.SwapSession(sess)
			if prev != nil {
				_ = prev.Close()
			}
			logger.Info("search session rebuilt",
				zap.Int("result_limit", next.Search.ResultLimit),
				zap.Int("fuzziness", next.Search.Fuzziness),
				zap.Bool("include_resources", next.Search.IncludeResources))
		}
		activeCfg = next
	}, watch.WithLogger(logger))
	if err := cw.Start(runCtx); err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
	} else {
		defer cw.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	runCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage and query hints.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: dagit search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Results come from the workspace index first, then the asset index.
  • Use --assets=false for workspace objects only (skips the asset index fetch).
  • Use --server "" to fetch straight from the upstream instead of a running server.
  • --output json emits the raw API response for other tools.

Examples:
  dagit search daily rollup
  dagit search "daily rollup"              # same as above
  dagit search --assets=false nightly      # jobs, schedules, sensors only
  dagit search --output json rollup        # structured JSON
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting (e.g. "daily rollup" vs daily rollup).
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// serverURLFromConfig loads config at path and returns the URL the server
// listens on, for use as the default -server value. On load failure, the
// standard local URL is returned.
func serverURLFromConfig(path string) string {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return "http://localhost:8080"
	}
	return fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "dagit search \"query\" -output json"
// would otherwise leave -output unparsed.
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
	configPath := searchConfigPathFromArgs(searchArgs, defaultConfigPath)
	defaultServerURL := serverURLFromConfig(configPath)

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = fetch from the upstream directly)")
	includeAssets := fs.Bool("assets", true, "include asset results from the secondary index")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
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

	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	req := &models.SearchRequest{Query: queryStr, IncludeSecondary: *includeAssets}

	if *serverURL != "" {
		// Use the HTTP API when the server is running; its indexes are
		// already warm.
		response, err := searchViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		// Re-query while an index fetch is in flight so a freshly started
		// server still answers with complete results.
		for attempt := 0; response.Loading && attempt < 8; attempt++ {
			time.Sleep(250 * time.Millisecond)
			retry, retryErr := searchViaHTTP(*serverURL, req)
			if retryErr != nil {
				break
			}
			response = retry
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct upstream access (when the server is not running).
	cfg, _, err := loadConfig(*configPathFlag)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess := components.Session()
	if components.Store != nil {
		search.SeedFromStore(ctx, sess, components.Store, logger)
	}
	sess.Start(ctx)
	sess.Search(queryStr, *includeAssets) // issues the secondary fetch
	if err := sess.WaitSettled(ctx); err != nil {
		logger.Warn("index fetch did not settle; results may be partial", zap.Error(err))
	}

	start := time.Now()
	results := sess.Search(queryStr, *includeAssets)
	if results == nil {
		results = []models.ScoredRecord{}
	}
	response := &models.SearchResponse{
		Query:     queryStr,
		Loading:   sess.Loading(),
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runSchedules() {
	configPath := searchConfigPathFromArgs(os.Args[2:], defaultConfigPath)
	defaultServerURL := serverURLFromConfig(configPath)

	fs := flag.NewFlagSet("schedules", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = fetch from the upstream directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		list, err := schedulesViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Schedule listing failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteScheduleRows(os.Stdout, list, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPathFlag)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess := components.Session()
	if components.Store != nil {
		search.SeedFromStore(ctx, sess, components.Store, logger)
	}
	sess.Start(ctx)
	if err := sess.WaitSettled(ctx); err != nil {
		logger.Warn("workspace fetch did not settle", zap.Error(err))
	}
	ws := sess.Workspace()
	if ws == nil {
		fmt.Fprintf(os.Stderr, "Workspace fetch failed; is the upstream reachable?\n")
		os.Exit(1)
	}
	if err := cli.WriteScheduleRows(os.Stdout, scheduleListFromWorkspace(ws), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func schedulesViaHTTP(serverURL string) (*models.ScheduleList, error) {
	resp, err := http.Get(serverURL + "/api/v1/schedules")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var list models.ScheduleList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &list, nil
}

// scheduleListFromWorkspace builds static schedule rows from a workspace
// snapshot. One-shot listings have no watchers, so every row derives from
// the snapshot alone.
func scheduleListFromWorkspace(ws *models.Workspace) *models.ScheduleList {
	list := &models.ScheduleList{Schedules: []models.ScheduleRow{}}
	if ws == nil {
		return list
	}
	list.FetchedAt = ws.FetchedAt
	for li := range ws.Locations {
		loc := &ws.Locations[li]
		for ri := range loc.Repositories {
			repo := &loc.Repositories[ri]
			for _, sum := range repo.Schedules {
				sel := models.ScheduleSelector{
					LocationName:   loc.Name,
					RepositoryName: repo.Name,
					ScheduleName:   sum.Name,
				}
				list.Schedules = append(list.Schedules, schedule.PlaceholderRow(sel, sum, repo))
			}
		}
	}
	return list
}

func runStatus() {
	configPath := searchConfigPathFromArgs(os.Args[2:], defaultConfigPath)
	defaultServerURL := serverURLFromConfig(configPath)

	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = probe the upstream directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	var report *models.StatusReport
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		report = res
	} else {
		cfg, _, err := loadConfig(*configPathFlag)
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
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sess := components.Session()
		sess.Start(ctx)
		if err := sess.WaitSettled(ctx); err != nil {
			logger.Warn("workspace fetch did not settle", zap.Error(err))
		}
		st := sess.Status()
		report = &models.StatusReport{
			Bootstrap:      st.Bootstrap,
			Secondary:      st.Secondary,
			Loading:        st.Loading,
			ActiveWatchers: components.Registry.ActiveCount(),
		}
		if components.Store != nil {
			report.CacheBytes = components.Store.SizeBytes()
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		if v, pingErr := components.Gateway.Ping(pingCtx); pingErr == nil {
			report.Version = v
		}
	}

	if err := cli.WriteStatus(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*models.StatusReport, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var report models.StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &report, nil
}

// parseOutputFormat maps an -output flag value to a format. The second
// return is false for unknown values.
func parseOutputFormat(name string) (cli.OutputFormat, bool) {
	switch name {
	case "", "text":
		return cli.OutputText, true
	case "json":
		return cli.OutputJSON, true
	}
	return cli.OutputText, false
}

// restartSections returns the config sections that changed between prev and
// next but only take effect after a restart.
func restartSections(prev, next *config.Config) []string {
	var sections []string
	if prev.Server != next.Server {
		sections = append(sections, "server")
	}
	if prev.Upstream != next.Upstream {
		sections = append(sections, "upstream")
	}
	if prev.Schedules != next.Schedules {
		sections = append(sections, "schedules")
	}
	if prev.Search.RefreshIntervalSeconds != next.Search.RefreshIntervalSeconds {
		sections = append(sections, "search.refresh_interval")
	}
	if prev.Cache != next.Cache {
		sections = append(sections, "cache")
	}
	if prev.Debug != next.Debug {
		sections = append(sections, "debug")
	}
	return sections
}

// searchConfigChanged reports whether the search section changed in a way
// that requires rebuilding the session.
func searchConfigChanged(prev, next *config.Config) bool {
	return prev.Search.ResultLimit != next.Search.ResultLimit ||
		prev.Search.Fuzziness != next.Search.Fuzziness ||
		prev.Search.IncludeResources != next.Search.IncludeResources ||
		prev.Search.HighlightOrDefault() != next.Search.HighlightOrDefault()
}

// sessionOptions builds the session options for the search section of cfg.
func sessionOptions(cfg *config.Config, logger *zap.Logger) []search.SessionOption {
	return []search.SessionOption{
		search.WithLogger(logger),
		search.WithIncludeResources(cfg.Search.IncludeResources),
		search.WithIndexOptions(index.Options{
			Limit:     cfg.Search.ResultLimit,
			Fuzziness: cfg.Search.Fuzziness,
			Highlight: cfg.Search.HighlightOrDefault(),
		}),
	}
}

// Components holds the initialized services shared by the server and the
// direct CLI modes.
type Components struct {
	Gateway  *gateway.Client
	Store    storage.Store
	Source   search.Source
	Registry *schedule.Registry

	mu      sync.RWMutex
	session *search.Session
}

// Session returns the search session currently serving queries.
func (c *Components) Session() *search.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SwapSession installs next as the serving session and returns the previous
// one so the caller can close it after the handoff.
func (c *Components) SwapSession(next *search.Session) *search.Session {
	c.mu.Lock()
	prev := c.session
	c.session = next
	c.mu.Unlock()
	return prev
}

func (c *Components) Close() {
	if c.Registry != nil {
		c.Registry.Stop()
	}
	if s := c.Session(); s != nil {
		_ = s.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	gw, err := gateway.NewClient(&gateway.Config{
		Endpoint:  cfg.Upstream.Endpoint,
		Timeout:   cfg.Upstream.Timeout(),
		RateLimit: cfg.Upstream.RateLimit,
		RateBurst: cfg.Upstream.RateBurst,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gateway: %w", err)
	}

	var store storage.Store
	if !cfg.Cache.Disabled {
		st, storeErr := storage.NewSnapshotStore(cfg.Cache.DatabasePath)
		if storeErr != nil {
			// Run without the cache when it cannot be opened.
			logger.Warn("snapshot cache unavailable",
				zap.String("path", cfg.Cache.DatabasePath),
				zap.Error(storeErr))
		} else {
			store = st
		}
	}

	var source search.Source = gw
	if store != nil {
		source = search.NewCachingSource(gw, store, logger)
	}

	c := &Components{
		Gateway: gw,
		Store:   store,
		Source:  source,
		session: search.NewSession(source, sessionOptions(cfg, logger)...),
	}
	// The resolver follows the serving session so rebuilt sessions keep
	// classifying rows from the freshest snapshot.
	resolve := func(addr models.RepoAddress) *models.Repository {
		return c.Session().Workspace().FindRepository(addr)
	}
	c.Registry = schedule.NewRegistry(gw, resolve,
		cfg.Schedules.PollInterval(), cfg.Schedules.IdleTTL(),
		schedule.WithLogger(logger))
	return c, nil
}

func printUsage() {
	fmt.Println(`dagit - workspace search and schedule monitor for Dagster

Usage:
  dagit server [flags]            Start the HTTP server
  dagit search [flags] <query>    Search jobs, schedules, sensors, and assets
  dagit schedules [flags]         List schedule rows from the workspace
  dagit status [flags]            Show index, watcher, and cache status
  dagit version                   Show version
  dagit help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/dagit/config.yaml)
  --debug            Enable debug logging (fetch traffic, session state, etc.)

Search Flags:
  --config string    Config file path (for direct upstream mode; also sets the default server URL)
  --server string    Server URL (default from config, or http://localhost:8080). Use empty (--server "") to fetch from the upstream directly.
  --assets           Include asset results from the secondary index (default: true)
  --output string    Output format: text or json (default: text)

Schedules Flags:
  --config string    Config file path (for direct upstream mode)
  --server string    Server URL. Use empty (--server "") to fetch from the upstream directly.
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct upstream mode)
  --server string    Server URL. Use empty (--server "") to probe the upstream directly.
  --output string    Output format: text or json (default: text)

Examples:
  dagit server
  dagit search "daily rollup"
  dagit search --assets=false nightly
  dagit search --output json rollup     # structured JSON for other apps
  dagit schedules
  dagit status
  dagit status --output json`)
}
