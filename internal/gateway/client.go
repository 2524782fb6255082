// Package gateway fetches workspace, asset, and schedule snapshots from an
// upstream GraphQL endpoint and converts them into tagged results.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/takeru911/dagster/internal/metrics"
	"github.com/takeru911/dagster/internal/models"
)

// Config holds client settings.
type Config struct {
	// Endpoint is the GraphQL URL, e.g. "http://localhost:3000/graphql".
	Endpoint string
	// Timeout bounds each request. Zero means 10s.
	Timeout time.Duration
	// RateLimit caps requests per second across all fetches. Zero means 5;
	// negative disables limiting.
	RateLimit float64
	RateBurst int
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the upstream. All fetch methods degrade by returning the
// failure inside the result; only Ping reports a plain error.
type Client struct {
	gql     *graphql.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient validates cfg and builds a client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("gateway endpoint is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var opts []graphql.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, graphql.WithHTTPClient(cfg.HTTPClient))
	}
	gql := graphql.NewClient(cfg.Endpoint, opts...)
	gql.Log = func(s string) {
		logger.Debug("graphql client", zap.String("message", s))
	}

	limit := rate.Limit(cfg.RateLimit)
	burst := cfg.RateBurst
	if cfg.RateLimit == 0 {
		limit = 5
	}
	if cfg.RateLimit < 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		gql:     gql,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// run executes one GraphQL operation with rate limiting, a per-request
// timeout, and metrics.
func (c *Client) run(ctx context.Context, operation, doc string, vars map[string]interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := graphql.NewRequest(doc)
	for k, v := range vars {
		req.Var(k, v)
	}

	start := time.Now()
	err := c.gql.Run(reqCtx, req, out)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.UpstreamRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(operation, outcome).Inc()

	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("operation", operation),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return err
	}
	c.logger.Debug("upstream request",
		zap.String("operation", operation),
		zap.Duration("elapsed", elapsed))
	return nil
}

// classify maps a transport-or-GraphQL error onto an upstream error value.
func classify(err error) *models.UpstreamError {
	kind := models.ErrorTransport
	if strings.HasPrefix(err.Error(), "graphql:") {
		kind = models.ErrorUpstream
	}
	return &models.UpstreamError{Kind: kind, Message: err.Error()}
}

// FetchWorkspace retrieves the full workspace snapshot.
func (c *Client) FetchWorkspace(ctx context.Context) models.WorkspaceResult {
	var env workspaceEnvelope
	if err := c.run(ctx, "workspace", workspaceQuery, nil, &env); err != nil {
		return models.WorkspaceResult{Err: classify(err)}
	}
	ws, uerr := env.WorkspaceOrError.toModel(time.Now())
	if uerr != nil {
		return models.WorkspaceResult{Err: uerr}
	}
	return models.WorkspaceResult{Snapshot: ws}
}

// FetchAssets retrieves the asset catalog.
func (c *Client) FetchAssets(ctx context.Context) models.AssetsResult {
	var env assetsEnvelope
	if err := c.run(ctx, "assets", assetsQuery, nil, &env); err != nil {
		return models.AssetsResult{Err: classify(err)}
	}
	cat, uerr := env.AssetsOrError.toModel(time.Now())
	if uerr != nil {
		return models.AssetsResult{Err: uerr}
	}
	return models.AssetsResult{Catalog: cat}
}

// FetchSchedule retrieves one schedule's definition and live state.
func (c *Client) FetchSchedule(ctx context.Context, sel models.ScheduleSelector) models.ScheduleResult {
	vars := map[string]interface{}{
		"selector": map[string]interface{}{
			"repositoryLocationName": sel.LocationName,
			"repositoryName":         sel.RepositoryName,
			"scheduleName":           sel.ScheduleName,
		},
	}
	var env scheduleEnvelope
	if err := c.run(ctx, "schedule", scheduleQuery, vars, &env); err != nil {
		return models.ScheduleResult{Err: classify(err)}
	}
	return env.ScheduleOrError.toResult()
}

// Ping checks upstream reachability and returns its reported version.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var env versionEnvelope
	if err := c.run(ctx, "version", versionQuery, nil, &env); err != nil {
		return "", fmt.Errorf("upstream unreachable: %w", err)
	}
	return env.Version, nil
}
