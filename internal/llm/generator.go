package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/service"
)

// Generator wraps a provider Client with caching, rate limiting, and retries.
// It satisfies Client itself so stages never see the difference.
type Generator struct {
	client      Client
	cache       *responseCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	provider    string
	model       string
	retryOpts   service.RetryOptions
}

// New creates a provider client from cfg and wraps it in a Generator.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Generator, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewGenerator(client, cfg, logger), nil
}

// NewGenerator wraps an existing client. Close releases the background
// goroutines of the cache and rate limiter.
func NewGenerator(client Client, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderGemini
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(provider)
	}

	return &Generator{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		provider:    provider,
		model:       model,
		retryOpts:   retryOpts,
	}
}

// Provider returns the configured provider name.
func (g *Generator) Provider() string { return g.provider }

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// GenerateJSON returns a cached reply when one exists, otherwise calls the
// provider under the rate limit with retries.
func (g *Generator) GenerateJSON(ctx context.Context, req Request) (Response, error) {
	key := cacheKey(g.model, req)
	if resp, ok := g.cache.get(key); ok {
		g.logger.Debug("llm cache hit", "provider", g.provider, "key", key[:12])
		return resp, nil
	}

	var resp Response
	start := time.Now()
	err := common.WithRetry(ctx, func() error {
		if err := g.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		var callErr error
		resp, callErr = g.client.GenerateJSON(ctx, req)
		return classify(callErr)
	}, g.retryOpts)
	if err != nil {
		return Response{}, err
	}

	g.logger.Debug("llm call complete",
		"provider", g.provider,
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", time.Since(start))

	g.cache.set(key, resp)
	return resp, nil
}

// Close stops the cache sweeper and the rate limiter.
func (g *Generator) Close() {
	g.cache.Close()
	g.rateLimiter.Close()
}
