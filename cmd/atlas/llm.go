package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/config"
	"github.com/Veraticus/atlas/internal/llm"
)

// llmConfig builds the provider configuration from viper settings. The API
// key is read from the environment.
func llmConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = llm.ProviderGemini
	}

	cfg := llm.Config{
		Provider:    provider,
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Timeout:     viper.GetDuration("llm.timeout"),
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel(provider)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return llm.Config{}, err
	}
	cfg.APIKey, err = creds.ForProvider(provider)
	if err != nil {
		return llm.Config{}, common.NewUserError(
			fmt.Sprintf("No API key for %s. Add it to %s or export it, or run with --mock.",
				provider, viper.GetString("env_file")), err)
	}

	return cfg, nil
}

// createLLMClient creates the configured provider client. Callers must Close it.
func createLLMClient(ctx context.Context) (*llm.Generator, error) {
	cfg, err := llmConfig()
	if err != nil {
		return nil, err
	}

	generator, err := llm.New(ctx, cfg, slog.Default())
	if err != nil {
		return nil, err
	}

	slog.Debug("LLM client ready", "provider", generator.Provider(), "model", generator.Model())
	return generator, nil
}
