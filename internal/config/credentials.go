package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/subosito/gotenv"

	"github.com/Veraticus/atlas/internal/common"
)

// Credentials holds the provider API keys read from the environment.
type Credentials struct {
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables that are already set win. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	path = ExpandPath(path)
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadCredentials parses the provider keys from the environment.
func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := env.Parse(&c); err != nil {
		return Credentials{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

// ForProvider returns the API key for a provider. Gemini accepts either
// GEMINI_API_KEY or GOOGLE_API_KEY.
func (c Credentials) ForProvider(provider string) (string, error) {
	var key, name string
	switch strings.ToLower(provider) {
	case "gemini", "":
		key, name = c.GeminiAPIKey, "GEMINI_API_KEY or GOOGLE_API_KEY"
		if key == "" {
			key = c.GoogleAPIKey
		}
	case "openai":
		key, name = c.OpenAIAPIKey, "OPENAI_API_KEY"
	case "anthropic":
		key, name = c.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	default:
		return "", fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, provider)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", common.ErrMissingCredential, name)
	}
	return key, nil
}
