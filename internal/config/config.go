// Package config resolves runtime settings from the environment, with .env
// support for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	LLM    LLMConfig
	DuckDB DuckDBConfig
}

type LLMConfig struct {
	// Provider selects the backend: ollama, anthropic, gemini, or fake.
	Provider string

	OllamaBaseURL string
	OllamaModel   string

	AnthropicAPIKey string
	AnthropicModel  string

	GeminiAPIKey string
	GeminiModel  string

	Timeout     time.Duration
	MaxAttempts int
	CacheSize   int
	RPS         int
}

type DuckDBConfig struct {
	// Path is the database file; empty means in-memory.
	Path string
	Seed bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("API_PORT"))
	if port == "" {
		port = ":8081"
	} else if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:   port,
		Env:    env,
		LLM:    loadLLMConfig(),
		DuckDB: loadDuckDBConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		// Keep the zero-setup path working: Ollama needs no key.
		provider = "ollama"
	}
	return LLMConfig{
		Provider:        provider,
		OllamaBaseURL:   firstNonEmpty(strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")), "http://localhost:11434"),
		OllamaModel:     firstNonEmpty(strings.TrimSpace(os.Getenv("OLLAMA_MODEL")), "codellama"),
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL")), "claude-sonnet-4-20250514"),
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:     firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "gemini-2.0-flash"),
		Timeout:         envDuration("LLM_TIMEOUT_SECONDS", 120*time.Second),
		MaxAttempts:     envInt("LLM_MAX_ATTEMPTS", 2),
		CacheSize:       envInt("LLM_CACHE_SIZE", 128),
		RPS:             envInt("LLM_RPS", 0),
	}
}

func loadDuckDBConfig(env string) DuckDBConfig {
	seed := true
	if raw := strings.TrimSpace(os.Getenv("DUCKDB_SEED")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			seed = v
		}
	}
	return DuckDBConfig{
		Path: strings.TrimSpace(os.Getenv("DUCKDB_PATH")),
		Seed: seed,
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
