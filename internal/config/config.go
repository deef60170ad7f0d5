package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the aitracker server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Pipeline  PipelineConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites both headers.
	TrustProxyHeaders bool
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// AIConfig holds the four assistant backends plus the judge model, which
// runs on the Anthropic credentials.
type AIConfig struct {
	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	Gemini     ProviderConfig
	Perplexity ProviderConfig
	Judge      JudgeConfig
}

// ProviderConfig is shared by every backend adapter.
type ProviderConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

type JudgeConfig struct {
	Model     string
	MaxTokens int
}

type PipelineConfig struct {
	ProviderTimeout time.Duration
	JudgeTimeout    time.Duration
	MaxQuestions    int
}

type EmailConfig struct {
	SendGridAPIKey string
	BaseURL        string
	FromAddress    string
	FromName       string
	DashboardURL   string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("AITRACKER_PORT", 8080),
			Env:  envString("AITRACKER_ENV", "development"),

			TrustProxyHeaders: envBool("TRUST_PROXY_HEADERS", false),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			OpenAI: ProviderConfig{
				APIKey:    os.Getenv("OPENAI_API_KEY"),
				Model:     envString("OPENAI_MODEL", "gpt-4o"),
				BaseURL:   envString("OPENAI_BASE_URL", "https://api.openai.com"),
				MaxTokens: envInt("OPENAI_MAX_TOKENS", 2048),
			},
			Anthropic: ProviderConfig{
				APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
				Model:     envString("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
				BaseURL:   envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				MaxTokens: envInt("ANTHROPIC_MAX_TOKENS", 2048),
			},
			Gemini: ProviderConfig{
				APIKey:    os.Getenv("GEMINI_API_KEY"),
				Model:     envString("GEMINI_MODEL", "gemini-2.0-flash"),
				BaseURL:   envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
				MaxTokens: envInt("GEMINI_MAX_TOKENS", 2048),
			},
			Perplexity: ProviderConfig{
				APIKey:    os.Getenv("PERPLEXITY_API_KEY"),
				Model:     envString("PERPLEXITY_MODEL", "sonar"),
				BaseURL:   envString("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
				MaxTokens: envInt("PERPLEXITY_MAX_TOKENS", 2048),
			},
			Judge: JudgeConfig{
				Model:     envString("JUDGE_MODEL", "claude-sonnet-4-20250514"),
				MaxTokens: envInt("JUDGE_MAX_TOKENS", 4096),
			},
		},
		Pipeline: PipelineConfig{
			ProviderTimeout: envDurationSecs("PROVIDER_TIMEOUT_SECS", 90*time.Second),
			JudgeTimeout:    envDurationSecs("JUDGE_TIMEOUT_SECS", 120*time.Second),
			MaxQuestions:    envInt("MAX_QUESTIONS_PER_RUN", 50),
		},
		Email: EmailConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			BaseURL:        envString("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			FromAddress:    envString("EMAIL_FROM_ADDRESS", "reports@futureproof.work"),
			FromName:       envString("EMAIL_FROM_NAME", "FutureProof"),
			DashboardURL:   envString("DASHBOARD_URL", "https://ai.futureproof.work"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	keys := []struct {
		env string
		cfg ProviderConfig
	}{
		{"OPENAI", c.AI.OpenAI},
		{"ANTHROPIC", c.AI.Anthropic},
		{"GEMINI", c.AI.Gemini},
		{"PERPLEXITY", c.AI.Perplexity},
	}
	for _, k := range keys {
		if k.cfg.APIKey == "" {
			return fmt.Errorf("%s_API_KEY is required", k.env)
		}
		if !strings.HasPrefix(k.cfg.BaseURL, "http://") && !strings.HasPrefix(k.cfg.BaseURL, "https://") {
			return fmt.Errorf("%s_BASE_URL must start with http:// or https://, got %q", k.env, k.cfg.BaseURL)
		}
		if k.cfg.MaxTokens <= 0 {
			return fmt.Errorf("%s_MAX_TOKENS must be positive, got %d", k.env, k.cfg.MaxTokens)
		}
	}

	if c.Pipeline.MaxQuestions < 1 {
		return fmt.Errorf("MAX_QUESTIONS_PER_RUN must be at least 1, got %d", c.Pipeline.MaxQuestions)
	}
	if c.Pipeline.ProviderTimeout <= 0 || c.Pipeline.JudgeTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECS and JUDGE_TIMEOUT_SECS must be positive")
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.RateLimit.RequestsPerMinute)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
