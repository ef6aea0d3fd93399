package config

import (
	"os"
	"strconv"
	"time"

	"vcfo/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Paths    PathConfig
	Agent    AgentConfig
	Database DatabaseConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// AIConfig holds LLM related settings. An empty key disables the QA agent and
// the document advisor; structured analytics keep working without it.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// PathConfig holds file system paths
type PathConfig struct {
	UploadDir     string
	StaticDir     string
	KnowledgeBase string
	IndexFile     string
	ExportDir     string
}

// AgentConfig bounds the tabular QA agent
type AgentConfig struct {
	MaxIterations int
	MaxExecution  time.Duration
}

// DatabaseConfig holds the optional Postgres session store settings.
// An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		AI: AIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:   getEnvIntOrDefault("OPENAI_MAX_TOKENS", 1024),
			Temperature: getEnvFloatOrDefault("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvDurationOrDefault("OPENAI_TIMEOUT", 60*time.Second),
		},
		Paths: PathConfig{
			UploadDir:     getEnvOrDefault("UPLOAD_DIR", "uploads"),
			StaticDir:     getEnvOrDefault("STATIC_DIR", "static"),
			KnowledgeBase: getEnvOrDefault("KNOWLEDGE_BASE_DIR", "knowledge_base"),
			IndexFile:     getEnvOrDefault("ADVISOR_INDEX_FILE", "advisor_index.json"),
			ExportDir:     getEnvOrDefault("EXPORT_DIR", "."),
		},
		Agent: AgentConfig{
			MaxIterations: getEnvIntOrDefault("AGENT_MAX_ITERATIONS", 20),
			MaxExecution:  getEnvDurationOrDefault("AGENT_MAX_EXECUTION", 90*time.Second),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if cfg.Paths.UploadDir == "" || cfg.Paths.StaticDir == "" {
		return errors.ConfigInvalid("UPLOAD_DIR and STATIC_DIR must not be empty")
	}
	if cfg.Agent.MaxIterations <= 0 {
		return errors.ConfigInvalid("AGENT_MAX_ITERATIONS must be positive")
	}
	if cfg.Agent.MaxExecution <= 0 {
		return errors.ConfigInvalid("AGENT_MAX_EXECUTION must be positive")
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
