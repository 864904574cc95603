package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultAzureAPIVersion = "2025-04-01-preview"

// Config holds all configuration for the knowledge base server and CLI.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	LLM            LLMConfig            `yaml:"llm"`
	EmbeddingCache EmbeddingCacheConfig `yaml:"embedding_cache"`
	Retrieval      RetrievalConfig      `yaml:"retrieval"`
	Chat           ChatConfig           `yaml:"chat"`
	Sessions       SessionsConfig       `yaml:"sessions"`
	Importer       ImporterConfig       `yaml:"importer"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // "postgres" or "sqlite"
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type LLMConfig struct {
	Provider       string        `yaml:"provider"` // "openai" or "azure"
	BaseURL        string        `yaml:"base_url"`
	APIVersion     string        `yaml:"api_version"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	APIKey         string        `yaml:"-"`
	EmbeddingModel string        `yaml:"embedding_model"`
	ChatModel      string        `yaml:"chat_model"`
	Timeout        time.Duration `yaml:"timeout"`
}

// EmbeddingCacheConfig enables the on-disk embedding cache when Path is set.
type EmbeddingCacheConfig struct {
	Path string `yaml:"path"`
}

type RetrievalConfig struct {
	CandidateLimit int `yaml:"candidate_limit"`
	DefaultTopK    int `yaml:"default_top_k"`
}

type ChatConfig struct {
	TopK         int     `yaml:"top_k"`
	HistoryTurns int     `yaml:"history_turns"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

type SessionsConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
}

type ImporterConfig struct {
	Extensions []string `yaml:"extensions"`
	Author     string   `yaml:"author"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "",
			Port:           "8000",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    120 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "knowledgebase.db",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			APIKeyEnv:      "OPENAI_API_KEY",
			EmbeddingModel: "text-embedding-ada-002",
			ChatModel:      "gpt-4o",
			Timeout:        30 * time.Second,
		},
		Retrieval: RetrievalConfig{
			CandidateLimit: 1000,
			DefaultTopK:    5,
		},
		Chat: ChatConfig{
			TopK:         3,
			HistoryTurns: 10,
			Temperature:  0.7,
			MaxTokens:    500,
		},
		Sessions: SessionsConfig{
			CookieName: "session_token",
			TTL:        60 * time.Minute,
		},
		Importer: ImporterConfig{
			Extensions: []string{".md", ".txt", ".pdf"},
		},
	}
}

// Load reads a YAML file over the defaults and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides file settings with the deployment environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if url := getenv("DATABASE_URL"); url != "" {
		if strings.HasPrefix(url, "postgres://") {
			url = "postgresql://" + strings.TrimPrefix(url, "postgres://")
		}
		if strings.HasPrefix(url, "postgresql://") {
			c.Database.Driver = "postgres"
		}
		c.Database.DSN = url
	}

	if endpoint := getenv("AZURE_OPENAI_ENDPOINT"); endpoint != "" {
		c.LLM.Provider = "azure"
		c.LLM.BaseURL = endpoint
		if c.LLM.APIVersion == "" {
			c.LLM.APIVersion = defaultAzureAPIVersion
		}
		if c.LLM.APIKeyEnv == "" || c.LLM.APIKeyEnv == "OPENAI_API_KEY" {
			c.LLM.APIKeyEnv = "AZURE_OPENAI_API_KEY"
		}
	}

	if c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = getenv(c.LLM.APIKeyEnv)
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = getenv("LLM_API_KEY")
	}

	if port := getenv("PORT"); port != "" {
		c.Server.Port = port
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn cannot be empty"))
	}

	switch c.LLM.Provider {
	case "openai", "azure":
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be openai or azure, got %q", c.LLM.Provider))
	}
	if c.LLM.Provider == "azure" && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url is required for azure"))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("no api key found in %s or LLM_API_KEY", c.LLM.APIKeyEnv))
	}

	if c.Retrieval.CandidateLimit <= 0 {
		errs = append(errs, errors.New("retrieval.candidate_limit must be positive"))
	}
	if c.Retrieval.DefaultTopK <= 0 {
		errs = append(errs, errors.New("retrieval.default_top_k must be positive"))
	}
	if c.Chat.TopK <= 0 {
		errs = append(errs, errors.New("chat.top_k must be positive"))
	}
	if c.Chat.HistoryTurns <= 0 {
		errs = append(errs, errors.New("chat.history_turns must be positive"))
	}
	if c.Chat.MaxTokens <= 0 {
		errs = append(errs, errors.New("chat.max_tokens must be positive"))
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat.temperature must be within [0, 2], got %v", c.Chat.Temperature))
	}
	if c.Sessions.TTL <= 0 {
		errs = append(errs, errors.New("sessions.ttl must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
