package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chat.TopK != 3 {
		t.Errorf("expected chat TopK=3, got %d", cfg.Chat.TopK)
	}
	if cfg.Chat.HistoryTurns != 10 {
		t.Errorf("expected HistoryTurns=10, got %d", cfg.Chat.HistoryTurns)
	}
	if cfg.Chat.Temperature != 0.7 {
		t.Errorf("expected Temperature=0.7, got %v", cfg.Chat.Temperature)
	}
	if cfg.Chat.MaxTokens != 500 {
		t.Errorf("expected MaxTokens=500, got %d", cfg.Chat.MaxTokens)
	}
	if cfg.Retrieval.CandidateLimit != 1000 {
		t.Errorf("expected CandidateLimit=1000, got %d", cfg.Retrieval.CandidateLimit)
	}
	if cfg.Sessions.TTL != time.Hour {
		t.Errorf("expected TTL=1h, got %v", cfg.Sessions.TTL)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	content := `
server:
  port: "9090"
  read_timeout: 5s
database:
  driver: postgres
  dsn: postgresql://localhost/kb
chat:
  top_k: 4
  temperature: 0.2
sessions:
  ttl: 30m
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected ReadTimeout=5s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Chat.TopK != 4 {
		t.Errorf("expected TopK=4, got %d", cfg.Chat.TopK)
	}
	if cfg.Chat.MaxTokens != 500 {
		t.Errorf("unset fields should keep defaults, got MaxTokens=%d", cfg.Chat.MaxTokens)
	}
	if cfg.Sessions.TTL != 30*time.Minute {
		t.Errorf("expected TTL=30m, got %v", cfg.Sessions.TTL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("chat: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"DATABASE_URL":          "postgres://user:pw@db:5432/kb",
		"AZURE_OPENAI_ENDPOINT": "https://example.openai.azure.com",
		"AZURE_OPENAI_API_KEY":  "azure-key",
		"PORT":                  "7000",
	}))

	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgresql://user:pw@db:5432/kb" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.LLM.Provider != "azure" || cfg.LLM.BaseURL != "https://example.openai.azure.com" {
		t.Errorf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.APIKey != "azure-key" {
		t.Errorf("expected azure key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Addr() != ":7000" {
		t.Errorf("unexpected addr: %s", cfg.Addr())
	}
}

func TestApplyEnv_FallbackKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{"LLM_API_KEY": "fallback"}))

	if cfg.LLM.APIKey != "fallback" {
		t.Errorf("expected fallback key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver should stay sqlite, got %s", cfg.Database.Driver)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with a key should validate: %v", err)
	}

	cfg.Database.Driver = "mysql"
	cfg.Chat.Temperature = 3
	cfg.Retrieval.DefaultTopK = 0
	cfg.LLM.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"database.driver", "temperature", "default_top_k", "api key"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q: %v", want, err)
		}
	}
}
