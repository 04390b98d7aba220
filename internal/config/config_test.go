// Package config 提供配置加载与校验单元测试
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ========== 默认值测试 ==========

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chunker.Strategy != "boundary" {
		t.Errorf("Chunker.Strategy = %q, want boundary", cfg.Chunker.Strategy)
	}
	if cfg.Chunker.Size != 2000 {
		t.Errorf("Chunker.Size = %d, want 2000", cfg.Chunker.Size)
	}
	if cfg.Chunker.Overlap != 200 {
		t.Errorf("Chunker.Overlap = %d, want 200", cfg.Chunker.Overlap)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, want openai", cfg.AI.Provider)
	}
	if cfg.AI.DeepSeek.BaseURL != "https://api.deepseek.com/v1" {
		t.Errorf("AI.DeepSeek.BaseURL = %q", cfg.AI.DeepSeek.BaseURL)
	}
	if cfg.AI.PairsPerChunk != 5 {
		t.Errorf("AI.PairsPerChunk = %d, want 5", cfg.AI.PairsPerChunk)
	}
	if cfg.Dedup.Mode != "normalized" {
		t.Errorf("Dedup.Mode = %q, want normalized", cfg.Dedup.Mode)
	}
	if cfg.Output.MaxRows != 1000 {
		t.Errorf("Output.MaxRows = %d, want 1000", cfg.Output.MaxRows)
	}
	if cfg.Output.File != "qa_dataset.jsonl" {
		t.Errorf("Output.File = %q", cfg.Output.File)
	}
	if cfg.Hub.Endpoint != "https://huggingface.co" {
		t.Errorf("Hub.Endpoint = %q", cfg.Hub.Endpoint)
	}
	if cfg.Hub.MaxAttempts != 3 {
		t.Errorf("Hub.MaxAttempts = %d, want 3", cfg.Hub.MaxAttempts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("Load of missing file should fail")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chunker:\n  size: 500\n  overlap: 50\nai:\n  provider: deepseek\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Chunker.Size != 500 {
		t.Errorf("Chunker.Size = %d, want 500", cfg.Chunker.Size)
	}
	if cfg.AI.Provider != "deepseek" {
		t.Errorf("AI.Provider = %q, want deepseek", cfg.AI.Provider)
	}
	// 未覆盖的键保持默认
	if cfg.Output.MaxRows != 1000 {
		t.Errorf("Output.MaxRows = %d, want default 1000", cfg.Output.MaxRows)
	}
}

// ========== 环境变量绑定测试 ==========

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DEEPSEEK_API_KEY", "ds-test")
	t.Setenv("MODEL", "gpt-4o")
	t.Setenv("HF_TOKEN", "hf_test")
	t.Setenv("MAX_PAIRS", "25")
	t.Setenv("OUTPUT_DIR", "/tmp/out")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.OpenAI.APIKey != "sk-test" {
		t.Errorf("AI.OpenAI.APIKey = %q, want sk-test", cfg.AI.OpenAI.APIKey)
	}
	if cfg.AI.DeepSeek.APIKey != "ds-test" {
		t.Errorf("AI.DeepSeek.APIKey = %q, want ds-test", cfg.AI.DeepSeek.APIKey)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Errorf("AI.Model = %q, want gpt-4o", cfg.AI.Model)
	}
	if cfg.Hub.Token != "hf_test" {
		t.Errorf("Hub.Token = %q, want hf_test", cfg.Hub.Token)
	}
	if cfg.Output.MaxRows != 25 {
		t.Errorf("Output.MaxRows = %d, want 25", cfg.Output.MaxRows)
	}
	if cfg.Output.Dir != "/tmp/out" {
		t.Errorf("Output.Dir = %q, want /tmp/out", cfg.Output.Dir)
	}
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "legacy")
	t.Setenv("BOOKQA_AI_OPENAI_APIKEY", "prefixed")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.OpenAI.APIKey != "prefixed" {
		t.Errorf("AI.OpenAI.APIKey = %q, want prefixed", cfg.AI.OpenAI.APIKey)
	}
}

// ========== Validate 测试 ==========

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Chunker.Size = 0 }},
		{"overlap not below size", func(c *Config) { c.Chunker.Overlap = c.Chunker.Size }},
		{"negative overlap", func(c *Config) { c.Chunker.Overlap = -1 }},
		{"unknown strategy", func(c *Config) { c.Chunker.Strategy = "semantic" }},
		{"unknown provider", func(c *Config) { c.AI.Provider = "claude" }},
		{"unknown dedup mode", func(c *Config) { c.Dedup.Mode = "fuzzy" }},
		{"negative max rows", func(c *Config) { c.Output.MaxRows = -1 }},
		{"zero max attempts", func(c *Config) { c.AI.MaxAttempts = 0 }},
		{"zero hub attempts", func(c *Config) { c.Hub.MaxAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate: err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// ========== ProviderCredentials 测试 ==========

func TestProviderCredentials_OpenAI(t *testing.T) {
	cfg := validConfig(t)
	cfg.AI.OpenAI.APIKey = "sk-test"

	key, baseURL, modelName, err := cfg.ProviderCredentials()
	if err != nil {
		t.Fatalf("ProviderCredentials failed: %v", err)
	}
	if key != "sk-test" {
		t.Errorf("apiKey = %q, want sk-test", key)
	}
	if baseURL != "https://api.openai.com/v1" {
		t.Errorf("baseURL = %q", baseURL)
	}
	if modelName != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", modelName)
	}
}

func TestProviderCredentials_DeepSeek(t *testing.T) {
	cfg := validConfig(t)
	cfg.AI.Provider = "deepseek"
	cfg.AI.DeepSeek.APIKey = "ds-test"

	_, baseURL, modelName, err := cfg.ProviderCredentials()
	if err != nil {
		t.Fatalf("ProviderCredentials failed: %v", err)
	}
	if baseURL != "https://api.deepseek.com/v1" {
		t.Errorf("baseURL = %q", baseURL)
	}
	if modelName != "deepseek-chat" {
		t.Errorf("model = %q, want deepseek-chat", modelName)
	}
}

func TestProviderCredentials_ModelOverride(t *testing.T) {
	cfg := validConfig(t)
	cfg.AI.OpenAI.APIKey = "sk-test"
	cfg.AI.Model = "gpt-4-turbo"

	_, _, modelName, err := cfg.ProviderCredentials()
	if err != nil {
		t.Fatalf("ProviderCredentials failed: %v", err)
	}
	if modelName != "gpt-4-turbo" {
		t.Errorf("model = %q, want gpt-4-turbo", modelName)
	}
}

func TestProviderCredentials_MissingKey(t *testing.T) {
	cfg := validConfig(t)
	cfg.AI.OpenAI.APIKey = ""

	_, _, _, err := cfg.ProviderCredentials()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("missing api key: err = %v, want ErrInvalidConfig", err)
	}
}
