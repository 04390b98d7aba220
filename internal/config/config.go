// Package config 提供应用配置加载与校验
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidConfig 配置非法，运行开始前报告，不触发任何网络调用
var ErrInvalidConfig = errors.New("invalid config")

// Config 应用配置
type Config struct {
	App     AppConfig
	Source  SourceConfig
	Chunker ChunkerConfig
	AI      AIConfig
	Dedup   DedupConfig
	Output  OutputConfig
	Hub     HubConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name  string
	Debug bool
}

// SourceConfig 源文档配置
type SourceConfig struct {
	DataDir string // URL 下载落盘目录
}

// ChunkerConfig 分块配置
type ChunkerConfig struct {
	Strategy string // boundary, recursive
	Size     int
	Overlap  int
}

// AIConfig AI 配置
type AIConfig struct {
	Provider          string // openai, deepseek
	Model             string // 覆盖所选 provider 的模型名（MODEL 环境变量）
	OpenAI            OpenAIConfig
	DeepSeek          DeepSeekConfig
	PairsPerChunk     int
	RequestsPerSecond float64
	MaxAttempts       int
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// DeepSeekConfig DeepSeek 配置
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// DedupConfig 去重配置
type DedupConfig struct {
	Mode string // exact, normalized
}

// OutputConfig 输出配置
type OutputConfig struct {
	Dir     string
	File    string // JSONL 文件名
	MaxRows int
}

// HubConfig Hugging Face Hub 配置
type HubConfig struct {
	Token       string
	RepoID      string // namespace/name
	Endpoint    string
	MaxAttempts int // 上传请求的重试上限，独立于 AI 阶段
}

// Load 加载配置。path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("BOOKQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindLegacyEnv 绑定历史脚本使用的环境变量名
func bindLegacyEnv(v *viper.Viper) {
	v.BindEnv("ai.openai.apikey", "BOOKQA_AI_OPENAI_APIKEY", "OPENAI_API_KEY")
	v.BindEnv("ai.deepseek.apikey", "BOOKQA_AI_DEEPSEEK_APIKEY", "DEEPSEEK_API_KEY")
	v.BindEnv("ai.model", "BOOKQA_AI_MODEL", "MODEL")
	v.BindEnv("hub.token", "BOOKQA_HUB_TOKEN", "HF_TOKEN")
	v.BindEnv("output.maxrows", "BOOKQA_OUTPUT_MAXROWS", "MAX_PAIRS")
	v.BindEnv("output.file", "BOOKQA_OUTPUT_FILE", "OUTPUT_FILE")
	v.BindEnv("output.dir", "BOOKQA_OUTPUT_DIR", "OUTPUT_DIR")
}

// Validate 校验配置，非法时返回 ErrInvalidConfig
func (c *Config) Validate() error {
	if c.Chunker.Size <= 0 {
		return fmt.Errorf("%w: chunker size must be positive, got %d", ErrInvalidConfig, c.Chunker.Size)
	}
	if c.Chunker.Overlap < 0 {
		return fmt.Errorf("%w: chunker overlap must not be negative, got %d", ErrInvalidConfig, c.Chunker.Overlap)
	}
	if c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("%w: chunker overlap %d must be smaller than size %d", ErrInvalidConfig, c.Chunker.Overlap, c.Chunker.Size)
	}
	switch c.Chunker.Strategy {
	case "boundary", "recursive":
	default:
		return fmt.Errorf("%w: unsupported chunker strategy: %s", ErrInvalidConfig, c.Chunker.Strategy)
	}
	switch c.AI.Provider {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("%w: unsupported ai provider: %s", ErrInvalidConfig, c.AI.Provider)
	}
	switch c.Dedup.Mode {
	case "exact", "normalized":
	default:
		return fmt.Errorf("%w: unsupported dedup mode: %s", ErrInvalidConfig, c.Dedup.Mode)
	}
	if c.Output.MaxRows < 0 {
		return fmt.Errorf("%w: output maxRows must not be negative, got %d", ErrInvalidConfig, c.Output.MaxRows)
	}
	if c.AI.MaxAttempts <= 0 {
		return fmt.Errorf("%w: ai maxAttempts must be positive, got %d", ErrInvalidConfig, c.AI.MaxAttempts)
	}
	if c.Hub.MaxAttempts <= 0 {
		return fmt.Errorf("%w: hub maxAttempts must be positive, got %d", ErrInvalidConfig, c.Hub.MaxAttempts)
	}
	return nil
}

// ProviderCredentials 返回所选 provider 的 API Key、BaseURL 和模型名
func (c *Config) ProviderCredentials() (apiKey, baseURL, modelName string, err error) {
	switch c.AI.Provider {
	case "openai":
		apiKey = c.AI.OpenAI.APIKey
		baseURL = c.AI.OpenAI.BaseURL
		modelName = c.AI.OpenAI.Model
	case "deepseek":
		apiKey = c.AI.DeepSeek.APIKey
		baseURL = c.AI.DeepSeek.BaseURL
		modelName = c.AI.DeepSeek.Model
	default:
		return "", "", "", fmt.Errorf("%w: unsupported ai provider: %s", ErrInvalidConfig, c.AI.Provider)
	}

	if c.AI.Model != "" {
		modelName = c.AI.Model
	}
	if apiKey == "" {
		return "", "", "", fmt.Errorf("%w: api_key is required for provider: %s", ErrInvalidConfig, c.AI.Provider)
	}
	return apiKey, baseURL, modelName, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "bookqa")
	v.SetDefault("app.debug", false)

	// Source
	v.SetDefault("source.dataDir", "data")

	// Chunker
	v.SetDefault("chunker.strategy", "boundary")
	v.SetDefault("chunker.size", 2000)
	v.SetDefault("chunker.overlap", 200)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.deepseek.baseUrl", "https://api.deepseek.com/v1")
	v.SetDefault("ai.deepseek.model", "deepseek-chat")
	v.SetDefault("ai.pairsPerChunk", 5)
	v.SetDefault("ai.requestsPerSecond", 1.0)
	v.SetDefault("ai.maxAttempts", 3)

	// Dedup
	v.SetDefault("dedup.mode", "normalized")

	// Output
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.file", "qa_dataset.jsonl")
	v.SetDefault("output.maxRows", 1000)

	// Hub
	v.SetDefault("hub.endpoint", "https://huggingface.co")
	v.SetDefault("hub.maxAttempts", 3)
}
