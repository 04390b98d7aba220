// Package cli 提供 bookqa 命令行入口
package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ashwinyue/bookqa/internal/config"
	"github.com/ashwinyue/bookqa/internal/service/pipeline"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	outputDir    string
	llmProvider  string
	modelName    string
	apiKey       string
	chunkSize    int
	chunkOverlap int
	maxRows      int
	repoID       string
	skipUpload   bool
	skipConvert  bool
)

var rootCmd = &cobra.Command{
	Use:   "bookqa <document_path>",
	Short: "Generate a QA dataset from a book",
	Long: `bookqa turns a source document (PDF, DOCX, HTML or plain text) into a
question-answer dataset: it extracts the text, splits it into chunks,
asks an LLM provider to write QA pairs for each chunk, deduplicates the
results, converts them to JSONL/CSV/Parquet and optionally publishes
them to a Hugging Face dataset repository.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

// Execute 运行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (YAML)")

	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory for dataset artifacts")
	rootCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider: openai or deepseek")
	rootCmd.Flags().StringVar(&modelName, "model", "", "Model name for the selected provider")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the selected provider")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Target chunk size in characters")
	rootCmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", -1, "Overlap between consecutive chunks in characters")
	rootCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Maximum number of QA pairs to generate")
	rootCmd.Flags().StringVar(&repoID, "repo_id", "", "Hugging Face repository id (namespace/name)")
	rootCmd.Flags().BoolVar(&skipUpload, "skip_upload", false, "Skip the publish stage")
	rootCmd.Flags().BoolVar(&skipConvert, "skip_conversion", false, "Skip CSV/Parquet conversion, keep JSONL only")
}

// loadConfig 加载配置并应用命令行覆盖（flag > env > 配置文件 > 默认值）
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Output.Dir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("llm-provider") {
		cfg.AI.Provider, _ = flags.GetString("llm-provider")
	}
	if flags.Changed("model") {
		cfg.AI.Model, _ = flags.GetString("model")
	}
	if flags.Changed("api-key") {
		key, _ := flags.GetString("api-key")
		switch cfg.AI.Provider {
		case "deepseek":
			cfg.AI.DeepSeek.APIKey = key
		default:
			cfg.AI.OpenAI.APIKey = key
		}
	}
	if flags.Changed("chunk-size") {
		cfg.Chunker.Size, _ = flags.GetInt("chunk-size")
	}
	if flags.Changed("chunk-overlap") {
		cfg.Chunker.Overlap, _ = flags.GetInt("chunk-overlap")
	}
	if flags.Changed("max-rows") {
		cfg.Output.MaxRows, _ = flags.GetInt("max-rows")
	}
	if flags.Changed("repo_id") {
		cfg.Hub.RepoID, _ = flags.GetString("repo_id")
	}

	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, args[0], pipeline.Options{
		SkipConversion: skipConvert,
		SkipUpload:     skipUpload,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Generated %d QA pairs from %d chunks (%d failed, %d duplicates rejected)\n",
		result.PairsAccepted, result.Chunks, result.FailedChunks, result.Duplicates)
	for _, artifact := range result.Artifacts {
		cmd.Printf("  %s\n", artifact)
	}
	if result.Uploaded {
		cmd.Printf("Published to %s\n", cfg.Hub.RepoID)
	}
	return nil
}

// 供子命令拼装人类可读的错误
func wrapStage(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}
