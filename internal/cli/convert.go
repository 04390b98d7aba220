package cli

import (
	"path/filepath"
	"strings"

	"github.com/ashwinyue/bookqa/internal/service/convert"
	"github.com/ashwinyue/bookqa/internal/service/dataset"
	"github.com/spf13/cobra"
)

var (
	convertInput  string
	convertOutDir string
	convertSource string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an existing JSONL dataset to CSV and Parquet",
	Long: `convert re-runs the conversion stage on a previously generated JSONL
dataset, without touching the LLM provider. Useful after a run with
--skip_conversion, or to regenerate artifacts from an edited JSONL file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertInput, "input", "", "Input JSONL file (default: <output.dir>/<output.file> from config)")
	convertCmd.Flags().StringVar(&convertOutDir, "output-dir", "", "Directory for converted artifacts (default: directory of the input file)")
	convertCmd.Flags().StringVar(&convertSource, "source", "", "Source label for rows that carry none")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	input := convertInput
	if input == "" {
		input = filepath.Join(cfg.Output.Dir, cfg.Output.File)
	}
	outDir := convertOutDir
	if outDir == "" {
		outDir = filepath.Dir(input)
	}

	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ds, err := dataset.LoadJSONL(input, name, convertSource, 0)
	if err != nil {
		return wrapStage("convert", err)
	}

	artifacts, err := convert.NewService(outDir).WriteAll(cmd.Context(), ds)
	if err != nil {
		return wrapStage("convert", err)
	}

	cmd.Printf("Converted %d QA pairs from %s\n", ds.Len(), input)
	for _, p := range artifacts.Paths() {
		cmd.Printf("  %s\n", p)
	}
	return nil
}
