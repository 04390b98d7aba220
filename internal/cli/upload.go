package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashwinyue/bookqa/internal/retry"
	"github.com/ashwinyue/bookqa/internal/service/convert"
	"github.com/ashwinyue/bookqa/internal/service/dataset"
	"github.com/ashwinyue/bookqa/internal/service/hub"
	"github.com/spf13/cobra"
)

var (
	uploadInputDir string
	uploadRepoID   string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Publish existing dataset artifacts to a Hugging Face repository",
	Long: `upload re-runs the publish stage on artifacts already present on disk.
Useful after a run with --skip_upload, or to retry a failed publish
without regenerating the dataset.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadInputDir, "input-dir", "", "Directory holding the dataset artifacts (default: output.dir from config)")
	uploadCmd.Flags().StringVar(&uploadRepoID, "repo_id", "", "Hugging Face repository id (namespace/name)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir := uploadInputDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	repo := uploadRepoID
	if repo == "" {
		repo = cfg.Hub.RepoID
	}
	if repo == "" {
		return fmt.Errorf("repository id required: pass --repo_id or set hub.repoID")
	}

	jsonlPath := filepath.Join(dir, cfg.Output.File)
	name := strings.TrimSuffix(filepath.Base(jsonlPath), filepath.Ext(jsonlPath))
	ds, err := dataset.LoadJSONL(jsonlPath, name, "", 0)
	if err != nil {
		return wrapStage("upload", err)
	}

	paths := []string{jsonlPath}
	for _, candidate := range []string{convert.CSVName, convert.ParquetName, convert.PreviewName} {
		p := filepath.Join(dir, candidate)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}

	policy := retry.Default()
	policy.MaxAttempts = cfg.Hub.MaxAttempts
	client := hub.NewClient(cfg.Hub.Endpoint, cfg.Hub.Token, policy)
	if err := client.Publish(cmd.Context(), repo, ds, paths); err != nil {
		return wrapStage("upload", err)
	}

	cmd.Printf("Published %d files to %s\n", len(paths)+1, repo)
	return nil
}
