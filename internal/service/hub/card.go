package hub

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ashwinyue/bookqa/internal/model"
)

// BuildCard 生成数据集卡片（README.md）
func BuildCard(ds *model.Dataset, artifactPaths []string) string {
	sources := sourceList(ds)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", ds.Name)
	fmt.Fprintf(&sb, "A dataset of %d question-answer pairs generated from source texts", ds.Len())
	if len(sources) > 0 {
		sb.WriteString(":\n\n")
		for _, s := range sources {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	} else {
		sb.WriteString(".\n")
	}

	sb.WriteString("\n## Dataset Format\n\nThe dataset is available in the following files:\n\n")
	for _, p := range artifactPaths {
		fmt.Fprintf(&sb, "- `%s`\n", filepath.Base(p))
	}

	sb.WriteString(`
The CSV file is flattened with question, answer and source columns.
The JSONL file uses a nested conversation structure:

` + "```json" + `
{"conversation": [{"from": "human", "value": "..."}, {"from": "assistant", "value": "..."}]}
` + "```" + `

## Usage

This dataset is designed for fine-tuning conversational models on
question answering over the source material.
`)
	return sb.String()
}

// sourceList 收集数据集中出现过的来源，按字典序
func sourceList(ds *model.Dataset) []string {
	seen := make(map[string]struct{})
	for _, p := range ds.Pairs {
		if p.Source != "" {
			seen[p.Source] = struct{}{}
		}
	}
	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}
