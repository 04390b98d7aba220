package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/schema"
)

// RecursiveSplitter 基于 eino-ext 递归分块器的分块策略，
// 按分隔符优先级逐级切分。偏移为尽力计算（递归分块可能修剪分隔符）。
type RecursiveSplitter struct {
	size    int
	overlap int
}

// Split 使用递归分块器切分全文
func (r *RecursiveSplitter) Split(ctx context.Context, text string) ([]model.Chunk, error) {
	if text == "" {
		return nil, nil
	}

	splitter, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   r.size,
		OverlapSize: r.overlap,
		Separators:  []string{"\n\n", "\n", ". ", "。", "? ", "？", "! ", "！", ", ", "，", " ", ""},
		KeepType:    recursive.KeepTypeNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}

	docs := []*schema.Document{{Content: text, MetaData: make(map[string]any)}}
	splitDocs, err := splitter.Transform(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("splitter failed: %w", err)
	}

	chunks := make([]model.Chunk, 0, len(splitDocs))
	searchFrom := 0
	for i, doc := range splitDocs {
		start := strings.Index(text[searchFrom:], doc.Content)
		if start >= 0 {
			start += searchFrom
			searchFrom = start + 1
		} else {
			start = searchFrom
		}
		chunks = append(chunks, model.Chunk{
			Index:   i,
			Start:   start,
			Length:  len(doc.Content),
			Content: doc.Content,
		})
	}

	return chunks, nil
}
