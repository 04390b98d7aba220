// Package chunker 提供文本分块服务
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ashwinyue/bookqa/internal/config"
	"github.com/ashwinyue/bookqa/internal/model"
)

// Splitter 文本分块器。返回的块按顺序覆盖全文，可重复调用。
type Splitter interface {
	Split(ctx context.Context, text string) ([]model.Chunk, error)
}

// New 按配置创建分块器，参数非法时返回 config.ErrInvalidConfig
func New(cfg config.ChunkerConfig) (Splitter, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", config.ErrInvalidConfig, cfg.Size)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, size), size=%d", config.ErrInvalidConfig, cfg.Overlap, cfg.Size)
	}

	switch cfg.Strategy {
	case "", "boundary":
		return &BoundarySplitter{size: cfg.Size, overlap: cfg.Overlap}, nil
	case "recursive":
		return &RecursiveSplitter{size: cfg.Size, overlap: cfg.Overlap}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported chunker strategy: %s", config.ErrInvalidConfig, cfg.Strategy)
	}
}

// BoundarySplitter 固定窗口分块器，块边界优先落在句子或段落结束处。
// 每个块记录其在全文中的偏移，相邻块共享 overlap 个字符。
type BoundarySplitter struct {
	size    int
	overlap int
}

// sentenceEnders 句子边界标记，切点取标点之后
var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n", "。", "！", "？"}

// Split 将全文切分为块。最后一个块可能短于目标大小。
func (s *BoundarySplitter) Split(_ context.Context, text string) ([]model.Chunk, error) {
	if text == "" {
		return nil, nil
	}

	textLen := len(text)
	estimated := textLen/(s.size-s.overlap) + 1
	chunks := make([]model.Chunk, 0, estimated)

	start := 0
	for start < textLen {
		end := start + s.size
		if end >= textLen {
			end = textLen
		} else if cut := s.boundary(text, start, end); cut > 0 {
			end = cut
		} else {
			// 窗口切点可能落在多字节字符中间，回退到 rune 起点
			if snapped := snapToRune(text, end); snapped > start {
				end = snapped
			}
		}

		chunks = append(chunks, model.Chunk{
			Index:   len(chunks),
			Start:   start,
			Length:  end - start,
			Content: text[start:end],
		})

		if end >= textLen {
			break
		}

		next := snapToRune(text, end-s.overlap)
		if next <= start {
			// 边界收缩导致窗口推进量小于 overlap 时放弃重叠，保证前进
			next = end
		}
		start = next
	}

	return chunks, nil
}

// boundary 在 (start+size/2, end] 内寻找最靠后的句子或段落边界，
// 返回切点（边界之后的偏移）；没有合适边界时返回 0。
func (s *BoundarySplitter) boundary(text string, start, end int) int {
	window := text[start:end]
	half := s.size / 2

	best := 0
	if i := strings.LastIndex(window, "\n\n"); i >= 0 && i+1 > half {
		best = i + 1
	}
	for _, marker := range sentenceEnders {
		if i := strings.LastIndex(window, marker); i >= 0 {
			cut := i + punctLen(marker)
			if cut > half && cut > best {
				best = cut
			}
		}
	}

	if best == 0 {
		return 0
	}
	return start + best
}

// snapToRune 将偏移回退到最近的 rune 起始位置
func snapToRune(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// punctLen 返回边界标记中属于句子本身的字节数（保留标点，丢弃其后的空白）
func punctLen(marker string) int {
	if strings.HasSuffix(marker, " ") || strings.HasSuffix(marker, "\n") {
		return len(marker) - 1
	}
	return len(marker)
}
