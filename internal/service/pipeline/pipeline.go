// Package pipeline 将五个阶段串联为一次完整的数据集生成运行：
// 获取 -> 提取 -> 分块 -> 生成/去重累积 -> 转换 -> 发布
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/ashwinyue/bookqa/internal/config"
	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/ashwinyue/bookqa/internal/retry"
	"github.com/ashwinyue/bookqa/internal/service/chunker"
	"github.com/ashwinyue/bookqa/internal/service/convert"
	"github.com/ashwinyue/bookqa/internal/service/dataset"
	"github.com/ashwinyue/bookqa/internal/service/dedup"
	"github.com/ashwinyue/bookqa/internal/service/extract"
	"github.com/ashwinyue/bookqa/internal/service/fetch"
	"github.com/ashwinyue/bookqa/internal/service/generator"
	"github.com/ashwinyue/bookqa/internal/service/hub"
)

// PairGenerator 生成阶段的能力接口，测试可注入假实现
type PairGenerator interface {
	GeneratePairs(ctx context.Context, chunk model.Chunk, source string) (pairs []model.QAPair, dropped int, err error)
}

// Publisher 发布阶段的能力接口
type Publisher interface {
	Publish(ctx context.Context, repoID string, ds *model.Dataset, paths []string) error
}

// Options 单次运行的开关
type Options struct {
	SkipConversion bool
	SkipUpload     bool
}

// Result 运行结果汇总。每个被丢弃的对和失败的块都被计数，没有静默丢失：
// FailedChunks 为重试耗尽的块，EmptyChunks 为响应完全不可解析的块，
// PairsDropped 为响应中被丢弃的畸形条目，Duplicates 为去重拒绝数。
type Result struct {
	Document      string        `json:"document"`
	Chunks        int           `json:"chunks"`
	FailedChunks  int           `json:"failed_chunks"`
	EmptyChunks   int           `json:"empty_chunks"`
	PairsAccepted int           `json:"pairs_accepted"`
	PairsDropped  int           `json:"pairs_dropped"`
	Duplicates    int           `json:"duplicates"`
	Artifacts     []string      `json:"artifacts,omitempty"`
	Uploaded      bool          `json:"uploaded"`
	Duration      time.Duration `json:"duration"`
}

// Pipeline 数据集生成管线。严格从左到右执行，后阶段不反馈前阶段。
type Pipeline struct {
	cfg       *config.Config
	fetcher   *fetch.Service
	extractor *extract.Service
	splitter  chunker.Splitter
	gen       PairGenerator
	converter *convert.Service
	publisher Publisher
}

// New 按配置组装管线。配置与凭证错误在任何网络调用之前返回。
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	splitter, err := chunker.New(cfg.Chunker)
	if err != nil {
		return nil, err
	}

	gen, err := generator.NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	policy := retry.Default()
	policy.MaxAttempts = cfg.Hub.MaxAttempts

	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetch.NewService(cfg.Source.DataDir),
		extractor: extract.NewService(),
		splitter:  splitter,
		gen:       gen,
		converter: convert.NewService(cfg.Output.Dir),
		publisher: hub.NewClient(cfg.Hub.Endpoint, cfg.Hub.Token, policy),
	}, nil
}

// Run 对单个源文档执行一次完整运行
func (p *Pipeline) Run(ctx context.Context, source string, opts Options) (*Result, error) {
	startTime := time.Now()
	result := &Result{Document: source}

	// 获取
	doc, err := p.fetcher.Resolve(ctx, source)
	if err != nil {
		return result, err
	}

	// 提取
	if err := p.extractor.Extract(ctx, doc); err != nil {
		return result, fmt.Errorf("failed to extract document: %w", err)
	}

	// 分块
	chunks, err := p.splitter.Split(ctx, doc.Text)
	if err != nil {
		return result, fmt.Errorf("failed to split document: %w", err)
	}
	result.Chunks = len(chunks)
	if len(chunks) == 0 {
		return result, fmt.Errorf("no text chunks produced from %s", doc.LocalPath)
	}
	log.Printf("Created %d chunks from %s", len(chunks), doc.LocalPath)

	// 生成与累积
	acc := dataset.NewService(doc.Title, p.cfg.Output.MaxRows, dedup.New(p.cfg.Dedup.Mode))
	flushPath := filepath.Join(p.cfg.Output.Dir, p.cfg.Output.File)
	if err := acc.OpenFlush(flushPath); err != nil {
		return result, err
	}
	defer acc.CloseFlush()

	for _, chunk := range chunks {
		if acc.Full() {
			log.Printf("Reached target of %d pairs", p.cfg.Output.MaxRows)
			break
		}

		pairs, dropped, err := p.gen.GeneratePairs(ctx, chunk, doc.Title)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			log.Printf("Warning: chunk %d skipped: %v", chunk.Index, err)
			result.FailedChunks++
			continue
		}
		result.PairsDropped += dropped
		if len(pairs) == 0 {
			log.Printf("Warning: chunk %d produced no usable pairs", chunk.Index)
			result.EmptyChunks++
			continue
		}

		for _, pair := range pairs {
			if _, err := acc.Append(pair); err != nil {
				return result, err
			}
			if acc.Full() {
				break
			}
		}
	}

	ds := acc.Dataset()
	result.PairsAccepted = ds.Len()
	result.Duplicates = acc.Duplicates()
	if err := acc.CloseFlush(); err != nil {
		return result, err
	}

	// 转换
	if opts.SkipConversion {
		result.Artifacts = []string{flushPath}
	} else {
		artifacts, err := p.converter.WriteAll(ctx, ds)
		if err != nil {
			return result, fmt.Errorf("failed to convert dataset: %w", err)
		}
		result.Artifacts = artifacts.Paths()
	}

	// 发布。失败时本地产物保留在磁盘，可手工重试。
	if opts.SkipUpload || p.cfg.Hub.RepoID == "" {
		log.Printf("Upload skipped")
	} else {
		if err := p.publisher.Publish(ctx, p.cfg.Hub.RepoID, ds, result.Artifacts); err != nil {
			return result, err
		}
		result.Uploaded = true
	}

	result.Duration = time.Since(startTime)
	p.logSummary(result)
	return result, nil
}

// logSummary 打印最终汇总
func (p *Pipeline) logSummary(r *Result) {
	log.Printf("Run complete in %s: %d chunks (%d failed, %d empty), %d pairs accepted, %d malformed dropped, %d duplicates rejected, %d artifacts",
		r.Duration.Round(time.Millisecond), r.Chunks, r.FailedChunks, r.EmptyChunks,
		r.PairsAccepted, r.PairsDropped, r.Duplicates, len(r.Artifacts))
}
