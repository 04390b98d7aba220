// Package convert 将最终数据集序列化为多种行式产物。
// 同一数据集的各产物行序一致，CSV 重复生成字节相同。
package convert

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ashwinyue/bookqa/internal/model"
)

// 产物文件名，沿用历史数据集的命名
const (
	CSVName     = "qa_dataset.csv"
	ParquetName = "qa_dataset.parquet"
	JSONLName   = "qa_dataset.jsonl"
	PreviewName = "qa_preview.csv"
)

// previewAnswerLimit 预览文件中答案的截断长度
const previewAnswerLimit = 200

// Artifacts 一次转换产出的文件路径
type Artifacts struct {
	CSV     string
	Parquet string
	JSONL   string
	Preview string
}

// Paths 按固定顺序返回全部产物路径
func (a *Artifacts) Paths() []string {
	return []string{a.JSONL, a.CSV, a.Parquet, a.Preview}
}

// Service 格式转换服务
type Service struct {
	outputDir string
}

// NewService 创建转换服务
func NewService(outputDir string) *Service {
	return &Service{outputDir: outputDir}
}

// WriteAll 将数据集写出为 JSONL、CSV、Parquet 与预览 CSV
func (s *Service) WriteAll(ctx context.Context, ds *model.Dataset) (*Artifacts, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	artifacts := &Artifacts{
		CSV:     filepath.Join(s.outputDir, CSVName),
		Parquet: filepath.Join(s.outputDir, ParquetName),
		JSONL:   filepath.Join(s.outputDir, JSONLName),
		Preview: filepath.Join(s.outputDir, PreviewName),
	}

	if err := WriteJSONL(ds, artifacts.JSONL); err != nil {
		return nil, err
	}
	if err := WriteCSV(ds, artifacts.CSV); err != nil {
		return nil, err
	}
	if err := WriteParquet(ctx, ds, artifacts.Parquet); err != nil {
		return nil, err
	}
	if err := writePreview(ds, artifacts.Preview); err != nil {
		return nil, err
	}

	log.Printf("Wrote %d pairs to %s (jsonl, csv, parquet, preview)", ds.Len(), s.outputDir)
	return artifacts, nil
}

// WriteCSV 写出 question,answer,source 表头的 CSV
func WriteCSV(ds *model.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"question", "answer", "source"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, p := range ds.Pairs {
		if err := w.Write([]string{p.Question, p.Answer, p.Source}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// ReadCSV 读回 CSV 产物为 QA 对序列
func ReadCSV(path string) ([]model.QAPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s has no header", path)
	}

	pairs := make([]model.QAPair, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		pair := model.QAPair{Question: rec[0], Answer: rec[1]}
		if len(rec) > 2 {
			pair.Source = rec[2]
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// WriteJSONL 写出对话格式的 JSONL
func WriteJSONL(ds *model.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, p := range ds.Pairs {
		if err := enc.Encode(p.ToConversation()); err != nil {
			return fmt.Errorf("failed to write jsonl row: %w", err)
		}
	}
	return nil
}

// writePreview 写出答案截断后的可读预览 CSV
func writePreview(ds *model.Dataset, path string) error {
	preview := model.NewDataset(ds.Name, 0)
	for _, p := range ds.Pairs {
		if len(p.Answer) > previewAnswerLimit {
			p.Answer = p.Answer[:previewAnswerLimit] + "..."
		}
		preview.Pairs = append(preview.Pairs, p)
	}
	return WriteCSV(preview, path)
}
