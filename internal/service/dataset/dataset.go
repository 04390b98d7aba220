// Package dataset 提供数据集累积服务与 JSONL 持久化
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/ashwinyue/bookqa/internal/service/dedup"
)

// Service 数据集累积服务。单个生成循环串行写入，无并发访问。
type Service struct {
	ds    *model.Dataset
	dedup *dedup.Deduplicator

	flushFile *os.File
	flushBuf  *bufio.Writer
	flushEnc  *json.Encoder
}

// NewService 创建累积服务
func NewService(name string, maxRows int, d *dedup.Deduplicator) *Service {
	if d == nil {
		d = dedup.New("")
	}
	return &Service{
		ds:    model.NewDataset(name, maxRows),
		dedup: d,
	}
}

// OpenFlush 打开 JSONL 追加文件，之后每个被接受的 QA 对立即落盘。
// 进程中断时已落盘的对保留，可用 convert 子命令继续处理。
func (s *Service) OpenFlush(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	s.flushFile = f
	s.flushBuf = bufio.NewWriter(f)
	s.flushEnc = json.NewEncoder(s.flushBuf)
	return nil
}

// CloseFlush 刷新并关闭 JSONL 文件
func (s *Service) CloseFlush() error {
	if s.flushFile == nil {
		return nil
	}
	if err := s.flushBuf.Flush(); err != nil {
		s.flushFile.Close()
		return fmt.Errorf("failed to flush dataset file: %w", err)
	}
	err := s.flushFile.Close()
	s.flushFile = nil
	return err
}

// Append 提交一个候选 QA 对。重复或无效的对被拒绝（计数，不报错）；
// 数据集已满时返回 false。接受的对按顺序追加并落盘。
func (s *Service) Append(p model.QAPair) (bool, error) {
	if s.ds.Full() || !p.Valid() {
		return false, nil
	}
	if !s.dedup.Admit(p.Question) {
		return false, nil
	}
	if !s.ds.Add(p) {
		return false, nil
	}

	if s.flushEnc != nil {
		if err := s.flushEnc.Encode(p.ToConversation()); err != nil {
			return true, fmt.Errorf("failed to flush pair: %w", err)
		}
		if err := s.flushBuf.Flush(); err != nil {
			return true, fmt.Errorf("failed to flush pair: %w", err)
		}
	}
	return true, nil
}

// Dataset 返回累积中的数据集
func (s *Service) Dataset() *model.Dataset {
	return s.ds
}

// Full 判断是否已达 MaxRows
func (s *Service) Full() bool {
	return s.ds.Full()
}

// Duplicates 返回被去重拒绝的数量
func (s *Service) Duplicates() int {
	return s.dedup.Rejected()
}

// LoadJSONL 从对话格式 JSONL 文件载入数据集，供 convert/upload 子命令复用
func LoadJSONL(path, name, source string, maxRows int) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	ds := model.NewDataset(name, maxRows)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row model.ConversationRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("invalid JSONL at line %d: %w", lineNo, err)
		}
		if pair, ok := model.PairFromConversation(row, source); ok {
			if !ds.Add(pair) && ds.Full() {
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ds, nil
}
