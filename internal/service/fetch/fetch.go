// Package fetch 提供源文档获取服务：本地路径直接使用，URL 下载落盘
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/google/uuid"
)

// ErrNotFound 引用的本地文件不存在
var ErrNotFound = errors.New("source document not found")

// Service 源文档获取服务
type Service struct {
	dataDir string
	client  *http.Client
}

// NewService 创建获取服务，dataDir 为 URL 下载目录
func NewService(dataDir string) *Service {
	return &Service{
		dataDir: dataDir,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Resolve 解析文档来源。URL 下载到本地（已存在则跳过），本地路径校验存在性。
func (s *Service) Resolve(ctx context.Context, source string) (*model.Document, error) {
	doc := &model.Document{
		ID:        uuid.New().String(),
		Source:    source,
		FetchedAt: time.Now(),
	}

	if isURL(source) {
		localPath, err := s.download(ctx, source)
		if err != nil {
			return nil, err
		}
		doc.LocalPath = localPath
	} else {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, source)
		}
		doc.LocalPath = source
	}

	doc.Title = titleFromPath(doc.LocalPath)
	return doc, nil
}

// download 下载 URL 到 dataDir，同名文件已存在时复用
func (s *Service) download(ctx context.Context, rawURL string) (string, error) {
	name := filepath.Base(mustPath(rawURL))
	if name == "" || name == "." || name == "/" {
		name = "document.pdf"
	}
	localPath := filepath.Join(s.dataDir, name)

	if _, err := os.Stat(localPath); err == nil {
		log.Printf("%s already exists, skipping download", localPath)
		return localPath, nil
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	log.Printf("Downloading %s", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.dataDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	log.Printf("Downloaded %s (%d bytes)", localPath, written)
	return localPath, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// mustPath 提取 URL 的路径部分，解析失败时原样返回
func mustPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

// titleFromPath 以去掉扩展名的文件名作为文档标题
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
