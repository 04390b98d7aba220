// Package hub 提供 Hugging Face Hub 数据集发布客户端
package hub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/ashwinyue/bookqa/internal/retry"
)

// DefaultEndpoint Hugging Face Hub 地址
const DefaultEndpoint = "https://huggingface.co"

var (
	// ErrAuth 令牌缺失或无效，发布阶段致命，不重试
	ErrAuth = errors.New("hub authentication failed")
	// ErrUpload 网络或服务端错误，可重试
	ErrUpload = errors.New("hub upload failed")
	// ErrNotFound 引用的本地产物不存在
	ErrNotFound = errors.New("local artifact not found")
)

// Client Hub 客户端
type Client struct {
	endpoint string
	token    string
	policy   retry.Policy
	client   *http.Client
}

// NewClient 创建 Hub 客户端。endpoint 为空时使用官方地址。
func NewClient(endpoint, token string, policy retry.Policy) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		policy:   policy,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Publish 确保远端仓库存在并上传全部产物与数据集卡片。
// 多文件上传不具备事务性：失败后重跑即可收敛。
func (c *Client) Publish(ctx context.Context, repoID string, ds *model.Dataset, paths []string) error {
	if err := c.EnsureRepo(ctx, repoID); err != nil {
		return err
	}

	for _, path := range paths {
		if err := c.UploadFile(ctx, repoID, path, filepath.Base(path)); err != nil {
			return err
		}
	}

	card := BuildCard(ds, paths)
	if err := c.uploadContent(ctx, repoID, []byte(card), "README.md", "Update README"); err != nil {
		return err
	}

	log.Printf("Dataset published to %s/datasets/%s", c.endpoint, repoID)
	return nil
}

// EnsureRepo 创建数据集仓库，已存在时视为成功
func (c *Client) EnsureRepo(ctx context.Context, repoID string) error {
	namespace, name, err := splitRepoID(repoID)
	if err != nil {
		return err
	}
	if c.token == "" {
		return fmt.Errorf("%w: missing token", ErrAuth)
	}

	payload, err := json.Marshal(map[string]any{
		"type":         "dataset",
		"name":         name,
		"organization": namespace,
		"private":      false,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal create request: %w", err)
	}

	_, err = retry.Do(ctx, c.policy, func() (struct{}, error) {
		return struct{}{}, c.post(ctx, c.endpoint+"/api/repos/create", "application/json", payload, true)
	})
	if err != nil {
		return fmt.Errorf("failed to create repo %s: %w", repoID, err)
	}
	return nil
}

// UploadFile 上传单个本地文件到仓库根目录
func (c *Client) UploadFile(ctx context.Context, repoID, localPath, remotePath string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, localPath)
		}
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	message := fmt.Sprintf("Upload %s", remotePath)
	if err := c.uploadContent(ctx, repoID, content, remotePath, message); err != nil {
		return err
	}

	log.Printf("Uploaded %s (%d bytes) to %s", remotePath, len(content), repoID)
	return nil
}

// uploadContent 通过 commit 接口上传文件内容（NDJSON 负载，base64 编码）
func (c *Client) uploadContent(ctx context.Context, repoID string, content []byte, remotePath, message string) error {
	if c.token == "" {
		return fmt.Errorf("%w: missing token", ErrAuth)
	}
	if _, _, err := splitRepoID(repoID); err != nil {
		return err
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	if err := enc.Encode(commitLine{
		Key:   "header",
		Value: map[string]string{"summary": message, "description": ""},
	}); err != nil {
		return fmt.Errorf("failed to encode commit header: %w", err)
	}
	if err := enc.Encode(commitLine{
		Key: "file",
		Value: map[string]string{
			"path":     remotePath,
			"content":  base64.StdEncoding.EncodeToString(content),
			"encoding": "base64",
		},
	}); err != nil {
		return fmt.Errorf("failed to encode commit file: %w", err)
	}

	url := fmt.Sprintf("%s/api/datasets/%s/commit/main", c.endpoint, repoID)
	_, err := retry.Do(ctx, c.policy, func() (struct{}, error) {
		return struct{}{}, c.post(ctx, url, "application/x-ndjson", body.Bytes(), false)
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

// commitLine commit 接口 NDJSON 负载中的一行
type commitLine struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// post 发送带令牌的请求并分类响应。认证失败标记为不可重试。
func (c *Client) post(ctx context.Context, url, contentType string, body []byte, conflictOK bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case conflictOK && resp.StatusCode == http.StatusConflict:
		// 仓库已存在
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retry.Permanent(fmt.Errorf("%w: status %d: %s", ErrAuth, resp.StatusCode, readBody(resp.Body)))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Permanent(fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode, readBody(resp.Body)))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode, readBody(resp.Body))
	}
}

// splitRepoID 校验并拆分 namespace/name 形式的仓库标识
func splitRepoID(repoID string) (namespace, name string, err error) {
	parts := strings.Split(repoID, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo id %q, expected namespace/name", repoID)
	}
	return parts[0], parts[1], nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
