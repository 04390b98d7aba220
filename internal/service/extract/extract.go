// Package extract 提供文档文本提取服务
// 直接使用 eino-ext 解析器组件，避免冗余封装
package extract

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/cloudwego/eino-ext/components/document/parser/docx"
	"github.com/cloudwego/eino-ext/components/document/parser/html"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// Service 文本提取服务
type Service struct{}

// NewService 创建文本提取服务
func NewService() *Service {
	return &Service{}
}

// Extract 提取并清洗文档正文，结果写入 doc.Text
func (s *Service) Extract(ctx context.Context, doc *model.Document) error {
	if doc.LocalPath == "" {
		return fmt.Errorf("file path is empty")
	}

	fileParser, err := newParser(ctx, doc.LocalPath)
	if err != nil {
		return err
	}

	file, err := os.Open(doc.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	docs, err := fileParser.Parse(ctx, file)
	if err != nil {
		return fmt.Errorf("parser failed: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no content parsed from document: %s", doc.LocalPath)
	}

	var sb strings.Builder
	for _, d := range docs {
		sb.WriteString(d.Content)
		sb.WriteString("\n")
	}

	doc.Text = CleanText(sb.String())
	log.Printf("Extracted %d characters from %s", len(doc.Text), doc.LocalPath)
	return nil
}

// newParser 按扩展名创建解析器
func newParser(ctx context.Context, filePath string) (einoparser.Parser, error) {
	ext := strings.ToLower(getFileExt(filePath))

	switch ext {
	case ".pdf":
		return pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	case ".docx":
		return docx.NewDocxParser(ctx, &docx.Config{
			ToSections:      false,
			IncludeComments: false,
			IncludeHeaders:  true,
			IncludeFooters:  false,
			IncludeTables:   true,
		})
	case ".html", ".htm":
		// 使用 body 选择器提取正文内容
		bodySelector := "body"
		return html.NewParser(ctx, &html.Config{
			Selector: &bodySelector,
		})
	case ".txt", ".md":
		return &textParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// textParser 纯文本解析器
type textParser struct{}

func (p *textParser) Parse(_ context.Context, reader io.Reader, opts ...einoparser.Option) ([]*schema.Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	text := string(content)
	if text == "" {
		return []*schema.Document{}, nil
	}

	return []*schema.Document{
		{
			Content:  text,
			MetaData: make(map[string]any),
		},
	}, nil
}

var (
	pageNumberRe = regexp.MustCompile(`\n\s*\d+\s*\n`)
	brokenWordRe = regexp.MustCompile(`(\w)-\n(\w)`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
	trailingWSRe = regexp.MustCompile(`[ \t]+\n`)
)

// CleanText 清洗提取文本：去掉页码行、换页符和断词连字符，
// 压缩空白但保留段落分隔（连续空行折叠为一个）。
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\x0c", "")
	text = pageNumberRe.ReplaceAllString(text, "\n")
	text = brokenWordRe.ReplaceAllString(text, "$1$2")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = trailingWSRe.ReplaceAllString(text, "\n")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func getFileExt(filePath string) string {
	for i := len(filePath) - 1; i >= 0; i-- {
		if filePath[i] == '.' {
			return filePath[i:]
		}
	}
	return ""
}
