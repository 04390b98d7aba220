// Package generator 基于 LLM 从文本块生成 QA 对
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/bookqa/internal/config"
	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/ashwinyue/bookqa/internal/retry"
	"github.com/cloudwego/eino-ext/components/model/openai"
	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// ErrGenerationFailed 单个块的生成在重试耗尽后失败，调用方跳过该块继续
var ErrGenerationFailed = errors.New("generation failed")

const systemPrompt = "You are an assistant that writes question-answer pairs for dataset construction."

const promptTemplate = `Generate %d diverse question-answer pairs based on the following text%s.

Guidelines:
- Create factual questions that can be directly answered from the text
- Vary question types (who, what, when, where, why, how)
- Ensure answers are concise and directly from the text
- Focus on important information, not trivial details
- Do NOT include quotation marks around questions or answers
- Do NOT number the questions

Text:
%s

Return only valid JSON with this exact structure:
{"qaPairs": [{"question": "...", "answer": "..."}]}`

// Generator QA 对生成服务
type Generator struct {
	cm            ecomodel.BaseChatModel
	pairsPerChunk int
	policy        retry.Policy
	limiter       *rate.Limiter
}

// NewGenerator 按配置创建生成器，provider 选择与凭证校验在任何网络调用之前完成
func NewGenerator(ctx context.Context, cfg *config.Config) (*Generator, error) {
	apiKey, baseURL, modelName, err := cfg.ProviderCredentials()
	if err != nil {
		return nil, err
	}

	temperature := float32(0.7)
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       modelName,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	policy := retry.Default()
	policy.MaxAttempts = cfg.AI.MaxAttempts

	return New(cm, cfg.AI.PairsPerChunk, policy, cfg.AI.RequestsPerSecond), nil
}

// New 用给定的 ChatModel 创建生成器，测试可注入假模型与零等待策略
func New(cm ecomodel.BaseChatModel, pairsPerChunk int, policy retry.Policy, rps float64) *Generator {
	if pairsPerChunk <= 0 {
		pairsPerChunk = 5
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Generator{
		cm:            cm,
		pairsPerChunk: pairsPerChunk,
		policy:        policy,
		limiter:       rate.NewLimiter(limit, 1),
	}
}

// GeneratePairs 对一个文本块发起一次生成请求并解析响应。
// 暂时性失败按注入的策略重试；只有成功的那次响应会被解析，
// 因此重试不会为同一块重复接受 QA 对。
// 畸形条目被跳过而非报错，数量通过 dropped 上报。
func (g *Generator) GeneratePairs(ctx context.Context, chunk model.Chunk, source string) (pairs []model.QAPair, dropped int, err error) {
	sourceCtx := ""
	if source != "" {
		sourceCtx = fmt.Sprintf(" from %s", source)
	}
	prompt := fmt.Sprintf(promptTemplate, g.pairsPerChunk, sourceCtx, chunk.Content)

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: prompt},
	}

	resp, err := retry.Do(ctx, g.policy, func() (*schema.Message, error) {
		if werr := g.limiter.Wait(ctx); werr != nil {
			return nil, retry.Permanent(werr)
		}
		return g.cm.Generate(ctx, messages)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: chunk %d: %w", ErrGenerationFailed, chunk.Index, err)
	}

	pairs, dropped = ParsePairs(resp.Content)
	for i := range pairs {
		pairs[i].Source = source
	}
	return pairs, dropped, nil
}
