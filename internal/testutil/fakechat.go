package testutil

import (
	"context"
	"fmt"
	"sync"

	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatTurn 脚本化的一次模型调用结果
type ChatTurn struct {
	Content string
	Err     error
}

// FakeChatModel 按脚本依次应答的聊天模型，供生成器与管线测试注入。
// 脚本耗尽后继续返回最后一条。
type FakeChatModel struct {
	mu    sync.Mutex
	turns []ChatTurn
	calls int
}

var _ ecomodel.BaseChatModel = (*FakeChatModel)(nil)

// NewFakeChatModel 创建脚本化聊天模型
func NewFakeChatModel(turns ...ChatTurn) *FakeChatModel {
	return &FakeChatModel{turns: turns}
}

// Calls 返回已发生的调用次数
func (m *FakeChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate 返回脚本中的下一条应答
func (m *FakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...ecomodel.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.turns) == 0 {
		return nil, fmt.Errorf("fake chat model has no scripted turns")
	}
	idx := m.calls
	if idx >= len(m.turns) {
		idx = len(m.turns) - 1
	}
	m.calls++

	turn := m.turns[idx]
	if turn.Err != nil {
		return nil, turn.Err
	}
	return &schema.Message{Role: schema.Assistant, Content: turn.Content}, nil
}

// Stream 把下一条应答包装为单元素流
func (m *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...ecomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
