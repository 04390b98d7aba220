// Package testutil 提供测试辅助工具
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/ashwinyue/bookqa/internal/model"
)

// ContextHelper 提供上下文相关的测试辅助
type ContextHelper struct{}

// NewContextHelper 创建上下文辅助器
func NewContextHelper() *ContextHelper {
	return &ContextHelper{}
}

// Context 返回测试用的 context.Background()
func (h *ContextHelper) Context() context.Context {
	return context.Background()
}

// CanceledContext 返回已取消的 context
func (h *ContextHelper) CanceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// AssertHelper 提供断言相关的测试辅助
type AssertHelper struct {
	t *testing.T
}

// NewAssertHelper 创建断言辅助器
func NewAssertHelper(t *testing.T) *AssertHelper {
	return &AssertHelper{t: t}
}

// NoError 断言没有错误
func (h *AssertHelper) NoError(err error, msgAndArgs ...interface{}) {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("Unexpected error: %v %v", err, msgAndArgs)
	}
}

// Error 断言有错误
func (h *AssertHelper) Error(err error, msgAndArgs ...interface{}) {
	h.t.Helper()
	if err == nil {
		h.t.Fatal("Expected error, got nil")
	}
}

// ErrorContains 断言错误包含指定字符串
func (h *AssertHelper) ErrorContains(err error, substr string, msgAndArgs ...interface{}) {
	h.t.Helper()
	if err == nil {
		h.t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), substr) {
		h.t.Fatalf("Error %q does not contain %q %v", err.Error(), substr, msgAndArgs)
	}
}

// Equal 断言相等
func (h *AssertHelper) Equal(expected, actual interface{}, msgAndArgs ...interface{}) {
	h.t.Helper()
	if expected != actual {
		h.t.Fatalf("Expected %v, got %v %v", expected, actual, msgAndArgs)
	}
}

// True 断言为真
func (h *AssertHelper) True(condition bool, msgAndArgs ...interface{}) {
	h.t.Helper()
	if !condition {
		h.t.Fatalf("Expected true, got false %v", msgAndArgs)
	}
}

// False 断言为假
func (h *AssertHelper) False(condition bool, msgAndArgs ...interface{}) {
	h.t.Helper()
	if condition {
		h.t.Fatalf("Expected false, got true %v", msgAndArgs)
	}
}

// SamplePairs 返回固定的 QA 对样本，供转换与数据集测试复用
func SamplePairs() []model.QAPair {
	return []model.QAPair{
		{Question: "What is the capital of France?", Answer: "The capital of France is Paris.", Source: "geography.txt"},
		{Question: "Who wrote Hamlet?", Answer: "Hamlet was written by William Shakespeare.", Source: "literature.txt"},
		{Question: "What does HTTP stand for?", Answer: "HTTP stands for HyperText Transfer Protocol.", Source: "networking.txt"},
	}
}

// SampleDataset 构造装好样本的内存数据集
func SampleDataset(name string, maxRows int) *model.Dataset {
	ds := model.NewDataset(name, maxRows)
	for _, p := range SamplePairs() {
		ds.Add(p)
	}
	return ds
}

// SampleChapter 返回一段多句的书籍文本，供分块测试使用
func SampleChapter() string {
	return "The river rose slowly through the night. By morning the lower fields " +
		"were flooded and the road to town was impassable. The villagers gathered " +
		"at the mill to decide what to do.\n\nOld Haren argued for waiting. The " +
		"water had risen before, he said, and it had always gone down again. But " +
		"the younger farmers wanted to dig a channel to the east, through the " +
		"chalk ridge, and let the river drain into the marsh."
}
