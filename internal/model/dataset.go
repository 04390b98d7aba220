package model

import (
	"strings"
	"time"
)

// Document 源文档
type Document struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`     // 原始路径或 URL
	LocalPath string    `json:"local_path"` // 下载后的本地路径
	Title     string    `json:"title"`
	Text      string    `json:"text"` // 提取并清洗后的正文
	FetchedAt time.Time `json:"fetched_at"`
}

// Chunk 文本块，Pair 生成的提示单元
type Chunk struct {
	Index   int    `json:"index"`
	Start   int    `json:"start"` // 在全文中的起始偏移
	Length  int    `json:"length"`
	Content string `json:"content"`
}

// QAPair QA 对
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source,omitempty"` // 书名或文档标识
}

// Valid 判断 QA 对是否有效（问题和答案均非空）
func (p QAPair) Valid() bool {
	return strings.TrimSpace(p.Question) != "" && strings.TrimSpace(p.Answer) != ""
}

// Dataset 数据集，按接受顺序累积 QA 对，达到 MaxRows 后停止增长
type Dataset struct {
	Name    string   `json:"name"`
	Pairs   []QAPair `json:"pairs"`
	MaxRows int      `json:"max_rows"` // 0 表示不限制
}

// NewDataset 创建数据集
func NewDataset(name string, maxRows int) *Dataset {
	return &Dataset{
		Name:    name,
		Pairs:   make([]QAPair, 0),
		MaxRows: maxRows,
	}
}

// Add 追加 QA 对，达到上限或 pair 无效时返回 false
func (d *Dataset) Add(p QAPair) bool {
	if !p.Valid() {
		return false
	}
	if d.Full() {
		return false
	}
	d.Pairs = append(d.Pairs, p)
	return true
}

// Full 判断是否已达上限
func (d *Dataset) Full() bool {
	return d.MaxRows > 0 && len(d.Pairs) >= d.MaxRows
}

// Len 返回 QA 对数量
func (d *Dataset) Len() int {
	return len(d.Pairs)
}

// ConversationTurn 对话格式中的一轮发言
type ConversationTurn struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

// ConversationRow JSONL 中的一行对话记录
type ConversationRow struct {
	Conversation []ConversationTurn `json:"conversation"`
}

// ToConversation 转换为对话格式（human 提问，assistant 回答）
func (p QAPair) ToConversation() ConversationRow {
	return ConversationRow{
		Conversation: []ConversationTurn{
			{From: "human", Value: p.Question},
			{From: "assistant", Value: p.Answer},
		},
	}
}

// PairFromConversation 从对话记录还原 QA 对，格式不完整时返回 false
func PairFromConversation(row ConversationRow, source string) (QAPair, bool) {
	if len(row.Conversation) < 2 {
		return QAPair{}, false
	}
	pair := QAPair{
		Question: row.Conversation[0].Value,
		Answer:   row.Conversation[1].Value,
		Source:   source,
	}
	return pair, pair.Valid()
}
