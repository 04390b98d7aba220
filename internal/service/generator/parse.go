package generator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ashwinyue/bookqa/internal/model"
	"github.com/kaptinlin/jsonrepair"
)

// qaEnvelope 模型响应的期望 JSON 结构
type qaEnvelope struct {
	QAPairs []rawPair `json:"qaPairs"`
}

type rawPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParsePairs 解析模型响应为 QA 对。解析顺序：
// 严格 JSON -> jsonrepair 修复后的 JSON -> Q:/A: 行格式。
// 畸形条目被丢弃并计数（dropped），永不返回错误。
func ParsePairs(content string) (pairs []model.QAPair, dropped int) {
	content = stripCodeFence(strings.TrimSpace(content))
	if content == "" {
		return nil, 0
	}

	if pairs, dropped, ok := parseJSON(content); ok {
		return pairs, dropped
	}

	// 使用 jsonrepair 进行强力修复
	if repaired, err := jsonrepair.JSONRepair(content); err == nil {
		if pairs, dropped, ok := parseJSON(repaired); ok {
			return pairs, dropped
		}
	}

	return parseQALines(content)
}

// parseJSON 解析信封对象或裸数组，返回清洗后的有效条目
func parseJSON(content string) ([]model.QAPair, int, bool) {
	var env qaEnvelope
	if err := json.Unmarshal([]byte(content), &env); err == nil && len(env.QAPairs) > 0 {
		pairs, dropped := cleanPairs(env.QAPairs)
		return pairs, dropped, true
	}

	var raw []rawPair
	if err := json.Unmarshal([]byte(content), &raw); err == nil && len(raw) > 0 {
		pairs, dropped := cleanPairs(raw)
		return pairs, dropped, true
	}

	return nil, 0, false
}

// parseQALines 解析 "Q: ... / A: ..." 行格式的响应。
// 落单的问题或答案视为丢弃条目。
func parseQALines(content string) ([]model.QAPair, int) {
	var pairs []model.QAPair
	var currentQ string
	dropped := 0

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Q:"):
			if currentQ != "" {
				dropped++
			}
			currentQ = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "A:"):
			if currentQ == "" {
				dropped++
				continue
			}
			pair := cleanPair(rawPair{Question: currentQ, Answer: strings.TrimSpace(line[2:])})
			if pair.Valid() {
				pairs = append(pairs, pair)
			} else {
				dropped++
			}
			currentQ = ""
		}
	}
	if currentQ != "" {
		dropped++
	}

	return pairs, dropped
}

func cleanPairs(raw []rawPair) ([]model.QAPair, int) {
	pairs := make([]model.QAPair, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		pair := cleanPair(r)
		if pair.Valid() {
			pairs = append(pairs, pair)
		} else {
			dropped++
		}
	}
	return pairs, dropped
}

var leadingNumberRe = regexp.MustCompile(`^\d+[.)]\s*`)

// cleanPair 清洗单个条目：去掉包裹引号、弯引号和题号前缀
func cleanPair(r rawPair) model.QAPair {
	question := cleanText(r.Question)
	question = leadingNumberRe.ReplaceAllString(question, "")
	answer := cleanText(r.Answer)
	return model.QAPair{Question: question, Answer: answer}
}

var fancyQuotes = strings.NewReplacer(
	"\u201c", `"`, "\u201d", `"`,
	"\u2018", "'", "\u2019", "'",
)

func cleanText(s string) string {
	s = strings.TrimSpace(fancyQuotes.Replace(s))
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// stripCodeFence 去掉响应外层的 Markdown 代码围栏
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
