// Package dedup 提供 QA 对去重服务
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Mode 去重匹配模式
const (
	ModeExact      = "exact"      // 问题文本完全一致
	ModeNormalized = "normalized" // 大小写和空白规范化后一致
)

// Deduplicator 基于已接受问题的去重器。重复项被静默拒绝并计数。
type Deduplicator struct {
	mode     string
	seen     map[string]struct{}
	rejected int
}

// New 创建去重器，mode 为空时使用 ModeNormalized
func New(mode string) *Deduplicator {
	if mode == "" {
		mode = ModeNormalized
	}
	return &Deduplicator{
		mode: mode,
		seen: make(map[string]struct{}),
	}
}

// Admit 判断问题是否首次出现。重复返回 false 并累加拒绝计数。
func (d *Deduplicator) Admit(question string) bool {
	key := d.key(question)
	if _, exists := d.seen[key]; exists {
		d.rejected++
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Rejected 返回被拒绝的重复项数量
func (d *Deduplicator) Rejected() int {
	return d.rejected
}

// key 计算问题的去重键
func (d *Deduplicator) key(question string) string {
	if d.mode == ModeNormalized {
		question = normalize(question)
	}
	hash := sha256.Sum256([]byte(question))
	return hex.EncodeToString(hash[:])
}

// normalize 小写化并把空白序列折叠为单个空格
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
