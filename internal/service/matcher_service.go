package service

import "strings"

// MatchesAnswer 快速通道：大小写与首尾空白不敏感的精确匹配
// 命中则完全绕过外部判分；标准答案为空时恒为 false
func MatchesAnswer(candidate string, acceptable []string) bool {
	normalized := normalizeAnswer(candidate)
	for _, a := range acceptable {
		if normalized == normalizeAnswer(a) {
			return true
		}
	}
	return false
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
