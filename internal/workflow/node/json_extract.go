package node

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个完整的 JSON 对象。
// 模型偶尔会用 ```json 代码块包裹输出，或在前后夹杂说明文字。
// 找不到完整对象时返回去除首尾空白后的原文，由调用方的解码报错。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(stripCodeFence(s))
	if raw == "" {
		return raw
	}
	if json.Valid([]byte(raw)) {
		return raw
	}

	start := strings.Index(raw, "{")
	for start >= 0 {
		if end := matchingBrace(raw, start); end > start {
			candidate := raw[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
		next := strings.Index(raw[start+1:], "{")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return raw
}

// stripCodeFence 去掉 markdown 代码块标记
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		// 第一行是语言标记（json 或空）
		t = t[nl+1:]
	}
	if end := strings.LastIndex(t, "```"); end >= 0 {
		t = t[:end]
	}
	return t
}

// matchingBrace 返回与 start 处 '{' 配对的 '}' 下标，忽略字符串内的括号；找不到返回 -1
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
