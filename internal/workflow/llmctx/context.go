// Package llmctx 在 context 中携带 LLM 调用的工作流与提供商标签，供全局回调上报指标
package llmctx

import (
	"context"
	"strings"
)

const unknown = "unknown"

type callKey struct{}

// Call 一次模型调用的标签
type Call struct {
	Workflow string
	Provider string
}

// WithCall 将工作流与提供商写入 context，空值沿用外层已有的标签
func WithCall(ctx context.Context, workflow, provider string) context.Context {
	cur, _ := ctx.Value(callKey{}).(Call)
	if w := strings.TrimSpace(workflow); w != "" {
		cur.Workflow = w
	}
	if p := strings.TrimSpace(provider); p != "" {
		cur.Provider = p
	}
	return context.WithValue(ctx, callKey{}, cur)
}

// From 读取调用标签，缺失的字段返回 "unknown"
func From(ctx context.Context) Call {
	c := Call{Workflow: unknown, Provider: unknown}
	if ctx == nil {
		return c
	}
	cur, _ := ctx.Value(callKey{}).(Call)
	if cur.Workflow != "" {
		c.Workflow = cur.Workflow
	}
	if cur.Provider != "" {
		c.Provider = cur.Provider
	}
	return c
}
