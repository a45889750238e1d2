package eino

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"worldforge/internal/workflow/llmctx"
	"worldforge/pkg/metrics"
)

// callStateKey 在 Context 中保存调用开始时间与模型名，供 OnEnd/OnError 使用
type callStateKey struct{}

type callState struct {
	start time.Time
	model string
}

// newChatModelCallbackHandler 记录每次模型调用的次数、耗时、Token 消耗，并生成 llm.generate span
func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			call := llmctx.From(ctx)
			modelName := modelNameFromInput(input)
			ctx = context.WithValue(ctx, callStateKey{}, callState{start: time.Now(), model: modelName})

			attrs := []attribute.KeyValue{
				attribute.String("eino.workflow", call.Workflow),
				attribute.String("llm.provider", call.Provider),
				attribute.String("llm.model", modelName),
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}

			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			call := llmctx.From(ctx)
			st := stateFrom(ctx)
			modelName := modelNameFromOutput(output)
			if modelName == "" {
				modelName = st.model
			}

			metrics.LLMCallTotal.WithLabelValues(call.Workflow, call.Provider, modelName, "success").Inc()
			if d := st.elapsedSeconds(); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(call.Workflow, call.Provider, modelName).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			if output != nil && output.TokenUsage != nil {
				promptTokens := output.TokenUsage.PromptTokens
				completionTokens := output.TokenUsage.CompletionTokens
				metrics.LLMTokensUsed.WithLabelValues(call.Workflow, call.Provider, modelName, "prompt").Add(float64(promptTokens))
				metrics.LLMTokensUsed.WithLabelValues(call.Workflow, call.Provider, modelName, "completion").Add(float64(completionTokens))
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", promptTokens),
					attribute.Int("llm.completion_tokens", completionTokens),
				)
			}
			span.End()
			return ctx
		},

		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			call := llmctx.From(ctx)
			st := stateFrom(ctx)

			metrics.LLMCallTotal.WithLabelValues(call.Workflow, call.Provider, st.model, "error").Inc()
			if d := st.elapsedSeconds(); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(call.Workflow, call.Provider, st.model).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		},
	}
}

func stateFrom(ctx context.Context) callState {
	st, _ := ctx.Value(callStateKey{}).(callState)
	return st
}

// elapsedSeconds 无开始时间时返回 0
func (st callState) elapsedSeconds() float64 {
	if st.start.IsZero() {
		return 0
	}
	return time.Since(st.start).Seconds()
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
