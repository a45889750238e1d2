package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"worldforge/internal/domain/world"
	"worldforge/internal/workflow/llmctx"
	wfmodel "worldforge/internal/workflow/model"
	workflowport "worldforge/internal/workflow/port"
	workflowprompt "worldforge/internal/workflow/prompt"
	"worldforge/pkg/logger"
)

// WorkflowWorldGenerate 世界生成调用在指标中的工作流标签
const WorkflowWorldGenerate = "world_generate"

// WorldChain 把种子文本变成一次结构化的模型调用：
// init -> template -> llm -> finalize。
type WorldChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.WorldGenerateInput, *schema.Message]
	chainErr  error
}

func NewWorldChain(factory workflowport.ChatModelFactory) *WorldChain {
	return &WorldChain{factory: factory}
}

// Invoke 执行一次生成；只调用一次模型，不做重试
func (c *WorldChain) Invoke(ctx context.Context, in *wfmodel.WorldGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type worldChainState struct {
	In       *wfmodel.WorldGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *WorldChain) getChain() (compose.Runnable[*wfmodel.WorldGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *WorldChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.WorldGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.WorldGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.WorldGenerateInput) (*worldChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.Seed) == "" {
				return nil, fmt.Errorf("seed is empty")
			}
			return &worldChainState{In: in}, nil
		}),
		compose.WithNodeName("world.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *worldChainState) (*worldChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatWorldMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("world.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *worldChainState) (*worldChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			provider := strings.TrimSpace(st.In.Provider)
			ctx = llmctx.WithCall(ctx, WorkflowWorldGenerate, provider)
			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			logger.Debug(ctx, "requesting world from text model",
				"provider", provider,
				"model", strings.TrimSpace(st.In.Model),
				"structured_output", st.In.StructuredOutput,
			)
			outMsg, err := chatModel.Generate(ctx, st.Messages, buildWorldModelOptions(st.In)...)
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("world.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *worldChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("world.finalize"),
	)

	return chain.Compile(ctx)
}

func formatWorldMessages(ctx context.Context, in *wfmodel.WorldGenerateInput) ([]*schema.Message, error) {
	tpl, err := workflowprompt.WorldForge()
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"seed":           strings.TrimSpace(in.Seed),
		"location_count": locationCount(in),
	}
	return tpl.Format(ctx, vars)
}

func buildWorldModelOptions(in *wfmodel.WorldGenerateInput) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}

	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}

	if in.StructuredOutput {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "world_package",
					"strict": false,
					"schema": world.Schema(locationCount(in)),
				},
			},
		}))
	}

	return opts
}

func locationCount(in *wfmodel.WorldGenerateInput) int {
	if in == nil || in.LocationCount <= 0 {
		return world.DefaultLocationCount
	}
	return in.LocationCount
}
