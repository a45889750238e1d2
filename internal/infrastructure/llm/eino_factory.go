package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"worldforge/internal/config"
)

// EinoFactory 按提供商名惰性创建并缓存 OpenAI 兼容的 ChatModel
type EinoFactory struct {
	config config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg config.LLMConfig) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	name, providerCfg, ok := f.config.Provider(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("no llm provider specified and no default provider configured")
	}

	f.mu.RLock()
	m, cached := f.models[name]
	f.mu.RUnlock()
	if cached {
		return m, nil
	}

	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if m, cached = f.models[name]; cached {
		return m, nil
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig(providerCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// Configured 默认提供商是否具备可用的 API Key 与模型
func (f *EinoFactory) Configured() bool {
	_, p, ok := f.config.Provider("")
	return ok && strings.TrimSpace(p.APIKey) != "" && strings.TrimSpace(p.Model) != ""
}

func chatModelConfig(p config.ProviderConfig) *openai.ChatModelConfig {
	cfg := &openai.ChatModelConfig{
		APIKey:  p.APIKey,
		BaseURL: p.BaseURL,
		Model:   p.Model,
		Timeout: p.Timeout,
	}
	// 未配置的采样参数交给服务端默认值
	if p.MaxTokens > 0 {
		maxTokens := p.MaxTokens
		cfg.MaxTokens = &maxTokens
	}
	if p.Temperature > 0 {
		temp := float32(p.Temperature)
		cfg.Temperature = &temp
	}
	return cfg
}
