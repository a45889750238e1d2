package llm

import (
	"context"
	"testing"
	"time"

	"worldforge/internal/config"
)

func TestEinoFactory_UnknownProvider(t *testing.T) {
	f := NewEinoFactory(config.LLMConfig{DefaultProvider: "gemini"})
	if _, err := f.Get(context.Background(), ""); err == nil {
		t.Fatalf("expected error for provider missing from config")
	}
	if _, err := NewEinoFactory(config.LLMConfig{}).Get(context.Background(), ""); err == nil {
		t.Fatalf("expected error when no default provider")
	}
}

func TestEinoFactory_Configured(t *testing.T) {
	cfg := config.LLMConfig{
		DefaultProvider: "gemini",
		Providers: map[string]config.ProviderConfig{
			"gemini": {APIKey: "k", Model: "gemini-2.5-flash"},
		},
	}
	if !NewEinoFactory(cfg).Configured() {
		t.Fatalf("expected configured")
	}
	cfg.Providers["gemini"] = config.ProviderConfig{Model: "gemini-2.5-flash"}
	if NewEinoFactory(cfg).Configured() {
		t.Fatalf("missing api key should not count as configured")
	}
}

func TestChatModelConfig_OmitsZeroSampling(t *testing.T) {
	c := chatModelConfig(config.ProviderConfig{APIKey: "k", Model: "m", Timeout: time.Minute})
	if c.MaxTokens != nil || c.Temperature != nil {
		t.Fatalf("zero sampling params should stay nil: %+v", c)
	}
	c = chatModelConfig(config.ProviderConfig{MaxTokens: 4096, Temperature: 0.9})
	if c.MaxTokens == nil || *c.MaxTokens != 4096 {
		t.Fatalf("max tokens=%v", c.MaxTokens)
	}
	if c.Temperature == nil || *c.Temperature != float32(0.9) {
		t.Fatalf("temperature=%v", c.Temperature)
	}
}
