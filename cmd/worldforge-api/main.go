// Package main WorldForge API 服务入口
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worldforge/internal/application/forge"
	"worldforge/internal/application/gateway"
	"worldforge/internal/config"
	"worldforge/internal/infrastructure/imagegen"
	"worldforge/internal/infrastructure/llm"
	"worldforge/internal/interfaces/http/handler"
	"worldforge/internal/interfaces/http/router"
	einoobs "worldforge/internal/observability/eino"
	"worldforge/internal/workflow/chain"
	"worldforge/pkg/logger"
	"worldforge/pkg/tracer"

	"github.com/joho/godotenv"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting worldforge-api",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// Eino 全局 callbacks（指标/追踪）
	einoobs.Init()

	textModels := llm.NewEinoFactory(cfg.LLM)
	images, err := imagegen.New(ctx, cfg.Image)
	if err != nil {
		logger.Fatal(ctx, "failed to create image client", err)
	}
	store, err := buildStore(ctx, cfg, textModels, images)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize forge", err)
	}

	r := router.New(cfg, router.Handlers{
		Health: handler.NewHealthHandler(cfg.App.Version, textModels, images),
		Forge:  handler.NewForgeHandler(store, router.ForgeBasePath),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// SSE 连接不会随 Shutdown 自行结束，关闭订阅让它们退出
	srv.RegisterOnShutdown(store.Close)

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "http server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	timeout := cfg.Server.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	// 等待进行中的生成请求落定，避免半途丢弃
	if err := store.Drain(shutdownCtx); err != nil {
		log.Warn("pending generations abandoned", "error", err)
	}

	log.Info("server exited")
}

// buildStore 组装网关与状态存储。模型未配置时仍然启动，由 /ready 报告未就绪。
func buildStore(ctx context.Context, cfg *config.Config, textModels *llm.EinoFactory, images *imagegen.Client) (*forge.Store, error) {
	providerName, provider, _ := cfg.LLM.Provider("")
	if !textModels.Configured() {
		logger.Warn(ctx, "no llm provider configured, world generation will fail", "provider", providerName)
	}
	if !images.Configured() {
		logger.Warn(ctx, "image.api_key not set, location images will fail")
	}

	gw, err := gateway.NewService(chain.NewWorldChain(textModels), images, gateway.Options{
		Provider:         providerName,
		Model:            provider.Model,
		LocationCount:    cfg.World.LocationCount,
		StructuredOutput: cfg.LLM.StructuredOutput,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "forge ready",
		"text_provider", providerName,
		"text_model", provider.Model,
		"image_model", images.Model(),
		"locations", cfg.World.LocationCount,
	)
	return forge.NewStore(gw, forge.Options{MaxParallel: cfg.Image.MaxParallel}), nil
}
