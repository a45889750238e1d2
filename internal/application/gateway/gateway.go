// Package gateway 封装对两个外部模型的单次请求：结构化世界生成与地点图像渲染
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"

	"worldforge/internal/domain/world"
	wfmodel "worldforge/internal/workflow/model"
	wfnode "worldforge/internal/workflow/node"
	"worldforge/pkg/logger"
	"worldforge/pkg/metrics"
	"worldforge/pkg/tracer"
)

const (
	opRequestWorld = "request_world"
	opRequestImage = "request_image"

	// payloadPreviewRunes 无法使用的模型输出在日志中保留的长度
	payloadPreviewRunes = 200
)

// Gateway 生成网关；两个请求彼此独立，均只尝试一次
type Gateway interface {
	RequestWorld(ctx context.Context, seed string) (*world.World, error)
	RequestImage(ctx context.Context, prompt string) (world.Image, error)
}

// WorldGenerator 文本模型调用（由 eino chain 实现）
type WorldGenerator interface {
	Invoke(ctx context.Context, in *wfmodel.WorldGenerateInput) (*schema.Message, error)
}

// Renderer 图像模型调用
type Renderer interface {
	Render(ctx context.Context, prompt string) (world.Image, error)
}

// Options 网关参数
type Options struct {
	Provider         string
	Model            string
	LocationCount    int
	StructuredOutput bool
}

// Service Gateway 的默认实现
type Service struct {
	generator WorldGenerator
	renderer  Renderer
	opts      Options
	schema    *jsonschema.Schema
}

var _ Gateway = (*Service)(nil)

// NewService 创建网关服务
func NewService(generator WorldGenerator, renderer Renderer, opts Options) (*Service, error) {
	if generator == nil {
		return nil, fmt.Errorf("world generator is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("image renderer is required")
	}
	if opts.LocationCount <= 0 {
		opts.LocationCount = world.DefaultLocationCount
	}
	s, err := compileWorldSchema(opts.LocationCount)
	if err != nil {
		return nil, err
	}
	return &Service{generator: generator, renderer: renderer, opts: opts, schema: s}, nil
}

// RequestWorld 根据种子生成一个完整的世界；任一字段缺失或结构不符都视为失败
func (s *Service) RequestWorld(ctx context.Context, seed string) (w *world.World, err error) {
	ctx, span := tracer.Start(ctx, "gateway.request_world")
	start := time.Now()
	defer func() {
		observe(opRequestWorld, start, err)
		tracer.End(span, err, attribute.String("gateway.reason", string(ReasonOf(err))))
	}()

	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, generationFailure(ReasonInvalidInput, errors.New("seed is empty"))
	}

	msg, err := s.generator.Invoke(ctx, &wfmodel.WorldGenerateInput{
		Seed:             seed,
		LocationCount:    s.opts.LocationCount,
		Provider:         s.opts.Provider,
		Model:            s.opts.Model,
		StructuredOutput: s.opts.StructuredOutput,
	})
	if err != nil {
		if s.opts.StructuredOutput && wfnode.IsResponseFormatUnsupportedError(err) {
			logger.Warn(ctx, "provider rejected structured output, consider disabling llm.structured_output",
				"provider", s.opts.Provider,
				"error", err.Error(),
			)
		} else {
			logger.Warn(ctx, "world generation request failed", "error", err.Error())
		}
		return nil, generationFailure(ReasonTransport, err)
	}
	if msg == nil {
		return nil, generationFailure(ReasonEmpty, errors.New("no message returned"))
	}

	w, err = s.decodeWorld(msg.Content)
	if err != nil {
		logger.Warn(ctx, "world generation returned unusable payload",
			"reason", string(ReasonOf(err)),
			"error", err.Error(),
			"preview", wfnode.TruncateByRunes(msg.Content, payloadPreviewRunes),
		)
		return nil, err
	}

	logger.Info(ctx, "world generated",
		"title", w.Title,
		"locations", len(w.Locations),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return w, nil
}

// decodeWorld 抽取、解码并校验模型输出
func (s *Service) decodeWorld(content string) (*world.World, error) {
	raw := wfnode.ExtractJSONObject(content)
	if raw == "" {
		return nil, generationFailure(ReasonEmpty, errors.New("no text returned"))
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, generationFailure(ReasonMalformed, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return nil, generationFailure(ReasonInvalidShape, err)
	}

	var w world.World
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, generationFailure(ReasonMalformed, err)
	}
	if err := world.Validate(&w, world.ValidateOptions{LocationCount: s.opts.LocationCount}); err != nil {
		return nil, generationFailure(ReasonInvalidShape, err)
	}
	return &w, nil
}

// RequestImage 按提示词请求一张图像
func (s *Service) RequestImage(ctx context.Context, prompt string) (img world.Image, err error) {
	ctx, span := tracer.Start(ctx, "gateway.request_image")
	start := time.Now()
	defer func() {
		observe(opRequestImage, start, err)
		tracer.End(span, err,
			attribute.String("gateway.reason", string(ReasonOf(err))),
			attribute.Int("image.bytes", len(img.Data)),
		)
	}()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return world.Image{}, imageFailure(ReasonInvalidInput, errors.New("prompt is empty"))
	}

	img, err = s.renderer.Render(ctx, prompt)
	if err != nil {
		logger.Warn(ctx, "image request failed", "error", err.Error())
		return world.Image{}, imageFailure(ReasonTransport, err)
	}
	if img.IsZero() {
		return world.Image{}, imageFailure(ReasonEmpty, errors.New("no image data found in response"))
	}
	if img.MIMEType == "" {
		img.MIMEType = world.DefaultImageMIMEType
	}

	logger.Debug(ctx, "image generated", "bytes", len(img.Data), "mime", img.MIMEType)
	return img, nil
}

func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = string(ReasonOf(err))
		if status == "" {
			status = "error"
		}
	}
	metrics.GatewayRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
