// Package imagegen 通过 Google GenAI SDK 调用 Imagen 生成地点插图
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"worldforge/internal/config"
	"worldforge/internal/domain/world"
)

// ErrNoImage 模型响应中没有图像数据
var ErrNoImage = errors.New("no image data found in response")

// ErrNotConfigured 未配置 API Key，图像请求直接失败
var ErrNotConfigured = errors.New("image client not configured")

// imageModels 是 genai.Models 中本包用到的部分
type imageModels interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client Imagen 客户端，每次请求固定生成一张图
type Client struct {
	models      imageModels
	model       string
	aspectRatio string
	mimeType    string
}

// New 创建 Imagen 客户端。
// 缺少 API Key 时返回未配置的客户端：服务仍可启动，/ready 报告未就绪，图像请求以 ErrNotConfigured 失败。
func New(ctx context.Context, cfg config.ImageConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return newWithModels(nil, cfg), nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newWithModels(gc.Models, cfg), nil
}

func newWithModels(models imageModels, cfg config.ImageConfig) *Client {
	c := &Client{
		models:      models,
		model:       cfg.Model,
		aspectRatio: cfg.AspectRatio,
		mimeType:    cfg.OutputMIMEType,
	}
	if c.model == "" {
		c.model = "imagen-3.0-generate-001"
	}
	if c.aspectRatio == "" {
		c.aspectRatio = "16:9"
	}
	if c.mimeType == "" {
		c.mimeType = world.DefaultImageMIMEType
	}
	return c
}

// Render 按提示词生成一张图像
func (c *Client) Render(ctx context.Context, prompt string) (world.Image, error) {
	if !c.Configured() {
		return world.Image{}, ErrNotConfigured
	}
	resp, err := c.models.GenerateImages(ctx, c.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    c.aspectRatio,
		OutputMIMEType: c.mimeType,
	})
	if err != nil {
		return world.Image{}, err
	}
	if resp == nil {
		return world.Image{}, ErrNoImage
	}

	for _, gi := range resp.GeneratedImages {
		if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			continue
		}
		mime := gi.Image.MIMEType
		if mime == "" {
			mime = c.mimeType
		}
		return world.Image{MIMEType: mime, Data: gi.Image.ImageBytes}, nil
	}
	return world.Image{}, ErrNoImage
}

// Configured 是否具备可用的 Imagen 连接
func (c *Client) Configured() bool { return c != nil && c.models != nil }

// Model 返回使用的图像模型名
func (c *Client) Model() string { return c.model }
