// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ModelChecker 模型客户端是否已配置
type ModelChecker interface {
	Configured() bool
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
	text    ModelChecker
	image   ModelChecker
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(version string, text, image ModelChecker) *HealthHandler {
	return &HealthHandler{version: version, text: text, image: image}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// Ready 就绪检查接口：文本模型与图像客户端都可用时才接收流量
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]*readinessCheck{
		"text_model":  {Status: "ok"},
		"image_model": {Status: "ok"},
	}
	ready := true

	if h.text == nil || !h.text.Configured() {
		checks["text_model"] = &readinessCheck{Status: "missing", Error: "no text model provider configured"}
		ready = false
	}
	if h.image == nil || !h.image.Configured() {
		checks["image_model"] = &readinessCheck{Status: "missing", Error: "image client not configured"}
		ready = false
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
