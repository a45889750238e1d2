package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"worldforge/internal/application/forge"
	"worldforge/internal/domain/world"
	"worldforge/internal/interfaces/http/dto"
	apperrors "worldforge/pkg/errors"
	"worldforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ForgeHandler 世界生成与展示状态接口
type ForgeHandler struct {
	store     *forge.Store
	basePath  string
	heartbeat time.Duration
}

// ForgeOption ForgeHandler 可选项
type ForgeOption func(*ForgeHandler)

// WithHeartbeat 设置 SSE 心跳间隔
func WithHeartbeat(d time.Duration) ForgeOption {
	return func(h *ForgeHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewForgeHandler 创建处理器；basePath 为路由组前缀，用于生成图像下载地址
func NewForgeHandler(store *forge.Store, basePath string, opts ...ForgeOption) *ForgeHandler {
	h := &ForgeHandler{
		store:     store,
		basePath:  basePath,
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetState 当前展示状态
// @Router /v1/forge/state [get]
func (h *ForgeHandler) GetState(c *gin.Context) {
	dto.Success(c, dto.NewStateResponse(h.store.Snapshot(), h.basePath))
}

// SubmitSeed 提交种子开始生成世界。空白种子返回 200 且 accepted=false。
// @Router /v1/forge/world [post]
func (h *ForgeHandler) SubmitSeed(c *gin.Context) {
	var req dto.SubmitSeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.AppError(c, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	t := h.store.StartWorldGeneration(c.Request.Context(), req.Seed)
	respondTicket(c, t)
}

// Reset 丢弃当前世界
// @Router /v1/forge/reset [post]
func (h *ForgeHandler) Reset(c *gin.Context) {
	h.store.Reset()
	dto.NoContent(c)
}

// DismissError 清除世界生成错误
// @Router /v1/forge/error [delete]
func (h *ForgeHandler) DismissError(c *gin.Context) {
	h.store.DismissError()
	dto.NoContent(c)
}

// RequestLocationImage 为地点生成图像
// @Router /v1/forge/locations/{id}/image [post]
func (h *ForgeHandler) RequestLocationImage(c *gin.Context) {
	req, ok := bindImageRequest(c)
	if !ok {
		return
	}

	t := h.store.RequestLocationImage(c.Request.Context(), c.Param("id"), req.OverrideText)
	if !t.Accepted() {
		dto.AppError(c, apperrors.ErrLocationNotFound.WithDetail(c.Param("id")))
		return
	}
	dto.Accepted(c, dto.NewTicketResponse(t))
}

// RequestAllLocationImages 为所有空闲地点生成图像
// @Router /v1/forge/locations/images [post]
func (h *ForgeHandler) RequestAllLocationImages(c *gin.Context) {
	req, ok := bindImageRequest(c)
	if !ok {
		return
	}

	t := h.store.RequestAllLocationImages(c.Request.Context(), req.OverrideText)
	respondTicket(c, t)
}

// DownloadLocationImage 下载地点当前的图像
// @Router /v1/forge/locations/{id}/image [get]
func (h *ForgeHandler) DownloadLocationImage(c *gin.Context) {
	id := c.Param("id")
	img, ok := h.store.LocationImage(id)
	if !ok {
		dto.AppError(c, apperrors.ErrImageNotFound.WithDetail(id))
		return
	}

	label := id
	if lv, found := h.store.Snapshot().Location(id); found {
		label = lv.Name
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = world.DefaultImageMIMEType
	}

	disposition := "inline"
	if c.Query("download") != "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{
		"filename": world.ImageFilename(label, img),
	}))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, img.Data)
}

// ExpandImage 放大查看地点图像
// @Router /v1/forge/expanded [post]
func (h *ForgeHandler) ExpandImage(c *gin.Context) {
	var req dto.ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.AppError(c, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}
	if !h.store.ExpandLocationImage(req.LocationID) {
		dto.AppError(c, apperrors.ErrImageNotFound.WithDetail(req.LocationID))
		return
	}
	dto.NoContent(c)
}

// CloseExpandedImage 关闭放大查看
// @Router /v1/forge/expanded [delete]
func (h *ForgeHandler) CloseExpandedImage(c *gin.Context) {
	h.store.CloseExpandedImage()
	dto.NoContent(c)
}

// Export 下载世界文档（包含已生成的图像）
// @Router /v1/forge/export [get]
func (h *ForgeHandler) Export(c *gin.Context) {
	doc, err := h.store.Export()
	if err != nil {
		if errors.Is(err, forge.ErrNoWorld) {
			dto.AppError(c, apperrors.ErrWorldNotFound)
			return
		}
		dto.AppError(c, apperrors.ErrInternalError.WithError(err))
		return
	}

	body, err := world.MarshalDocument(doc)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to marshal world document", err)
		dto.AppError(c, apperrors.ErrInternalError.WithError(err))
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": world.ExportFilename(doc.Title),
	}))
	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Data(http.StatusOK, "application/json", body)
}

// respondTicket 受理返回 202，被忽略返回 200
func respondTicket(c *gin.Context, t *forge.Ticket) {
	if t.Accepted() {
		dto.Accepted(c, dto.NewTicketResponse(t))
		return
	}
	dto.Success(c, dto.NewTicketResponse(t))
}

// bindImageRequest 请求体可以为空
func bindImageRequest(c *gin.Context) (dto.ImageRequest, bool) {
	var req dto.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.AppError(c, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return req, false
	}
	return req, true
}
