package handler

import (
	"io"
	"time"

	"worldforge/internal/application/forge"
	"worldforge/internal/interfaces/http/dto"
	"worldforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// eventBuffer 单个 SSE 连接的事件缓冲；慢客户端丢事件，但下一次 state 事件总是完整快照
const eventBuffer = 32

// Events 以 SSE 推送状态快照（state）与瞬时提示（notice）
// @Produce text/event-stream
// @Router /v1/forge/events [get]
func (h *ForgeHandler) Events(c *gin.Context) {
	events, cancel := h.store.Subscribe(eventBuffer)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	logger.Debug(ctx, "event stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			h.writeEvent(c, ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-ctx.Done():
			logger.Debug(ctx, "event stream closed")
			return false
		}
	})
}

func (h *ForgeHandler) writeEvent(c *gin.Context, ev forge.Event) {
	switch ev.Kind {
	case forge.EventState:
		if ev.Snapshot != nil {
			c.SSEvent(string(forge.EventState), dto.NewStateResponse(*ev.Snapshot, h.basePath))
		}
	case forge.EventNotice:
		if ev.Notice != nil {
			c.SSEvent(string(forge.EventNotice), dto.NewNoticeResponse(*ev.Notice))
		}
	}
}
