package dto

import (
	"net/url"
	"strings"

	"worldforge/internal/application/forge"
	"worldforge/internal/domain/world"
)

// SubmitSeedRequest 提交种子文本
type SubmitSeedRequest struct {
	Seed string `json:"seed"`
}

// ImageRequest 请求地点图像；override_text 为可选的补充描述
type ImageRequest struct {
	OverrideText string `json:"override_text"`
}

// ExpandRequest 放大查看某地点的已生成图像
type ExpandRequest struct {
	LocationID string `json:"location_id" binding:"required"`
}

// TicketResponse 异步操作受理结果
type TicketResponse struct {
	TicketID string `json:"ticket_id,omitempty"`
	Accepted bool   `json:"accepted"`
}

// NewTicketResponse 从 Ticket 构建响应
func NewTicketResponse(t *forge.Ticket) TicketResponse {
	return TicketResponse{TicketID: t.ID(), Accepted: t.Accepted()}
}

// LocationResponse 地点展示数据。图像以下载地址给出，避免在每次状态推送中携带完整图像。
type LocationResponse struct {
	world.Location
	MoodTags          []string `json:"mood_tags"`
	IsGeneratingImage bool     `json:"isGeneratingImage"`
	ImageURL          string   `json:"image_url,omitempty"`
	ImageMIMEType     string   `json:"image_mime_type,omitempty"`
}

// WorldResponse 世界展示数据
type WorldResponse struct {
	Title     string             `json:"title"`
	TitleKo   string             `json:"title_ko"`
	Tagline   string             `json:"tagline"`
	TaglineKo string             `json:"tagline_ko"`
	Pillars   []world.Pillar     `json:"pillars"`
	Locations []LocationResponse `json:"locations"`
}

// ExpandedImageResponse 放大视图，图像保留为 data URI
type ExpandedImageResponse struct {
	Image world.Image `json:"image"`
	Label string      `json:"label"`
}

// StateResponse 完整展示状态
type StateResponse struct {
	View          forge.View             `json:"view"`
	IsLoading     bool                   `json:"isLoading"`
	Error         string                 `json:"error,omitempty"`
	World         *WorldResponse         `json:"world,omitempty"`
	ExpandedImage *ExpandedImageResponse `json:"expandedImage,omitempty"`
}

// NoticeResponse 非阻塞提示
type NoticeResponse struct {
	Message    string `json:"message"`
	LocationID string `json:"location_id,omitempty"`
}

// LocationImagePath 地点图像的下载地址
func LocationImagePath(basePath, locationID string) string {
	return strings.TrimRight(basePath, "/") + "/locations/" + url.PathEscape(locationID) + "/image"
}

// NewStateResponse 将快照映射为响应；basePath 为 forge 路由组前缀
func NewStateResponse(snap forge.Snapshot, basePath string) StateResponse {
	resp := StateResponse{
		View:      snap.View,
		IsLoading: snap.IsLoading,
		Error:     snap.Error,
	}
	if snap.Expanded != nil {
		resp.ExpandedImage = &ExpandedImageResponse{Image: snap.Expanded.Image, Label: snap.Expanded.Label}
	}
	if snap.World == nil {
		return resp
	}

	w := &WorldResponse{
		Title:     snap.World.Title,
		TitleKo:   snap.World.TitleKo,
		Tagline:   snap.World.Tagline,
		TaglineKo: snap.World.TaglineKo,
		Pillars:   snap.World.Pillars,
		Locations: make([]LocationResponse, 0, len(snap.World.Locations)),
	}
	for _, lv := range snap.World.Locations {
		lr := LocationResponse{
			Location:          lv.Location,
			MoodTags:          lv.MoodTags(),
			IsGeneratingImage: lv.IsGeneratingImage,
		}
		if lv.GeneratedImage != nil {
			lr.ImageURL = LocationImagePath(basePath, lv.ID)
			lr.ImageMIMEType = lv.GeneratedImage.MIMEType
		}
		w.Locations = append(w.Locations, lr)
	}
	resp.World = w
	return resp
}

// NewNoticeResponse 映射提示事件
func NewNoticeResponse(n forge.Notice) NoticeResponse {
	return NoticeResponse{Message: n.Message, LocationID: n.LocationID}
}
