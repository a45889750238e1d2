package world

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Document 可下载的世界导出文档：世界内容加上每个地点最近一次生成的图像。
// 生成中标记等瞬时状态不属于导出内容。
type Document struct {
	Title     string             `json:"title"`
	TitleKo   string             `json:"title_ko"`
	Tagline   string             `json:"tagline"`
	TaglineKo string             `json:"tagline_ko"`
	Pillars   []Pillar           `json:"pillars"`
	Locations []DocumentLocation `json:"locations"`
}

// DocumentLocation 导出文档中的地点
type DocumentLocation struct {
	Location
	GeneratedImage *Image `json:"generatedImage,omitempty"`
}

// NewDocument 合并世界内容与图像映射（id -> image）
func NewDocument(w *World, images map[string]Image) *Document {
	if w == nil {
		return nil
	}
	doc := &Document{
		Title:     w.Title,
		TitleKo:   w.TitleKo,
		Tagline:   w.Tagline,
		TaglineKo: w.TaglineKo,
		Pillars:   append([]Pillar(nil), w.Pillars...),
		Locations: make([]DocumentLocation, 0, len(w.Locations)),
	}
	for _, loc := range w.Locations {
		dl := DocumentLocation{Location: loc}
		if img, ok := images[loc.ID]; ok && !img.IsZero() {
			imgCopy := img
			dl.GeneratedImage = &imgCopy
		}
		doc.Locations = append(doc.Locations, dl)
	}
	return doc
}

// Split 将文档拆回世界内容与图像映射
func (d *Document) Split() (*World, map[string]Image) {
	if d == nil {
		return nil, nil
	}
	w := &World{
		Title:     d.Title,
		TitleKo:   d.TitleKo,
		Tagline:   d.Tagline,
		TaglineKo: d.TaglineKo,
		Pillars:   append([]Pillar(nil), d.Pillars...),
		Locations: make([]Location, 0, len(d.Locations)),
	}
	images := make(map[string]Image)
	for _, dl := range d.Locations {
		w.Locations = append(w.Locations, dl.Location)
		if dl.GeneratedImage != nil {
			images[dl.ID] = *dl.GeneratedImage
		}
	}
	return w, images
}

// MarshalDocument 以缩进 JSON 序列化文档
func MarshalDocument(d *Document) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("document is nil")
	}
	return json.MarshalIndent(d, "", "  ")
}

// ParseDocument 解析导出文档
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse world document: %w", err)
	}
	return &d, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFilename 由标题得到下载文件名，例如 "Neon Tide" -> "neon_tide.json"
func ExportFilename(title string) string {
	name := strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(title), "_"))
	if name == "" {
		name = "world"
	}
	return name + ".json"
}

// ImageFilename 由地点名得到图像下载文件名，例如 "Sunken Dock" -> "worldforge-ai-sunken-dock.jpg"
func ImageFilename(label string, img Image) string {
	name := strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(label), "-"))
	if name == "" {
		name = "location"
	}
	return "worldforge-ai-" + name + img.Extension()
}
