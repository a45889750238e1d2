// Package world 定义生成的世界（World）及其地点（Location）等领域模型
package world

import "strings"

// DefaultLocationCount 每个世界固定生成的地点数量
const DefaultLocationCount = 6

// World 一次文本生成得到的完整世界设定。
// 除地点图像外，所有字段在生成后不可变；图像状态由状态存储单独维护。
type World struct {
	Title     string     `json:"title"`
	TitleKo   string     `json:"title_ko"`
	Tagline   string     `json:"tagline"`
	TaglineKo string     `json:"tagline_ko"`
	Pillars   []Pillar   `json:"pillars"`
	Locations []Location `json:"locations"`
}

// Pillar 世界的核心主题（英文/韩文双语），只有位置没有身份
type Pillar struct {
	En string `json:"en"`
	Ko string `json:"ko"`
}

// Location 世界中的一个地点。ID 是所有图像状态更新的关联键。
type Location struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	NameKo           string `json:"name_ko"`
	Role             string `json:"role"`
	RoleKo           string `json:"role_ko"`
	Mood             string `json:"mood"`
	MoodKo           string `json:"mood_ko"`
	StoryHint        string `json:"story_hint"`
	StoryHintKo      string `json:"story_hint_ko"`
	ImagePromptShort string `json:"image_prompt_short"`
	ImagePromptLong  string `json:"image_prompt_long"`
}

// Location 按 ID 查找地点
func (w *World) Location(id string) (Location, bool) {
	if w == nil {
		return Location{}, false
	}
	for _, loc := range w.Locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}

// LocationIDs 按展示顺序返回所有地点 ID
func (w *World) LocationIDs() []string {
	if w == nil {
		return nil
	}
	ids := make([]string, 0, len(w.Locations))
	for _, loc := range w.Locations {
		ids = append(ids, loc.ID)
	}
	return ids
}

// Clone 返回深拷贝，调用方可以自由持有
func (w *World) Clone() *World {
	if w == nil {
		return nil
	}
	cp := *w
	cp.Pillars = append([]Pillar(nil), w.Pillars...)
	cp.Locations = append([]Location(nil), w.Locations...)
	return &cp
}

// MoodTags 将 "foggy / neon / ruined" 形式的氛围描述拆成标签
func (l Location) MoodTags() []string {
	parts := strings.Split(l.Mood, "/")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
