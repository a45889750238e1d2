package forge

import "worldforge/internal/domain/world"

// View 由状态推导出的展示区域，任一时刻只有一个
type View string

const (
	ViewIdle    View = "idle"
	ViewLoading View = "loading"
	ViewError   View = "error"
	ViewResult  View = "result"
)

// LocationView 地点内容与其图像状态的合并视图
type LocationView struct {
	world.Location
	IsGeneratingImage bool         `json:"isGeneratingImage"`
	GeneratedImage    *world.Image `json:"generatedImage,omitempty"`
}

// WorldView 当前世界的展示数据
type WorldView struct {
	Title     string         `json:"title"`
	TitleKo   string         `json:"title_ko"`
	Tagline   string         `json:"tagline"`
	TaglineKo string         `json:"tagline_ko"`
	Pillars   []world.Pillar `json:"pillars"`
	Locations []LocationView `json:"locations"`
}

// ExpandedImage 放大查看的图像及其标签，仅影响展示
type ExpandedImage struct {
	Image world.Image `json:"image"`
	Label string      `json:"label"`
}

// Snapshot 某一时刻的完整状态
type Snapshot struct {
	View      View           `json:"view"`
	IsLoading bool           `json:"isLoading"`
	Error     string         `json:"error,omitempty"`
	World     *WorldView     `json:"world,omitempty"`
	Expanded  *ExpandedImage `json:"expandedImage,omitempty"`
}

// Location 按 ID 查找快照中的地点
func (s Snapshot) Location(id string) (LocationView, bool) {
	if s.World == nil {
		return LocationView{}, false
	}
	for _, lv := range s.World.Locations {
		if lv.ID == id {
			return lv, true
		}
	}
	return LocationView{}, false
}

// deriveView 加载中优先，其次错误，再次结果
func deriveView(loading bool, errMsg string, hasWorld bool) View {
	switch {
	case loading:
		return ViewLoading
	case errMsg != "":
		return ViewError
	case hasWorld:
		return ViewResult
	default:
		return ViewIdle
	}
}
