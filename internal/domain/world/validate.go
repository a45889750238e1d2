package world

import (
	"fmt"
	"regexp"
	"strings"
)

// LocationIDPattern 地点 ID 会出现在图像下载路径中，只允许 URL 路径安全的字符
const LocationIDPattern = `^[A-Za-z0-9_-]+$`

var locationIDRe = regexp.MustCompile(LocationIDPattern)

// ValidateOptions 校验参数
type ValidateOptions struct {
	// LocationCount 要求的地点数量；<=0 时使用 DefaultLocationCount
	LocationCount int
}

// ValidationError 汇总所有校验问题
type ValidationError struct {
	Issues []string
}

func (e ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "world validation failed"
	}
	return "world validation failed: " + strings.Join(e.Issues, "; ")
}

// Validate 对模型返回的世界做强约束校验，不接受部分合格的结果。
// 主题数量 3~5 只是期望值，不在此强制。
func Validate(w *World, opts ValidateOptions) error {
	if w == nil {
		return ValidationError{Issues: []string{"world is nil"}}
	}
	want := opts.LocationCount
	if want <= 0 {
		want = DefaultLocationCount
	}

	var issues []string
	required := func(path, v string) {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, path+" is required")
		}
	}

	required("title", w.Title)
	required("title_ko", w.TitleKo)
	required("tagline", w.Tagline)
	required("tagline_ko", w.TaglineKo)

	if len(w.Pillars) == 0 {
		issues = append(issues, "pillars must not be empty")
	}
	for i, p := range w.Pillars {
		path := fmt.Sprintf("pillars[%d]", i)
		required(path+".en", p.En)
		required(path+".ko", p.Ko)
	}

	if len(w.Locations) != want {
		issues = append(issues, fmt.Sprintf("locations must contain exactly %d entries, got %d", want, len(w.Locations)))
	}
	seen := make(map[string]struct{}, len(w.Locations))
	for i, loc := range w.Locations {
		path := fmt.Sprintf("locations[%d]", i)

		id := strings.TrimSpace(loc.ID)
		if id == "" {
			issues = append(issues, path+".id is required")
		} else if !locationIDRe.MatchString(loc.ID) {
			issues = append(issues, path+".id must match "+LocationIDPattern+": "+loc.ID)
		} else if _, dup := seen[id]; dup {
			issues = append(issues, path+".id duplicated: "+id)
		} else {
			seen[id] = struct{}{}
		}

		required(path+".name", loc.Name)
		required(path+".name_ko", loc.NameKo)
		required(path+".role", loc.Role)
		required(path+".role_ko", loc.RoleKo)
		required(path+".mood", loc.Mood)
		required(path+".mood_ko", loc.MoodKo)
		required(path+".story_hint", loc.StoryHint)
		required(path+".story_hint_ko", loc.StoryHintKo)
		required(path+".image_prompt_short", loc.ImagePromptShort)
		required(path+".image_prompt_long", loc.ImagePromptLong)
	}

	if len(issues) > 0 {
		return ValidationError{Issues: issues}
	}
	return nil
}
