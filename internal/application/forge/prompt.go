package forge

import "strings"

const (
	// WorldFailureMessage 世界生成失败时展示给用户的固定文案
	WorldFailureMessage = "Failed to forge the world. The ether is disrupted. Please try again."
	// ImageFailureMessage 地点图像生成失败时的瞬时提示
	ImageFailureMessage = "Visual generation failed. The signal was lost."

	// ImagePromptSeparator 用户补充描述与地点长提示词之间的固定连接语
	ImagePromptSeparator = " Additional details and refinements: "
)

// ComposeImagePrompt 组合最终的图像提示词。
// 补充描述为空白时原样返回长提示词。
func ComposeImagePrompt(long, override string) string {
	extra := strings.TrimSpace(override)
	if extra == "" {
		return long
	}
	return long + ImagePromptSeparator + extra
}
