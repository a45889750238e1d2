// Package prompt 提供内嵌的世界生成提示词模板
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// WorldForgeVersion 当前使用的模板版本，对应 templates/<version>.{system,user}.txt
const WorldForgeVersion = "world_forge_v1"

// WorldForge 返回世界生成的 ChatTemplate。
// 模板变量：seed（种子文本）、location_count（地点数量）。
var WorldForge = sync.OnceValues(func() (einoprompt.ChatTemplate, error) {
	return loadTemplate(WorldForgeVersion)
})

func loadTemplate(version string) (einoprompt.ChatTemplate, error) {
	system, err := readEmbeddedText("templates/" + version + ".system.txt")
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText("templates/" + version + ".user.txt")
	if err != nil {
		return nil, err
	}
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	), nil
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt template %s: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}
