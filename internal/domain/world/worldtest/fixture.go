// Package worldtest 提供测试用的世界样例
package worldtest

import (
	"fmt"

	"worldforge/internal/domain/world"
)

// SampleWorld 返回一个包含 n 个地点的完整世界；第一个地点的 ID 为 dock_01
func SampleWorld(n int) *world.World {
	w := &world.World{
		Title:     "Drowned Neon Covenant",
		TitleKo:   "가라앉은 네온 서약",
		Tagline:   "Beneath the rising tide, the city still hums.",
		TaglineKo: "차오르는 물결 아래, 도시는 여전히 웅웅거린다.",
		Pillars: []world.Pillar{
			{En: "Water reclaims everything", Ko: "물은 모든 것을 되찾는다"},
			{En: "Light is currency", Ko: "빛은 화폐다"},
			{En: "Memory lives in machines", Ko: "기억은 기계 속에 산다"},
		},
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("district_%02d", i+1)
		if i == 0 {
			id = "dock_01"
		}
		w.Locations = append(w.Locations, world.Location{
			ID:               id,
			Name:             fmt.Sprintf("Place %d", i+1),
			NameKo:           fmt.Sprintf("장소 %d", i+1),
			Role:             "trade hub",
			RoleKo:           "무역 중심지",
			Mood:             "foggy / neon / flooded",
			MoodKo:           "안개 / 네온 / 침수",
			StoryHint:        "Something glows under the pier.",
			StoryHintKo:      "부두 아래에서 무언가가 빛난다.",
			ImagePromptShort: "flooded neon dock",
			ImagePromptLong:  fmt.Sprintf("A vast flooded neon dock number %d at night, cinematic lighting", i+1),
		})
	}
	return w
}

// SampleImage 返回一个小的 JPEG 占位图像
func SampleImage(tag string) world.Image {
	return world.Image{MIMEType: world.DefaultImageMIMEType, Data: []byte("jpeg:" + tag)}
}
