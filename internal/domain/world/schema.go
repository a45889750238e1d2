package world

var locationFields = []string{
	"id", "name", "name_ko",
	"role", "role_ko",
	"mood", "mood_ko",
	"story_hint", "story_hint_ko",
	"image_prompt_short", "image_prompt_long",
}

// Schema 返回世界内容的 JSON Schema（map 形式）
// 同一份 schema 既下发给模型作为 response_format，也用于本地校验。
func Schema(locationCount int) map[string]any {
	if locationCount <= 0 {
		locationCount = DefaultLocationCount
	}

	locationProps := make(map[string]any, len(locationFields))
	required := make([]any, 0, len(locationFields))
	for _, f := range locationFields {
		locationProps[f] = map[string]any{"type": "string"}
		required = append(required, f)
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "title_ko", "tagline", "tagline_ko", "pillars", "locations"},
		"properties": map[string]any{
			"title":      map[string]any{"type": "string"},
			"title_ko":   map[string]any{"type": "string"},
			"tagline":    map[string]any{"type": "string"},
			"tagline_ko": map[string]any{"type": "string"},
			"pillars": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"en", "ko"},
					"properties": map[string]any{
						"en": map[string]any{"type": "string"},
						"ko": map[string]any{"type": "string"},
					},
				},
			},
			"locations": map[string]any{
				"type":     "array",
				"minItems": locationCount,
				"maxItems": locationCount,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             required,
					"properties":           locationProps,
				},
			},
		},
	}
}
