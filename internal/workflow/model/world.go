package model

// WorldGenerateInput 世界生成工作流的输入
type WorldGenerateInput struct {
	Seed string
	// LocationCount 要求模型生成的地点数量
	LocationCount int

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int

	// StructuredOutput 为 true 时通过 response_format 约束输出 schema
	StructuredOutput bool
}
