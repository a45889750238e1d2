package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"worldforge/internal/domain/world"
)

const worldSchemaURL = "mem://worldforge/world.schema.json"

// WorldSchema 返回下发给模型的 JSON Schema
func WorldSchema(locationCount int) map[string]any {
	return world.Schema(locationCount)
}

// compileWorldSchema 将 WorldSchema 编译为本地校验器
func compileWorldSchema(locationCount int) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(WorldSchema(locationCount))
	if err != nil {
		return nil, fmt.Errorf("marshal world schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(worldSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add world schema: %w", err)
	}
	s, err := c.Compile(worldSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile world schema: %w", err)
	}
	return s, nil
}
