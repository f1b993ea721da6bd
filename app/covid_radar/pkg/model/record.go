package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const observationSchema = `{
	"type": "object",
	"required": ["total", "breakdown", "sourceUrl", "observedAt"],
	"properties": {
		"total": {"type": "number", "minimum": 0},
		"breakdown": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["region", "count"],
				"additionalProperties": false,
				"properties": {
					"region": {"type": "string", "minLength": 1},
					"count": {"type": "number", "minimum": 0}
				}
			}
		},
		"extraSignals": {
			"type": "object",
			"additionalProperties": {"type": "number"}
		},
		"sourceUrl": {"type": "string"},
		"observedAt": {"type": "string", "minLength": 1}
	}
}`

var recordSchema = jsonschema.MustCompileString("observation.json", observationSchema)

// Validate 校验一条编码后的 Observation 记录
func Validate(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := recordSchema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}

// Encode 编码并校验 Observation，所有存储和输出路径都通过这里写入
func Encode(obs Observation) ([]byte, error) {
	if obs.Breakdown == nil {
		obs.Breakdown = []RegionCount{}
	}
	b, err := json.Marshal(obs)
	if err != nil {
		return nil, fmt.Errorf("marshal observation: %w", err)
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Decode 校验并解码 Observation
func Decode(raw []byte) (*Observation, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var obs Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return nil, fmt.Errorf("unmarshal observation: %w", err)
	}
	return &obs, nil
}
