package hrmless

import (
	"embed"
	"encoding/json"
	"fmt"
)

// Sample payloads returned by the API, with internal fields already removed
// where the action strips them.
//
//go:embed samples/*.json
var sampleFS embed.FS

// Sample decodes the embedded sample named name (without extension).
func Sample(name string) (any, error) {
	data, err := sampleFS.ReadFile("samples/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("sample %q: %w", name, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("sample %q: %w", name, err)
	}
	return v, nil
}

func mustSample(name string) any {
	v, err := Sample(name)
	if err != nil {
		panic(err)
	}
	return v
}
