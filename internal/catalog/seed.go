package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleYAML []byte

// LoadFile reads a YAML (.yaml/.yml) or JSON seed and validates it.
func LoadFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	seed, err := Parse(data, format)
	if err != nil {
		return Seed{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return seed, nil
}

// Parse decodes a seed in format ("yaml" or "json") and validates it.
func Parse(data []byte, format string) (Seed, error) {
	var seed Seed
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return Seed{}, fmt.Errorf("decode yaml: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &seed); err != nil {
			return Seed{}, fmt.Errorf("decode json: %w", err)
		}
	default:
		return Seed{}, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err := Validate(seed); err != nil {
		return Seed{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return seed, nil
}

// Sample returns the built-in demo catalog.
func Sample() Seed {
	seed, err := Parse(sampleYAML, "yaml")
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded sample is invalid: %v", err))
	}
	return seed
}
