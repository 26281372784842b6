package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voxellab/greenlight/types"
)

// styleCatalogue is the YAML shape of the preset file.
type styleCatalogue struct {
	Styles []types.StylePreset `yaml:"styles"`
}

// LoadStyleCatalogue reads the style preset file. An empty path returns
// the built-in presets so the service starts without one.
func LoadStyleCatalogue(path string) ([]types.StylePreset, error) {
	if path == "" {
		return BuiltinStyles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style catalogue: %w", err)
	}

	var cat styleCatalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse style catalogue: %w", err)
	}

	seen := make(map[string]struct{}, len(cat.Styles))
	for _, p := range cat.Styles {
		if p.ID == "" {
			return nil, fmt.Errorf("style catalogue: preset without id")
		}
		if p.PromptLayer == "" {
			return nil, fmt.Errorf("style catalogue: preset %q has no prompt_layer", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("style catalogue: duplicate preset id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if len(cat.Styles) == 0 {
		return BuiltinStyles(), nil
	}
	return cat.Styles, nil
}

// BuiltinStyles is the preset catalogue shipped with the binary.
func BuiltinStyles() []types.StylePreset {
	return []types.StylePreset{
		{
			ID:          "cinematic-standard",
			Name:        "Cinematic Standard",
			Description: "balanced studio look with soft key light",
			Category:    "general",
			PromptLayer: "cinematic lighting, shallow depth of field, 4k product film",
		},
		{
			ID:           "neon-rush",
			Name:         "Neon Rush",
			Description:  "energetic urban night look for motion-heavy subjects",
			Category:     "sportswear",
			PromptLayer:  "neon rim light, high contrast, streaking motion blur",
			HiddenRefURL: "https://assets.voxellab.dev/styles/neon-rush.png",
		},
		{
			ID:           "soft-studio",
			Name:         "Soft Studio",
			Description:  "calm pastel studio with diffuse light",
			Category:     "cosmetics",
			PromptLayer:  "soft diffuse light, pastel seamless backdrop, gentle highlights",
			HiddenRefURL: "https://assets.voxellab.dev/styles/soft-studio.png",
		},
		{
			ID:          "noir-luxe",
			Name:        "Noir Luxe",
			Description: "moody premium look with hard shadows",
			Category:    "luxury",
			PromptLayer: "low key lighting, deep shadows, glossy black surfaces",
		},
		{
			ID:          "daylight-fresh",
			Name:        "Daylight Fresh",
			Description: "bright natural daylight for food and lifestyle",
			Category:    "food",
			PromptLayer: "natural window light, crisp whites, airy composition",
		},
	}
}
