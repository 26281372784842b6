package storyboard

import (
	"strings"

	"github.com/voxellab/greenlight/types"
)

// defaultPreset anchors style selection when the catalogue is empty or
// nothing matches. It is intentionally the most neutral treatment.
var defaultPreset = types.StylePreset{
	ID:          "cinematic-standard",
	Name:        "Cinematic Standard",
	Description: "balanced studio look with soft key light",
	Category:    "general",
	PromptLayer: "cinematic lighting, shallow depth of field, 4k product film",
}

// FindStyle returns the preset with the given id, or false when the id is
// absent from the catalogue.
func FindStyle(id string, presets []types.StylePreset) (types.StylePreset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return types.StylePreset{}, false
}

// BestStyle deterministically picks a preset from the visual facts. It is
// the fallback for an absent or invalid generator style selection, so it
// must always resolve: with an empty catalogue it returns the built-in
// default preset.
func BestStyle(facts types.VisualFacts, presets []types.StylePreset) types.StylePreset {
	if len(presets) == 0 {
		return defaultPreset
	}

	best := presets[0]
	bestScore := -1
	for _, p := range presets {
		score := styleScore(facts, p)
		// Strictly greater keeps the earliest preset on ties, which makes
		// the pick stable across calls.
		if score > bestScore {
			best = p
			bestScore = score
		}
	}
	return best
}

func styleScore(facts types.VisualFacts, p types.StylePreset) int {
	score := 0
	haystack := strings.ToLower(p.Name + " " + p.Description + " " + p.PromptLayer)

	if facts.Industry != "" && strings.EqualFold(p.Category, facts.Industry) {
		score += 3
	}
	if facts.Tone != "" && strings.Contains(haystack, strings.ToLower(facts.Tone)) {
		score += 2
	}
	if facts.ColorMood != "" {
		for _, word := range strings.Fields(strings.ToLower(facts.ColorMood)) {
			if strings.Contains(haystack, word) {
				score++
			}
		}
	}
	return score
}
