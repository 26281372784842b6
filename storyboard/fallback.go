package storyboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxellab/greenlight/types"
)

// Canonical fallback storyboard actions, in scene order. Tests and the
// degraded path both depend on these exact strings.
var fallbackActions = [types.SceneCount]string{
	"slow reveal from shadow into light",
	"gentle 360 degree orbit rotation",
	"dramatic pull back to wide shot",
}

// genericInvariant replaces the invariant token when the analysis did not
// yield a primary subject.
const genericInvariant = "product hero shot"

// reimagineSuffix is appended to the current action when a reject-path
// regeneration fails and a deterministic substitute is needed.
const reimagineSuffix = "reimagined with an unexpected alternative motion"

// FallbackInvariant derives the invariant token for degraded generation.
func FallbackInvariant(facts types.VisualFacts) string {
	if s := types.SanitizeToken(facts.PrimarySubject); s != "" {
		return s
	}
	return genericInvariant
}

// FallbackBoard builds the deterministic substitute storyboard. It never
// fails and always satisfies every storyboard invariant: exactly three
// scenes, shared invariant token, sanitized tokens.
func FallbackBoard(raw *types.RawAnalysis, presets []types.StylePreset, sceneDuration float64) *types.Storyboard {
	style := BestStyle(raw.Facts, presets)
	invariant := FallbackInvariant(raw.Facts)

	board := &types.Storyboard{
		ID:             uuid.NewString(),
		AnalysisID:     raw.ID,
		SelectedStyle:  style.ID,
		InvariantToken: invariant,
		Fallback:       true,
		CreatedAt:      time.Now().UTC(),
	}
	for i, action := range fallbackActions {
		board.Scenes = append(board.Scenes, newScene(board, i+1, action, style, sceneDuration))
	}
	return board
}

// FallbackAction produces the deterministic substitute for a failed
// reject-path regeneration: the current action with the reimagine suffix.
func FallbackAction(current string) string {
	return types.SanitizeToken(types.SanitizeToken(current) + ", " + reimagineSuffix)
}

// newScene constructs one sanitized scene bound to its board.
func newScene(board *types.Storyboard, index int, action string, style types.StylePreset, duration float64) types.VideoScene {
	action = types.SanitizeToken(action)
	return types.VideoScene{
		ID:             uuid.NewString(),
		BoardID:        board.ID,
		Index:          index,
		InvariantToken: board.InvariantToken,
		ActionToken:    action,
		StyleToken:     types.SanitizeToken(style.PromptLayer),
		FullPrompt:     types.ComposeFullPrompt(board.InvariantToken, action, style.PromptLayer),
		HiddenRefURL:   style.HiddenRefURL,
		DurationSec:    duration,
		Status:         types.StatusPending,
	}
}
