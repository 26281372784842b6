package storyboard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxellab/greenlight/director"
	"github.com/voxellab/greenlight/types"
)

const storyboardSystemPrompt = `You are a commercial video director planning a 3-scene short-form storyboard from a single brand image.
Pick one style from the catalogue and keep the subject identical across scenes.
Respond with ONLY a JSON object:
{"style_id": "<id from catalogue>",
 "invariant": "<the one visual subject that must stay constant in every scene>",
 "scenes": [{"action": "<motion for this scene>", "duration_sec": 4, "camera": "<optional note>"}]}
Produce exactly 3 scenes.`

const refineRejectInstruction = `The client rejected this motion entirely. Invent a COMPLETELY DIFFERENT motion for the same subject.
The subject description must not change. Respond with ONLY a JSON object: {"action": "<new motion>"}`

const refineTweakInstruction = `The client wants this motion adjusted, not replaced. Preserve the core movement and address the feedback.
The subject description must not change. Respond with ONLY a JSON object: {"action": "<revised motion>"}`

// pitchSystemPrompt frames the commentary call in the director's voice.
func pitchSystemPrompt(p *director.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a commercial video director. Tone: %s.\n", p.Name, p.Voice.Tone)
	if len(p.Voice.Encouraged) > 0 {
		fmt.Fprintf(&b, "Lean on words like: %s.\n", strings.Join(p.Voice.Encouraged, ", "))
	}
	if len(p.Voice.Forbidden) > 0 {
		fmt.Fprintf(&b, "Never use: %s.\n", strings.Join(p.Voice.Forbidden, ", "))
	}
	b.WriteString("Pitch the uploaded brand image as a short video in exactly 3 short lines: " +
		"first the hook, then the treatment, then the payoff. One line each, no numbering.")
	return b.String()
}

// pitchUserPrompt summarizes the analysis for the commentary call.
func pitchUserPrompt(raw *types.RawAnalysis, biased types.BiasedScores) string {
	return fmt.Sprintf(
		"Subject: %s. Color mood: %s. Tone: %s. Industry: %s.\nYour read of the scores: physics %.1f, vibe %.1f, logic %.1f.",
		raw.Facts.PrimarySubject, raw.Facts.ColorMood, raw.Facts.Tone, raw.Facts.Industry,
		biased.Physics, biased.Vibe, biased.Logic,
	)
}

// boardUserPrompt packs visual facts and the style catalogue into the
// generation request. The facts payload is the unbounded part; the caller
// truncates it to the prompt token budget before use.
func boardUserPrompt(factsPayload string, presets []types.StylePreset) string {
	var b strings.Builder
	b.WriteString("Image analysis:\n")
	b.WriteString(factsPayload)
	b.WriteString("\n\nStyle catalogue:\n")
	for _, p := range presets {
		fmt.Fprintf(&b, "- %s: %s - %s\n", p.ID, p.Name, p.Description)
	}
	if len(presets) == 0 {
		fmt.Fprintf(&b, "- %s: %s - %s\n", defaultPreset.ID, defaultPreset.Name, defaultPreset.Description)
	}
	return b.String()
}

// factsPayload renders the analysis facts as compact JSON for prompting.
func factsPayload(raw *types.RawAnalysis) string {
	data, err := json.Marshal(struct {
		Scores types.TrinityScores `json:"scores"`
		Facts  types.VisualFacts   `json:"facts"`
	}{raw.Scores, raw.Facts})
	if err != nil {
		return raw.Facts.PrimarySubject
	}
	return string(data)
}

// refineUserPrompt describes the scene under revision.
func refineUserPrompt(scene *types.VideoScene, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject (do not change): %s\nCurrent motion: %s\n", scene.InvariantToken, scene.ActionToken)
	if feedback != "" {
		fmt.Fprintf(&b, "Client feedback: %s\n", feedback)
	}
	return b.String()
}
