package storyboard

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/voxellab/greenlight/director"
	"github.com/voxellab/greenlight/llm"
	"github.com/voxellab/greenlight/types"
)

// promptEncoding is the tiktoken encoding used for the prompt token
// budget. cl100k_base is a reasonable proxy for every chat model the
// builder talks to; the budget is a guard rail, not exact accounting.
const promptEncoding = "cl100k_base"

// padAngleSuffix pads generator output that came back short: the padded
// scene riffs on the last real action so it still belongs to the same
// take. Any slot after that reuses the canonical fallback action for its
// position.
const padAngleSuffix = "seen from a new angle"

// BuilderConfig tunes the text-model calls made by the Builder.
type BuilderConfig struct {
	// Model is the text model used for pitch and board generation.
	Model string `json:"model" yaml:"model"`
	// MaxPromptTokens bounds the analysis payload embedded in the board
	// prompt. Zero disables the budget.
	MaxPromptTokens int `json:"max_prompt_tokens" yaml:"max_prompt_tokens"`
	// SceneDuration is the default per-scene length in seconds.
	SceneDuration float64 `json:"scene_duration" yaml:"scene_duration"`
	// PitchTemperature drives commentary generation. Higher keeps the
	// director voices distinct.
	PitchTemperature float32 `json:"pitch_temperature" yaml:"pitch_temperature"`
	// BoardTemperature drives storyboard generation.
	BoardTemperature float32 `json:"board_temperature" yaml:"board_temperature"`
	// MaxTokens caps each completion.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
	// Timeout bounds each completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultBuilderConfig returns production defaults.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Model:            "gpt-4o-mini",
		MaxPromptTokens:  1200,
		SceneDuration:    4,
		PitchTemperature: 0.9,
		BoardTemperature: 0.7,
		MaxTokens:        600,
		Timeout:          30 * time.Second,
	}
}

// Builder generates director commentary and three-scene storyboards from a
// completed image analysis using cheap text-only model calls.
type Builder struct {
	provider llm.Provider
	cfg      BuilderConfig
	logger   *zap.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
}

// NewBuilder wires a Builder to a text provider.
func NewBuilder(provider llm.Provider, cfg BuilderConfig, logger *zap.Logger) *Builder {
	if cfg.Model == "" {
		cfg.Model = DefaultBuilderConfig().Model
	}
	if cfg.SceneDuration <= 0 {
		cfg.SceneDuration = DefaultBuilderConfig().SceneDuration
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultBuilderConfig().MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBuilderConfig().Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "storyboard_builder")),
	}
}

// Pitch produces the director's three-beat commentary for an analysis. A
// failed or malformed completion degrades to a deterministic pitch built
// from the visual facts, so the caller always gets exactly three beats.
func (b *Builder) Pitch(ctx context.Context, profile *director.Profile, raw *types.RawAnalysis, biased types.BiasedScores) *types.Commentary {
	req := &llm.ChatRequest{
		Model: b.cfg.Model,
		Messages: []llm.Message{
			llm.TextMessage(llm.RoleSystem, pitchSystemPrompt(profile)),
			llm.TextMessage(llm.RoleUser, pitchUserPrompt(raw, biased)),
		},
		Temperature: b.cfg.PitchTemperature,
		MaxTokens:   b.cfg.MaxTokens,
		Timeout:     b.cfg.Timeout,
	}

	resp, err := b.provider.Completion(ctx, req)
	if err == nil {
		var text string
		if text, err = llm.FirstText(resp); err == nil {
			if beats := splitBeats(text); len(beats) > 0 {
				return &types.Commentary{DirectorID: profile.ID, Beats: padBeats(beats, raw.Facts)}
			}
			err = types.NewError(types.ErrValidation, "pitch response contained no beats")
		}
	}

	b.logger.Warn("pitch generation degraded to fallback",
		zap.String("director", profile.ID),
		zap.Error(err))
	return &types.Commentary{DirectorID: profile.ID, Beats: fallbackBeats(profile, raw.Facts)}
}

// Build turns a completed analysis into a storyboard with exactly three
// sanitized scenes. It never returns an error: any transport, parsing, or
// validation failure degrades to the deterministic fallback storyboard.
func (b *Builder) Build(ctx context.Context, raw *types.RawAnalysis, directorID string, presets []types.StylePreset) *types.Storyboard {
	payload := b.truncatePayload(factsPayload(raw))

	req := &llm.ChatRequest{
		Model: b.cfg.Model,
		Messages: []llm.Message{
			llm.TextMessage(llm.RoleSystem, storyboardSystemPrompt),
			llm.TextMessage(llm.RoleUser, boardUserPrompt(payload, presets)),
		},
		Temperature: b.cfg.BoardTemperature,
		MaxTokens:   b.cfg.MaxTokens,
		Timeout:     b.cfg.Timeout,
	}

	board, err := b.generateBoard(ctx, req, raw, presets)
	if err != nil {
		b.logger.Warn("board generation degraded to fallback",
			zap.String("analysis_id", raw.ID),
			zap.Error(err))
		board = FallbackBoard(raw, presets, b.cfg.SceneDuration)
	}
	board.DirectorID = directorID
	return board
}

// generateBoard runs one completion and converts the payload into a
// storyboard, or reports why the fallback is needed.
func (b *Builder) generateBoard(ctx context.Context, req *llm.ChatRequest, raw *types.RawAnalysis, presets []types.StylePreset) (*types.Storyboard, error) {
	resp, err := b.provider.Completion(ctx, req)
	if err != nil {
		return nil, err
	}
	text, err := llm.FirstText(resp)
	if err != nil {
		return nil, err
	}
	body, err := llm.ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var payload boardPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, types.NewError(types.ErrValidation, "malformed storyboard payload").WithCause(err)
	}

	actions := collectActions(payload)
	if len(actions) == 0 {
		return nil, types.NewError(types.ErrValidation, "storyboard payload contained no usable scenes")
	}

	// An unknown or missing style selection is corrected, not fatal.
	style, ok := FindStyle(payload.StyleID, presets)
	if !ok {
		b.logger.Debug("generator picked unknown style, reselecting",
			zap.String("style_id", payload.StyleID))
		style = BestStyle(raw.Facts, presets)
	}

	invariant := types.SanitizeToken(payload.Invariant)
	if invariant == "" {
		invariant = FallbackInvariant(raw.Facts)
	}

	board := &types.Storyboard{
		ID:             uuid.NewString(),
		AnalysisID:     raw.ID,
		SelectedStyle:  style.ID,
		InvariantToken: invariant,
		CreatedAt:      time.Now().UTC(),
	}
	for i, sc := range normalizeActions(actions) {
		scene := newScene(board, i+1, sc.action, style, b.sceneDuration(sc.duration))
		board.Scenes = append(board.Scenes, scene)
	}
	return board, nil
}

// boardPayload is the generator's wire shape.
type boardPayload struct {
	StyleID   string `json:"style_id"`
	Invariant string `json:"invariant"`
	Scenes    []struct {
		Action      string  `json:"action"`
		DurationSec float64 `json:"duration_sec"`
		Camera      string  `json:"camera"`
	} `json:"scenes"`
}

type sceneDraft struct {
	action   string
	duration float64
}

// collectActions keeps the usable scenes in order, folding the optional
// camera note into the action so no direction is lost.
func collectActions(payload boardPayload) []sceneDraft {
	drafts := make([]sceneDraft, 0, len(payload.Scenes))
	for _, sc := range payload.Scenes {
		action := types.SanitizeToken(sc.Action)
		if action == "" {
			continue
		}
		if camera := types.SanitizeToken(sc.Camera); camera != "" {
			action = types.SanitizeToken(action + ", " + camera)
		}
		drafts = append(drafts, sceneDraft{action: action, duration: sc.DurationSec})
	}
	return drafts
}

// normalizeActions pads or truncates the draft list to exactly the
// required scene count. Short output is padded with a new-angle variant of
// the last real action and a generic closing move; long output keeps the
// first scenes.
func normalizeActions(drafts []sceneDraft) []sceneDraft {
	if len(drafts) >= types.SceneCount {
		return drafts[:types.SceneCount]
	}
	out := make([]sceneDraft, 0, types.SceneCount)
	out = append(out, drafts...)
	last := out[len(out)-1]
	if len(out) < types.SceneCount {
		out = append(out, sceneDraft{
			action:   types.SanitizeToken(last.action + ", " + padAngleSuffix),
			duration: last.duration,
		})
	}
	for len(out) < types.SceneCount {
		out = append(out, sceneDraft{action: fallbackActions[len(out)], duration: last.duration})
	}
	return out
}

func (b *Builder) sceneDuration(requested float64) float64 {
	if requested > 0 {
		return requested
	}
	return b.cfg.SceneDuration
}

// truncatePayload clips the analysis payload to the prompt token budget.
// Tokenizer failures fall back to the untrimmed payload: the budget is an
// optimization, not a correctness requirement.
func (b *Builder) truncatePayload(payload string) string {
	if b.cfg.MaxPromptTokens <= 0 {
		return payload
	}
	b.encOnce.Do(func() {
		b.enc, b.encErr = tiktoken.GetEncoding(promptEncoding)
	})
	if b.encErr != nil {
		b.logger.Warn("prompt tokenizer unavailable, skipping token budget", zap.Error(b.encErr))
		return payload
	}
	tokens := b.enc.Encode(payload, nil, nil)
	if len(tokens) <= b.cfg.MaxPromptTokens {
		return payload
	}
	return b.enc.Decode(tokens[:b.cfg.MaxPromptTokens])
}

// splitBeats breaks pitch output into non-empty lines, stripping the list
// markers smaller models sneak in despite instructions.
func splitBeats(text string) []string {
	var beats []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		if line != "" {
			beats = append(beats, line)
		}
	}
	if len(beats) > types.SceneCount {
		beats = beats[:types.SceneCount]
	}
	return beats
}

// padBeats fills a short pitch up to the fixed beat count from the facts.
func padBeats(beats []string, facts types.VisualFacts) []string {
	fillers := fallbackBeatLines(facts)
	for len(beats) < types.SceneCount {
		beats = append(beats, fillers[len(beats)])
	}
	return beats
}

// fallbackBeats is the deterministic pitch used when the model call fails
// outright. It stays in the director's register via the tone line.
func fallbackBeats(p *director.Profile, facts types.VisualFacts) []string {
	lines := fallbackBeatLines(facts)
	if p.Voice.Tone != "" {
		lines[0] = lines[0] + ", " + p.Voice.Tone
	}
	return lines
}

func fallbackBeatLines(facts types.VisualFacts) []string {
	subject := FallbackInvariant(facts)
	return []string{
		"Open tight on the " + subject,
		"Let the motion carry the " + subject + " through the frame",
		"Close on the " + subject + " holding the final look",
	}
}
