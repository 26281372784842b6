package storyboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxellab/greenlight/llm"
	"github.com/voxellab/greenlight/types"
)

// RefinerConfig tunes the two regeneration paths. Reject runs hot to get
// a genuinely different motion; tweak runs cool to stay close to the
// current one.
type RefinerConfig struct {
	Model             string        `json:"model" yaml:"model"`
	RejectTemperature float32       `json:"reject_temperature" yaml:"reject_temperature"`
	TweakTemperature  float32       `json:"tweak_temperature" yaml:"tweak_temperature"`
	MaxTokens         int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultRefinerConfig returns production defaults.
func DefaultRefinerConfig() RefinerConfig {
	return RefinerConfig{
		Model:             "gpt-4o-mini",
		RejectTemperature: 0.95,
		TweakTemperature:  0.35,
		MaxTokens:         200,
		Timeout:           20 * time.Second,
	}
}

// Refiner drives single scenes through the approval traffic light. All
// methods take and return scene values; persistence is the caller's job.
// The invariant token is never touched: only the action token and the
// recomposed full prompt change.
type Refiner struct {
	provider llm.Provider
	cfg      RefinerConfig
	logger   *zap.Logger
}

// NewRefiner wires a Refiner to a text provider.
func NewRefiner(provider llm.Provider, cfg RefinerConfig, logger *zap.Logger) *Refiner {
	def := DefaultRefinerConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.RejectTemperature <= 0 {
		cfg.RejectTemperature = def.RejectTemperature
	}
	if cfg.TweakTemperature <= 0 {
		cfg.TweakTemperature = def.TweakTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refiner{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "scene_refiner")),
	}
}

// Approve marks the scene green. It is a pure status transition: content
// and attempt count are untouched, and approving an already green scene
// is a no-op.
func (r *Refiner) Approve(scene types.VideoScene) types.VideoScene {
	scene.Status = types.StatusGreen
	return scene
}

// Reject replaces the scene's motion with a completely new one generated
// at high temperature. It never fails: when the regeneration call does,
// the deterministic reimagined variant of the current action is used
// instead. Either way the attempt counter advances and the scene returns
// to pending for a fresh verdict.
func (r *Refiner) Reject(ctx context.Context, scene types.VideoScene) types.VideoScene {
	action, err := r.regenerate(ctx, &scene, refineRejectInstruction, r.cfg.RejectTemperature, "")
	if err != nil {
		r.logger.Warn("reject regeneration degraded to fallback",
			zap.String("scene_id", scene.ID),
			zap.Error(err))
		action = FallbackAction(scene.ActionToken)
	}
	return r.replaceAction(scene, action)
}

// Tweak revises the scene's motion around the client feedback at low
// temperature. Empty feedback is rejected: without it a tweak cannot be
// distinguished from a coin flip. A failed call never surfaces to the
// caller: there is no deterministic substitute that honors unknown
// feedback, so the current action is kept while the attempt still counts
// and the scene returns to pending.
func (r *Refiner) Tweak(ctx context.Context, scene types.VideoScene, feedback string) (types.VideoScene, error) {
	feedback = types.SanitizeToken(feedback)
	if feedback == "" {
		return scene, types.NewError(types.ErrInvalidRequest, "tweak requires client feedback")
	}
	action, err := r.regenerate(ctx, &scene, refineTweakInstruction, r.cfg.TweakTemperature, feedback)
	if err != nil {
		r.logger.Warn("tweak regeneration degraded, keeping current action",
			zap.String("scene_id", scene.ID),
			zap.Error(err))
		action = scene.ActionToken
	}
	return r.replaceAction(scene, action), nil
}

// regenerate runs one refinement completion and returns the sanitized new
// action token.
func (r *Refiner) regenerate(ctx context.Context, scene *types.VideoScene, instruction string, temperature float32, feedback string) (string, error) {
	req := &llm.ChatRequest{
		Model: r.cfg.Model,
		Messages: []llm.Message{
			llm.TextMessage(llm.RoleSystem, instruction),
			llm.TextMessage(llm.RoleUser, refineUserPrompt(scene, feedback)),
		},
		Temperature: temperature,
		MaxTokens:   r.cfg.MaxTokens,
		Timeout:     r.cfg.Timeout,
	}

	resp, err := r.provider.Completion(ctx, req)
	if err != nil {
		return "", err
	}
	text, err := llm.FirstText(resp)
	if err != nil {
		return "", err
	}
	body, err := llm.ExtractJSONObject(text)
	if err != nil {
		return "", err
	}

	var payload struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", types.NewError(types.ErrValidation, "malformed refinement payload").WithCause(err)
	}
	action := types.SanitizeToken(payload.Action)
	if action == "" {
		return "", types.NewError(types.ErrValidation, "refinement payload contained no action")
	}
	return action, nil
}

// replaceAction swaps in the new motion, recomposes the prompt around the
// fixed invariant, advances the attempt counter, and resets the scene to
// pending.
func (r *Refiner) replaceAction(scene types.VideoScene, action string) types.VideoScene {
	scene.ActionToken = action
	scene.FullPrompt = types.ComposeFullPrompt(scene.InvariantToken, action, scene.StyleToken)
	scene.Attempts++
	scene.Status = types.StatusPending
	return scene
}

// Snapshot freezes the approved scenes of a board into an immutable
// production request. When sceneIDs is empty every green scene is taken;
// otherwise each listed scene must exist on the board and be green. At
// least one green scene is required either way.
func Snapshot(board *types.Storyboard, sceneIDs []string) (*types.ProductionRequest, error) {
	byID := make(map[string]types.VideoScene, len(board.Scenes))
	var green []types.VideoScene
	for _, sc := range board.Scenes {
		byID[sc.ID] = sc
		if sc.Status == types.StatusGreen {
			green = append(green, sc)
		}
	}

	var picked []types.VideoScene
	if len(sceneIDs) == 0 {
		picked = green
	} else {
		for _, id := range sceneIDs {
			sc, ok := byID[id]
			if !ok {
				return nil, types.NewError(types.ErrNotFound, "scene "+id+" is not on this storyboard")
			}
			if sc.Status != types.StatusGreen {
				return nil, types.NewError(types.ErrInvalidRequest, "scene "+id+" is not approved")
			}
			picked = append(picked, sc)
		}
	}
	if len(picked) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "a production request needs at least one approved scene")
	}

	req := &types.ProductionRequest{
		ID:        uuid.NewString(),
		BoardID:   board.ID,
		Scenes:    append([]types.VideoScene(nil), picked...),
		CreatedAt: time.Now().UTC(),
	}
	for _, sc := range req.Scenes {
		req.SceneIDs = append(req.SceneIDs, sc.ID)
	}
	return req, nil
}
