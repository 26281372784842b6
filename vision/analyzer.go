package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxellab/greenlight/llm"
	"github.com/voxellab/greenlight/types"
)

const analyzerSystemPrompt = `You are a production scout rating a single brand image for short-form video potential.
Score three axes from 0 to 10:
- physics: how much believable physical motion the subject invites (pours, drops, rotation, fabric, liquid)
- vibe: aesthetic and mood potential (light, texture, color story)
- logic: textual and structural clarity (readable text, clean composition, obvious subject)
Also score integrity (0-10): how faithfully the image could survive animation without breaking the brand.

Respond with ONLY a JSON object, no commentary:
{"physics": 0.0, "vibe": 0.0, "logic": 0.0, "integrity": 0.0,
 "visual_facts": {"primary_subject": "", "objects": [], "detected_text": [],
  "color_mood": "", "tone": "", "industry": ""}}`

// Config tunes the analyzer.
type Config struct {
	Model   string
	Timeout time.Duration
}

// Analyzer performs the one-shot vision analysis.
type Analyzer struct {
	provider llm.Provider
	cfg      Config
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer over the given provider.
func NewAnalyzer(provider llm.Provider, cfg Config, logger *zap.Logger) *Analyzer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "vision_analyzer")),
	}
}

// analysisPayload is the wire shape of the model's reply. Score fields are
// pointers so that absent and zero are distinguishable during validation.
type analysisPayload struct {
	Physics   *float64 `json:"physics"`
	Vibe      *float64 `json:"vibe"`
	Logic     *float64 `json:"logic"`
	Integrity *float64 `json:"integrity"`
	Facts     struct {
		PrimarySubject string   `json:"primary_subject"`
		Objects        []string `json:"objects"`
		DetectedText   []string `json:"detected_text"`
		ColorMood      string   `json:"color_mood"`
		Tone           string   `json:"tone"`
		Industry       string   `json:"industry"`
	} `json:"visual_facts"`
}

// Analyze runs the single external vision call for imageURL and validates
// the result into a RawAnalysis. It performs no retries of its own.
func (a *Analyzer) Analyze(ctx context.Context, imageURL string) (*types.RawAnalysis, error) {
	if imageURL == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "image url is required")
	}

	start := time.Now()
	resp, err := a.provider.Completion(ctx, &llm.ChatRequest{
		Model: a.cfg.Model,
		Messages: []llm.Message{
			llm.TextMessage(llm.RoleSystem, analyzerSystemPrompt),
			llm.ImageMessage("Rate this brand image.", imageURL),
		},
		Temperature: 0.2,
		MaxTokens:   700,
		Timeout:     a.cfg.Timeout,
	})
	if err != nil {
		if types.GetErrorCode(err) != "" {
			return nil, err
		}
		return nil, types.NewError(types.ErrTransport, "vision call failed").WithCause(err)
	}

	text, err := llm.FirstText(resp)
	if err != nil {
		return nil, err
	}

	raw, err := parseAnalysis(text)
	if err != nil {
		a.logger.Warn("vision output rejected",
			zap.String("image_url", imageURL),
			zap.Error(err),
		)
		return nil, err
	}

	raw.ID = uuid.NewString()
	raw.ImageURL = imageURL
	raw.CreatedAt = time.Now().UTC()

	a.logger.Info("image analyzed",
		zap.String("analysis_id", raw.ID),
		zap.Float64("physics", raw.Scores.Physics),
		zap.Float64("vibe", raw.Scores.Vibe),
		zap.Float64("logic", raw.Scores.Logic),
		zap.Duration("latency", time.Since(start)),
	)
	return raw, nil
}

// parseAnalysis converts the model's text into a validated RawAnalysis.
func parseAnalysis(text string) (*types.RawAnalysis, error) {
	body, err := llm.ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, types.NewError(types.ErrValidation, "analysis is not valid JSON").WithCause(err)
	}

	scores := map[string]*float64{
		"physics":   payload.Physics,
		"vibe":      payload.Vibe,
		"logic":     payload.Logic,
		"integrity": payload.Integrity,
	}
	for name, v := range scores {
		if v == nil {
			return nil, types.NewError(types.ErrValidation, fmt.Sprintf("analysis missing %s score", name))
		}
		if *v < types.ScoreMin || *v > types.ScoreMax {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("%s score %v outside [%v, %v]", name, *v, types.ScoreMin, types.ScoreMax))
		}
	}

	return &types.RawAnalysis{
		Scores: types.TrinityScores{
			Physics: *payload.Physics,
			Vibe:    *payload.Vibe,
			Logic:   *payload.Logic,
		},
		Integrity: *payload.Integrity,
		Facts: types.VisualFacts{
			PrimarySubject: types.SanitizeToken(payload.Facts.PrimarySubject),
			Objects:        payload.Facts.Objects,
			DetectedText:   payload.Facts.DetectedText,
			ColorMood:      types.SanitizeToken(payload.Facts.ColorMood),
			Tone:           types.SanitizeToken(payload.Facts.Tone),
			Industry:       types.SanitizeToken(payload.Facts.Industry),
		},
	}, nil
}
