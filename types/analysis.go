package types

import "time"

// ScoreMin and ScoreMax bound every Trinity axis, raw or biased.
const (
	ScoreMin = 0.0
	ScoreMax = 10.0
)

// Engine identifies a downstream video production engine.
type Engine string

const (
	// EngineKinetix favors physical motion: product drops, liquid pours,
	// mechanical movement.
	EngineKinetix Engine = "kinetix"

	// EngineLumina favors aesthetic treatment: light play, texture,
	// mood-driven sequences.
	EngineLumina Engine = "lumina"
)

// TrinityScores rates an image on the three production axes.
// Physics measures physical-motion potential, Vibe measures aesthetic
// potential, Logic measures textual/structural clarity.
type TrinityScores struct {
	Physics float64 `json:"physics"`
	Vibe    float64 `json:"vibe"`
	Logic   float64 `json:"logic"`
}

// VisualFacts is the persona-independent description of what the vision
// model saw in the image.
type VisualFacts struct {
	PrimarySubject string   `json:"primary_subject"`
	Objects        []string `json:"objects,omitempty"`
	DetectedText   []string `json:"detected_text,omitempty"`
	ColorMood      string   `json:"color_mood,omitempty"`
	Tone           string   `json:"tone,omitempty"`
	Industry       string   `json:"industry,omitempty"`
}

// RawAnalysis is the output of the one-shot vision analysis. It is created
// once per image, never mutated, and cacheable keyed by image identity.
type RawAnalysis struct {
	ID        string        `json:"id"`
	ImageURL  string        `json:"image_url"`
	Scores    TrinityScores `json:"scores"`
	Integrity float64       `json:"integrity"`
	Facts     VisualFacts   `json:"facts"`
	CreatedAt time.Time     `json:"created_at"`
}

// BiasedScores is a TrinityScores triplet reinterpreted through a director
// profile. Derived, never persisted: it is always recomputed from
// (RawAnalysis, Profile) because the bias function is pure and cheap.
type BiasedScores struct {
	Physics float64 `json:"physics"`
	Vibe    float64 `json:"vibe"`
	Logic   float64 `json:"logic"`
}

// Routing decision reasons. These are user-visible strings, keep them stable.
const (
	ReasonPersonaPreference = "persona preference"
	ReasonScoreRouting      = "score-based routing"
)

// RoutingDecision selects the production engine for one director's take.
type RoutingDecision struct {
	Engine Engine `json:"engine"`
	Reason string `json:"reason"`
}

// Commentary is a director's narrative pitch for an analyzed image,
// expressed as a fixed three-beat read.
type Commentary struct {
	DirectorID string   `json:"director_id"`
	Beats      []string `json:"beats"`
}
