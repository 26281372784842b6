package types

import "time"

// SceneCount is the number of scenes in every storyboard. The builder pads
// or truncates whatever the generator returns to hit this count exactly.
const SceneCount = 3

// SceneStatus is the traffic-light approval state of a single scene.
type SceneStatus string

const (
	// StatusPending means the scene awaits a user verdict.
	StatusPending SceneStatus = "PENDING"
	// StatusGreen means the scene is approved. Terminal for approval,
	// though content stays editable until submitted to production.
	StatusGreen SceneStatus = "GREEN"
	// StatusYellow requests a bounded revision of the current motion.
	StatusYellow SceneStatus = "YELLOW"
	// StatusRed requests a completely new motion.
	StatusRed SceneStatus = "RED"
)

// Valid reports whether s is one of the four known statuses.
func (s SceneStatus) Valid() bool {
	switch s {
	case StatusPending, StatusGreen, StatusYellow, StatusRed:
		return true
	}
	return false
}

// StylePreset is one entry of the visual style catalogue.
type StylePreset struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Category    string `json:"category,omitempty" yaml:"category"`
	PromptLayer string `json:"prompt_layer" yaml:"prompt_layer"`
	// HiddenRefURL biases the downstream renderer and is never shown to
	// the end user.
	HiddenRefURL string `json:"-" yaml:"hidden_ref_url"`
}

// VideoScene is one ordered unit of a storyboard. Scenes are created by the
// builder and mutated only by the refinement state machine; they are never
// deleted, only superseded in place with the attempt counter incremented.
type VideoScene struct {
	ID      string `json:"id"`
	BoardID string `json:"board_id"`
	// Index is 1-based.
	Index int `json:"index"`
	// InvariantToken is shared by all scenes of one storyboard and is
	// fixed at creation. Refinement must never change it.
	InvariantToken string `json:"invariant_token"`
	// ActionToken is the per-scene motion description, the only prompt
	// component refinement may replace.
	ActionToken string `json:"action_token"`
	StyleToken  string `json:"style_token"`
	// FullPrompt is the sanitized composition invariant. action. style.
	FullPrompt string `json:"full_prompt"`
	// HiddenRefURL is forwarded to the renderer, never to the user.
	HiddenRefURL string      `json:"-"`
	DurationSec  float64     `json:"duration_sec"`
	Status       SceneStatus `json:"status"`
	Attempts     int         `json:"attempts"`
}

// Storyboard is the exactly-three-scene production plan for one analyzed
// image under one director.
type Storyboard struct {
	ID             string       `json:"id"`
	AnalysisID     string       `json:"analysis_id"`
	DirectorID     string       `json:"director_id,omitempty"`
	SelectedStyle  string       `json:"selected_style"`
	InvariantToken string       `json:"invariant_token"`
	Scenes         []VideoScene `json:"scenes"`
	Fallback       bool         `json:"fallback"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ProductionRequest is the immutable snapshot of approved scenes handed to
// the downstream renderer. Later edits to non-submitted scenes do not
// affect a request already in flight.
type ProductionRequest struct {
	ID        string       `json:"id"`
	BoardID   string       `json:"board_id"`
	SceneIDs  []string     `json:"scene_ids"`
	Scenes    []VideoScene `json:"scenes"`
	CreatedAt time.Time    `json:"created_at"`
}
