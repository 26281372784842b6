package director

import "github.com/voxellab/greenlight/types"

// RiskLabel is the coarse hallucination-tolerance tier of a profile.
type RiskLabel string

const (
	RiskSafe         RiskLabel = "Safe"
	RiskBalanced     RiskLabel = "Balanced"
	RiskExperimental RiskLabel = "Experimental"
)

// Biases holds the three positive multipliers applied to raw Trinity
// scores. A value above 1 amplifies the axis, below 1 dampens it.
type Biases struct {
	Physics float64 `json:"physics" yaml:"physics"`
	Vibe    float64 `json:"vibe" yaml:"vibe"`
	Logic   float64 `json:"logic" yaml:"logic"`
}

// RiskProfile pairs the tier label with a hallucination tolerance in [0,1].
type RiskProfile struct {
	Label RiskLabel `json:"label" yaml:"label"`
	// Tolerance feeds generation temperature framing; it is guidance,
	// not a mechanical clamp.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// Voice constrains how a director speaks. The vocabulary lists steer the
// text generator through the prompt and are not enforced mechanically.
type Voice struct {
	Tone       string   `json:"tone" yaml:"tone"`
	Encouraged []string `json:"encouraged,omitempty" yaml:"encouraged"`
	Forbidden  []string `json:"forbidden,omitempty" yaml:"forbidden"`
}

// Profile is one immutable director persona.
type Profile struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Tagline string `json:"tagline,omitempty" yaml:"tagline"`

	Biases Biases      `json:"biases" yaml:"biases"`
	Risk   RiskProfile `json:"risk" yaml:"risk"`
	Voice  Voice       `json:"voice" yaml:"voice"`

	// PreferredEngine, when set, short-circuits score-based routing.
	// Empty means no preference.
	PreferredEngine types.Engine `json:"preferred_engine,omitempty" yaml:"preferred_engine"`
}

// DefaultProfileID identifies the profile substituted for unknown ids.
const DefaultProfileID = "balanced"

// BuiltinProfiles returns the stock director roster. The slice and the
// profiles it points to must be treated as read-only.
func BuiltinProfiles() []*Profile {
	return []*Profile{
		{
			ID:      "balanced",
			Name:    "June Okafor",
			Tagline: "Lets the image speak for itself",
			Biases:  Biases{Physics: 1.0, Vibe: 1.0, Logic: 1.0},
			Risk:    RiskProfile{Label: RiskBalanced, Tolerance: 0.4},
			Voice: Voice{
				Tone:       "even-handed, observational",
				Encouraged: []string{"honest", "grounded", "clean"},
			},
		},
		{
			ID:      "steadicam",
			Name:    "Elia Stern",
			Tagline: "Nothing moves unless it must",
			Biases:  Biases{Physics: 1.5, Vibe: 0.8, Logic: 1.2},
			Risk:    RiskProfile{Label: RiskSafe, Tolerance: 0.1},
			Voice: Voice{
				Tone:       "calm, precise, reassuring",
				Encouraged: []string{"deliberate", "controlled", "crafted"},
				Forbidden:  []string{"chaotic", "glitch", "explosive"},
			},
		},
		{
			ID:      "voltage",
			Name:    "Rae Kavanagh",
			Tagline: "If it can move, make it fly",
			Biases:  Biases{Physics: 1.8, Vibe: 0.9, Logic: 0.8},
			Risk:    RiskProfile{Label: RiskBalanced, Tolerance: 0.5},
			Voice: Voice{
				Tone:       "punchy, kinetic, impatient",
				Encouraged: []string{"momentum", "impact", "velocity"},
				Forbidden:  []string{"static", "gentle"},
			},
			PreferredEngine: types.EngineKinetix,
		},
		{
			ID:      "fever-dream",
			Name:    "Sol Marchetti",
			Tagline: "Beauty first, gravity optional",
			Biases:  Biases{Physics: 0.7, Vibe: 1.7, Logic: 0.6},
			Risk:    RiskProfile{Label: RiskExperimental, Tolerance: 0.9},
			Voice: Voice{
				Tone:       "lush, dreamlike, indulgent",
				Encouraged: []string{"iridescent", "hypnotic", "surreal"},
				Forbidden:  []string{"corporate", "plain"},
			},
			PreferredEngine: types.EngineLumina,
		},
	}
}
