package director

import "github.com/voxellab/greenlight/types"

// ApplyBias reinterprets raw scores through the profile's multipliers.
// Each axis is multiplied and clamped to [ScoreMin, ScoreMax]. The
// function is total and pure: it never fails and has no side effects.
func ApplyBias(p *Profile, raw types.TrinityScores) types.BiasedScores {
	return types.BiasedScores{
		Physics: clamp(raw.Physics*p.Biases.Physics, types.ScoreMin, types.ScoreMax),
		Vibe:    clamp(raw.Vibe*p.Biases.Vibe, types.ScoreMin, types.ScoreMax),
		Logic:   clamp(raw.Logic*p.Biases.Logic, types.ScoreMin, types.ScoreMax),
	}
}

// Route selects the production engine for a director's take. A concrete
// persona preference always wins. Otherwise the larger of the biased
// physics and vibe scores decides; logic is a quality gate elsewhere, not
// a routing axis. Ties resolve to the physics engine.
func Route(p *Profile, biased types.BiasedScores) types.RoutingDecision {
	if p.PreferredEngine != "" {
		return types.RoutingDecision{
			Engine: p.PreferredEngine,
			Reason: types.ReasonPersonaPreference,
		}
	}

	engine := types.EngineKinetix
	if biased.Vibe > biased.Physics {
		engine = types.EngineLumina
	}
	return types.RoutingDecision{
		Engine: engine,
		Reason: types.ReasonScoreRouting,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
