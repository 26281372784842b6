package director

import (
	"fmt"

	"github.com/voxellab/greenlight/types"
)

// Registry is an explicitly constructed, read-only persona lookup table.
// It is safe for unsynchronized concurrent reads because nothing mutates
// it after construction.
type Registry struct {
	byID     map[string]*Profile
	ordered  []*Profile
	fallback *Profile
}

// NewRegistry builds a registry over the given profiles. defaultID names
// the profile substituted for unknown lookups and must be present.
func NewRegistry(profiles []*Profile, defaultID string) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "registry requires at least one profile")
	}

	byID := make(map[string]*Profile, len(profiles))
	ordered := make([]*Profile, 0, len(profiles))
	for _, p := range profiles {
		if p == nil || p.ID == "" {
			return nil, types.NewError(types.ErrInvalidRequest, "profile with empty id")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("duplicate profile id %q", p.ID))
		}
		if p.Biases.Physics <= 0 || p.Biases.Vibe <= 0 || p.Biases.Logic <= 0 {
			return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("profile %q has non-positive bias", p.ID))
		}
		byID[p.ID] = p
		ordered = append(ordered, p)
	}

	fallback, ok := byID[defaultID]
	if !ok {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("default profile %q not in registry", defaultID))
	}

	return &Registry{byID: byID, ordered: ordered, fallback: fallback}, nil
}

// NewBuiltinRegistry builds the registry over the stock roster.
func NewBuiltinRegistry() *Registry {
	r, err := NewRegistry(BuiltinProfiles(), DefaultProfileID)
	if err != nil {
		// Builtin profiles are compile-time data; a failure here is a bug.
		panic(err)
	}
	return r
}

// Lookup returns the profile for id. Unknown ids never fail: the default
// profile is substituted instead, per the masking policy for persona
// lookups.
func (r *Registry) Lookup(id string) *Profile {
	if p, ok := r.byID[id]; ok {
		return p
	}
	return r.fallback
}

// Has reports whether id is a known profile id.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Default returns the designated fallback profile.
func (r *Registry) Default() *Profile {
	return r.fallback
}

// All returns the profiles in registration order. The returned slice is a
// copy; the profiles themselves remain shared and read-only.
func (r *Registry) All() []*Profile {
	out := make([]*Profile, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.ordered)
}
