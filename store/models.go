package store

import (
	"encoding/json"
	"time"

	"github.com/voxellab/greenlight/types"
)

// AnalysisRecord is the persisted form of one vision analysis. Scores are
// flattened into columns so they can be queried; the free-form visual
// facts travel as a JSON blob.
type AnalysisRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	ImageURL  string `gorm:"size:2048;index"`
	Physics   float64
	Vibe      float64
	Logic     float64
	Integrity float64
	FactsJSON string `gorm:"type:text"`
	CreatedAt time.Time
}

func (AnalysisRecord) TableName() string { return "analyses" }

// BoardRecord is one storyboard row. Scenes live in their own table keyed
// by BoardID.
type BoardRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	AnalysisID     string `gorm:"size:36;index"`
	DirectorID     string `gorm:"size:64"`
	SelectedStyle  string `gorm:"size:64"`
	InvariantToken string `gorm:"size:512"`
	Fallback       bool
	CreatedAt      time.Time
	Scenes         []SceneRecord `gorm:"foreignKey:BoardID;references:ID"`
}

func (BoardRecord) TableName() string { return "storyboards" }

// SceneRecord is one scene row. SceneIndex is 1-based within the board.
type SceneRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	BoardID        string `gorm:"size:36;index"`
	SceneIndex     int
	InvariantToken string `gorm:"size:512"`
	ActionToken    string `gorm:"size:512"`
	StyleToken     string `gorm:"size:512"`
	FullPrompt     string `gorm:"size:2048"`
	HiddenRefURL   string `gorm:"size:2048"`
	DurationSec    float64
	Status         string `gorm:"size:16;index"`
	Attempts       int
	UpdatedAt      time.Time
}

func (SceneRecord) TableName() string { return "scenes" }

// StylePresetRecord is one catalogue entry.
type StylePresetRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	Name         string `gorm:"size:128"`
	Description  string `gorm:"size:512"`
	Category     string `gorm:"size:64;index"`
	PromptLayer  string `gorm:"size:1024"`
	HiddenRefURL string `gorm:"size:2048"`
}

func (StylePresetRecord) TableName() string { return "style_presets" }

// ProductionRecord is one submitted production request. The scene snapshot
// is stored as JSON: submitted content is immutable and never queried by
// column.
type ProductionRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	BoardID    string `gorm:"size:36;index"`
	ScenesJSON string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (ProductionRecord) TableName() string { return "production_requests" }

func analysisToRecord(a *types.RawAnalysis) (*AnalysisRecord, error) {
	facts, err := json.Marshal(a.Facts)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "encode visual facts").WithCause(err)
	}
	return &AnalysisRecord{
		ID:        a.ID,
		ImageURL:  a.ImageURL,
		Physics:   a.Scores.Physics,
		Vibe:      a.Scores.Vibe,
		Logic:     a.Scores.Logic,
		Integrity: a.Integrity,
		FactsJSON: string(facts),
		CreatedAt: a.CreatedAt,
	}, nil
}

func (r *AnalysisRecord) toDomain() (*types.RawAnalysis, error) {
	a := &types.RawAnalysis{
		ID:        r.ID,
		ImageURL:  r.ImageURL,
		Scores:    types.TrinityScores{Physics: r.Physics, Vibe: r.Vibe, Logic: r.Logic},
		Integrity: r.Integrity,
		CreatedAt: r.CreatedAt,
	}
	if r.FactsJSON != "" {
		if err := json.Unmarshal([]byte(r.FactsJSON), &a.Facts); err != nil {
			return nil, types.NewError(types.ErrInternal, "decode visual facts").WithCause(err)
		}
	}
	return a, nil
}

func boardToRecord(b *types.Storyboard) *BoardRecord {
	rec := &BoardRecord{
		ID:             b.ID,
		AnalysisID:     b.AnalysisID,
		DirectorID:     b.DirectorID,
		SelectedStyle:  b.SelectedStyle,
		InvariantToken: b.InvariantToken,
		Fallback:       b.Fallback,
		CreatedAt:      b.CreatedAt,
	}
	for _, sc := range b.Scenes {
		rec.Scenes = append(rec.Scenes, sceneToRecord(&sc))
	}
	return rec
}

func (r *BoardRecord) toDomain() *types.Storyboard {
	b := &types.Storyboard{
		ID:             r.ID,
		AnalysisID:     r.AnalysisID,
		DirectorID:     r.DirectorID,
		SelectedStyle:  r.SelectedStyle,
		InvariantToken: r.InvariantToken,
		Fallback:       r.Fallback,
		CreatedAt:      r.CreatedAt,
	}
	for i := range r.Scenes {
		b.Scenes = append(b.Scenes, r.Scenes[i].toDomain())
	}
	return b
}

func sceneToRecord(sc *types.VideoScene) SceneRecord {
	return SceneRecord{
		ID:             sc.ID,
		BoardID:        sc.BoardID,
		SceneIndex:     sc.Index,
		InvariantToken: sc.InvariantToken,
		ActionToken:    sc.ActionToken,
		StyleToken:     sc.StyleToken,
		FullPrompt:     sc.FullPrompt,
		HiddenRefURL:   sc.HiddenRefURL,
		DurationSec:    sc.DurationSec,
		Status:         string(sc.Status),
		Attempts:       sc.Attempts,
	}
}

func (r *SceneRecord) toDomain() types.VideoScene {
	return types.VideoScene{
		ID:             r.ID,
		BoardID:        r.BoardID,
		Index:          r.SceneIndex,
		InvariantToken: r.InvariantToken,
		ActionToken:    r.ActionToken,
		StyleToken:     r.StyleToken,
		FullPrompt:     r.FullPrompt,
		HiddenRefURL:   r.HiddenRefURL,
		DurationSec:    r.DurationSec,
		Status:         types.SceneStatus(r.Status),
		Attempts:       r.Attempts,
	}
}

func presetToRecord(p types.StylePreset) StylePresetRecord {
	return StylePresetRecord{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		PromptLayer:  p.PromptLayer,
		HiddenRefURL: p.HiddenRefURL,
	}
}

func (r *StylePresetRecord) toDomain() types.StylePreset {
	return types.StylePreset{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		PromptLayer:  r.PromptLayer,
		HiddenRefURL: r.HiddenRefURL,
	}
}

func productionToRecord(p *types.ProductionRequest) (*ProductionRecord, error) {
	scenes, err := json.Marshal(p.Scenes)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "encode production scenes").WithCause(err)
	}
	return &ProductionRecord{
		ID:         p.ID,
		BoardID:    p.BoardID,
		ScenesJSON: string(scenes),
		CreatedAt:  p.CreatedAt,
	}, nil
}

func (r *ProductionRecord) toDomain() (*types.ProductionRequest, error) {
	p := &types.ProductionRequest{
		ID:        r.ID,
		BoardID:   r.BoardID,
		CreatedAt: r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.ScenesJSON), &p.Scenes); err != nil {
		return nil, types.NewError(types.ErrInternal, "decode production scenes").WithCause(err)
	}
	for _, sc := range p.Scenes {
		p.SceneIDs = append(p.SceneIDs, sc.ID)
	}
	return p, nil
}
