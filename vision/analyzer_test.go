package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxellab/greenlight/testutil"
	"github.com/voxellab/greenlight/testutil/mocks"
	"github.com/voxellab/greenlight/types"
)

const goodAnalysis = `{
	"physics": 9, "vibe": 4, "logic": 6, "integrity": 8.5,
	"visual_facts": {
		"primary_subject": "matte black water bottle",
		"objects": ["bottle", "marble slab"],
		"detected_text": ["HYDRA"],
		"color_mood": "dark monochrome",
		"tone": "premium",
		"industry": "beverage"
	}
}`

func TestAnalyze(t *testing.T) {
	provider := mocks.TextTurns(goodAnalysis)
	a := NewAnalyzer(provider, Config{Model: "vision-model"}, zap.NewNop())

	raw, err := a.Analyze(testutil.TestContext(t), "https://cdn.example.com/brand.png")
	require.NoError(t, err)

	assert.NotEmpty(t, raw.ID)
	assert.Equal(t, "https://cdn.example.com/brand.png", raw.ImageURL)
	assert.Equal(t, types.TrinityScores{Physics: 9, Vibe: 4, Logic: 6}, raw.Scores)
	assert.Equal(t, 8.5, raw.Integrity)
	assert.Equal(t, "matte black water bottle", raw.Facts.PrimarySubject)
	assert.Equal(t, []string{"HYDRA"}, raw.Facts.DetectedText)
	assert.False(t, raw.CreatedAt.IsZero())

	// Exactly one external call, carrying the image part.
	assert.Equal(t, 1, provider.Calls())
	req := provider.LastRequest()
	require.Len(t, req.Messages, 2)
	require.Len(t, req.Messages[1].Parts, 2)
	assert.Equal(t, "image_url", req.Messages[1].Parts[1].Type)
}

func TestAnalyzeFencedOutput(t *testing.T) {
	provider := mocks.TextTurns("Here you go:\n```json\n" + goodAnalysis + "\n```")
	a := NewAnalyzer(provider, Config{Model: "vision-model"}, zap.NewNop())

	raw, err := a.Analyze(testutil.TestContext(t), "https://cdn.example.com/brand.png")
	require.NoError(t, err)
	assert.Equal(t, 9.0, raw.Scores.Physics)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"not json", "the image looks great, maybe a 7?"},
		{"missing physics", `{"vibe": 4, "logic": 6, "integrity": 8, "visual_facts": {}}`},
		{"missing integrity", `{"physics": 9, "vibe": 4, "logic": 6, "visual_facts": {}}`},
		{"score above ten", `{"physics": 13.5, "vibe": 4, "logic": 6, "integrity": 8, "visual_facts": {}}`},
		{"negative score", `{"physics": -1, "vibe": 4, "logic": 6, "integrity": 8, "visual_facts": {}}`},
		{"empty response", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mocks.TextTurns(tt.output)
			a := NewAnalyzer(provider, Config{Model: "m"}, zap.NewNop())

			_, err := a.Analyze(testutil.TestContext(t), "https://cdn.example.com/x.png")
			require.Error(t, err)
			assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
		})
	}
}

func TestAnalyzeTransportErrorsSurface(t *testing.T) {
	provider := mocks.NewScripted(mocks.Turn{
		Err: types.NewError(types.ErrTransport, "connection reset").WithRetryable(true),
	})
	a := NewAnalyzer(provider, Config{Model: "m"}, zap.NewNop())

	_, err := a.Analyze(testutil.TestContext(t), "https://cdn.example.com/x.png")
	require.Error(t, err)
	assert.Equal(t, types.ErrTransport, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestAnalyzeRequiresImageURL(t *testing.T) {
	a := NewAnalyzer(mocks.TextTurns(goodAnalysis), Config{}, zap.NewNop())
	_, err := a.Analyze(testutil.TestContext(t), "")
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
}

func TestAnalyzeSameOutputParsesIdentically(t *testing.T) {
	first, err := parseAnalysis(goodAnalysis)
	require.NoError(t, err)
	second, err := parseAnalysis(goodAnalysis)
	require.NoError(t, err)

	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Facts, second.Facts)
}
