package pipeline

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxellab/greenlight/config"
	"github.com/voxellab/greenlight/director"
	"github.com/voxellab/greenlight/internal/cache"
	"github.com/voxellab/greenlight/internal/metrics"
	"github.com/voxellab/greenlight/store"
	"github.com/voxellab/greenlight/storyboard"
	"github.com/voxellab/greenlight/testutil"
	"github.com/voxellab/greenlight/testutil/mocks"
	"github.com/voxellab/greenlight/types"
	"github.com/voxellab/greenlight/vision"
)

const visionFixture = `{"physics": 9, "vibe": 4, "logic": 6, "integrity": 8.5,
 "visual_facts": {"primary_subject": "red running shoe", "objects": ["shoe"],
  "detected_text": [], "color_mood": "warm red", "tone": "energetic", "industry": "sportswear"}}`

const boardFixture = `{"style_id": "neon-rush", "invariant": "red running shoe",
 "scenes": [{"action": "dolly in", "duration_sec": 4},
            {"action": "orbit", "duration_sec": 4},
            {"action": "pull back", "duration_sec": 4}]}`

type fixture struct {
	svc    *Service
	vision *mocks.ScriptedProvider
	text   *mocks.ScriptedProvider
}

func newFixture(t *testing.T, withCache bool, textTurns ...mocks.Turn) *fixture {
	t.Helper()

	st, err := store.Open("sqlite", ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var cm *cache.Manager
	if withCache {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		cm, err = cache.NewManager(cache.Config{Addr: mr.Addr()}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = cm.Close() })
	}

	visionProvider := mocks.TextTurns(visionFixture)
	if len(textTurns) == 0 {
		textTurns = []mocks.Turn{{Text: boardFixture}}
	}
	textProvider := mocks.NewScripted(textTurns...)

	builderCfg := storyboard.DefaultBuilderConfig()
	builderCfg.MaxPromptTokens = 0

	svc := NewService(Options{
		Analyzer: vision.NewAnalyzer(visionProvider, vision.Config{Model: "gpt-4o"}, nil),
		Builder:  storyboard.NewBuilder(textProvider, builderCfg, nil),
		Refiner:  storyboard.NewRefiner(textProvider, storyboard.DefaultRefinerConfig(), nil),
		Registry: director.NewBuiltinRegistry(),
		Store:    st,
		Cache:    cm,
		Metrics:  metrics.NewCollector("greenlight_test", prometheus.NewRegistry(), nil),
		Presets:  config.BuiltinStyles(),
	})
	return &fixture{svc: svc, vision: visionProvider, text: textProvider}
}

func TestAnalyzeOnceThroughCache(t *testing.T) {
	f := newFixture(t, true)
	ctx := testutil.TestContext(t)

	first, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	assert.Equal(t, types.TrinityScores{Physics: 9, Vibe: 4, Logic: 6}, first.Scores)

	second, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.vision.Calls())
}

func TestAnalyzeDedupesThroughDatabase(t *testing.T) {
	f := newFixture(t, false)
	ctx := testutil.TestContext(t)

	first, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)

	second, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.vision.Calls())
}

func TestAnalyzeDistinctImages(t *testing.T) {
	f := newFixture(t, false)
	ctx := testutil.TestContext(t)

	a, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	b, err := f.svc.Analyze(ctx, "https://img.example/bottle.png")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, f.vision.Calls())
}

func TestLineup(t *testing.T) {
	// Every pitch replays the same three lines; the takes differ in the
	// locally computed bias and routing.
	f := newFixture(t, false, mocks.Turn{Text: "hook\ntreatment\npayoff"})
	ctx := testutil.TestContext(t)

	analysis, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)

	takes, err := f.svc.Lineup(ctx, analysis.ID)
	require.NoError(t, err)
	require.Len(t, takes, f.svc.registry.Len())

	byID := map[string]DirectorTake{}
	for i, take := range takes {
		assert.Equal(t, f.svc.registry.All()[i].ID, take.Director.ID)
		require.Len(t, take.Commentary.Beats, types.SceneCount)
		byID[take.Director.ID] = take
	}

	// Physics dominates for the safe handheld profile: 9*1.5 clamps to 10
	// versus vibe 4*0.8.
	steadicam := byID["steadicam"]
	assert.Equal(t, types.EngineKinetix, steadicam.Routing.Engine)
	assert.Equal(t, types.ReasonScoreRouting, steadicam.Routing.Reason)
	assert.InDelta(t, 10, steadicam.Biased.Physics, 0.001)

	// The dream profile prefers its engine regardless of scores.
	fever := byID["fever-dream"]
	assert.Equal(t, types.EngineLumina, fever.Routing.Engine)
	assert.Equal(t, types.ReasonPersonaPreference, fever.Routing.Reason)
}

func TestLineupUnknownAnalysis(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Lineup(testutil.TestContext(t), "missing")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrNotFound))
}

func TestCreateBoardPersists(t *testing.T) {
	f := newFixture(t, false)
	ctx := testutil.TestContext(t)

	analysis, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)

	board, err := f.svc.CreateBoard(ctx, analysis.ID, "voltage")
	require.NoError(t, err)
	require.Len(t, board.Scenes, types.SceneCount)
	assert.Equal(t, "voltage", board.DirectorID)
	assert.False(t, board.Fallback)

	loaded, err := f.svc.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, board.InvariantToken, loaded.InvariantToken)
	require.Len(t, loaded.Scenes, types.SceneCount)
}

func TestCreateBoardMasksUnknownDirector(t *testing.T) {
	f := newFixture(t, false)
	ctx := testutil.TestContext(t)

	analysis, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)

	board, err := f.svc.CreateBoard(ctx, analysis.ID, "no-such-director")
	require.NoError(t, err)
	assert.Equal(t, director.DefaultProfileID, board.DirectorID)
}

func TestSceneVerdictFlow(t *testing.T) {
	f := newFixture(t, false,
		mocks.Turn{Text: boardFixture},
		mocks.Turn{Text: `{"action": "shoe bursts through paper"}`},
		mocks.Turn{Text: `{"action": "slower orbit, holding the logo"}`},
	)
	ctx := testutil.TestContext(t)

	analysis, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	board, err := f.svc.CreateBoard(ctx, analysis.ID, "balanced")
	require.NoError(t, err)

	first := board.Scenes[0].ID
	second := board.Scenes[1].ID

	approved, err := f.svc.ApproveScene(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, types.StatusGreen, approved.Status)
	assert.Zero(t, approved.Attempts)

	rejected, err := f.svc.RejectScene(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "shoe bursts through paper", rejected.ActionToken)
	assert.Equal(t, board.InvariantToken, rejected.InvariantToken)
	assert.Equal(t, types.StatusPending, rejected.Status)

	tweaked, err := f.svc.TweakScene(ctx, second, "keep the logo readable")
	require.NoError(t, err)
	assert.Equal(t, "slower orbit, holding the logo", tweaked.ActionToken)

	// The database carries the attempt history.
	stored, err := f.svc.store.GetScene(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Attempts)
	assert.Equal(t, board.InvariantToken, stored.InvariantToken)
}

func TestTweakSurvivesGenerationFailure(t *testing.T) {
	f := newFixture(t, false,
		mocks.Turn{Text: boardFixture},
		mocks.Turn{Err: types.NewError(types.ErrUpstreamTimeout, "deadline")},
	)
	ctx := testutil.TestContext(t)

	analysis, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	board, err := f.svc.CreateBoard(ctx, analysis.ID, "balanced")
	require.NoError(t, err)

	scene := board.Scenes[0]
	tweaked, err := f.svc.TweakScene(ctx, scene.ID, "make it moodier")
	require.NoError(t, err)
	assert.Equal(t, scene.ActionToken, tweaked.ActionToken)
	assert.Equal(t, types.StatusPending, tweaked.Status)

	stored, err := f.svc.store.GetScene(ctx, scene.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
}

func TestTweakWithoutFeedbackFails(t *testing.T) {
	f := newFixture(t, false)
	ctx := testutil.TestContext(t)

	analysis, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	board, err := f.svc.CreateBoard(ctx, analysis.ID, "balanced")
	require.NoError(t, err)

	_, err = f.svc.TweakScene(ctx, board.Scenes[0].ID, "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))
}

func TestSubmitBoard(t *testing.T) {
	f := newFixture(t, false)
	ctx := testutil.TestContext(t)

	analysis, err := f.svc.Analyze(ctx, "https://img.example/shoe.png")
	require.NoError(t, err)
	board, err := f.svc.CreateBoard(ctx, analysis.ID, "balanced")
	require.NoError(t, err)

	// Nothing approved yet.
	_, err = f.svc.SubmitBoard(ctx, board.ID, nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))

	_, err = f.svc.ApproveScene(ctx, board.Scenes[0].ID)
	require.NoError(t, err)
	_, err = f.svc.ApproveScene(ctx, board.Scenes[2].ID)
	require.NoError(t, err)

	req, err := f.svc.SubmitBoard(ctx, board.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, board.ID, req.BoardID)
	assert.Len(t, req.Scenes, 2)

	loaded, err := f.svc.store.GetProduction(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.SceneIDs, loaded.SceneIDs)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true)

	status := f.svc.Health(testutil.TestContext(t))
	assert.Equal(t, "ok", status["database"])
	assert.Equal(t, "ok", status["cache"])
}
