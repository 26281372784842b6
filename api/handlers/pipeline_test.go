package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxellab/greenlight/config"
	"github.com/voxellab/greenlight/director"
	"github.com/voxellab/greenlight/pipeline"
	"github.com/voxellab/greenlight/store"
	"github.com/voxellab/greenlight/storyboard"
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

func newTestServer(t *testing.T, textTurns ...mocks.Turn) *httptest.Server {
	t.Helper()

	st, err := store.Open("sqlite", ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if len(textTurns) == 0 {
		textTurns = []mocks.Turn{{Text: boardFixture}}
	}
	textProvider := mocks.NewScripted(textTurns...)

	builderCfg := storyboard.DefaultBuilderConfig()
	builderCfg.MaxPromptTokens = 0

	svc := pipeline.NewService(pipeline.Options{
		Analyzer: vision.NewAnalyzer(mocks.TextTurns(visionFixture), vision.Config{Model: "gpt-4o"}, nil),
		Builder:  storyboard.NewBuilder(textProvider, builderCfg, nil),
		Refiner:  storyboard.NewRefiner(textProvider, storyboard.DefaultRefinerConfig(), nil),
		Registry: director.NewBuiltinRegistry(),
		Store:    st,
		Presets:  config.BuiltinStyles(),
	})

	mux := http.NewServeMux()
	NewPipelineHandler(svc, nil).Register(mux)
	NewHealthHandler(svc, nil).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func decodeData(t *testing.T, envelope Response, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func analyzeImage(t *testing.T, srv *httptest.Server) types.RawAnalysis {
	t.Helper()
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/analyze",
		map[string]string{"image_url": "https://img.example/shoe.png"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var analysis types.RawAnalysis
	decodeData(t, env, &analysis)
	return analysis
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	analysis := analyzeImage(t, srv)
	assert.NotEmpty(t, analysis.ID)
	assert.InDelta(t, 9, analysis.Scores.Physics, 0.001)
	assert.Equal(t, "red running shoe", analysis.Facts.PrimarySubject)
}

func TestAnalyzeValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/analyze", map[string]string{"image_url": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, string(types.ErrInvalidRequest), env.Error.Code)
}

func TestDirectorsAndStyles(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/directors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var directors []director.Profile
	decodeData(t, env, &directors)
	assert.Len(t, directors, 4)

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/styles", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var styles []types.StylePreset
	decodeData(t, env, &styles)
	assert.NotEmpty(t, styles)
	// The hidden reference URL never leaves the service.
	assert.NotContains(t, fmt.Sprint(env.Data), "assets.voxellab.dev")
}

func TestLineupEndpoint(t *testing.T) {
	srv := newTestServer(t, mocks.Turn{Text: "hook\ntreatment\npayoff"})
	analysis := analyzeImage(t, srv)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/analyses/"+analysis.ID+"/lineup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var takes []pipeline.DirectorTake
	decodeData(t, env, &takes)
	require.Len(t, takes, 4)
	for _, take := range takes {
		assert.Len(t, take.Commentary.Beats, types.SceneCount)
		assert.NotEmpty(t, take.Routing.Engine)
	}
}

func TestBoardFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t,
		mocks.Turn{Text: boardFixture},
		mocks.Turn{Text: `{"action": "shoe bursts through paper"}`},
	)
	analysis := analyzeImage(t, srv)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/boards",
		map[string]string{"analysis_id": analysis.ID, "director_id": "voltage"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var board types.Storyboard
	decodeData(t, env, &board)
	require.Len(t, board.Scenes, types.SceneCount)

	// Approve scene 1, reject scene 2.
	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/scenes/"+board.Scenes[0].ID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var scene types.VideoScene
	decodeData(t, env, &scene)
	assert.Equal(t, types.StatusGreen, scene.Status)

	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/scenes/"+board.Scenes[1].ID+"/reject", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, env, &scene)
	assert.Equal(t, "shoe bursts through paper", scene.ActionToken)
	assert.Equal(t, board.InvariantToken, scene.InvariantToken)

	// Submit the approved scene.
	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/boards/"+board.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prod types.ProductionRequest
	decodeData(t, env, &prod)
	assert.Equal(t, []string{board.Scenes[0].ID}, prod.SceneIDs)
}

func TestTweakEndpointValidation(t *testing.T) {
	srv := newTestServer(t)
	analysis := analyzeImage(t, srv)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/boards",
		map[string]string{"analysis_id": analysis.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board types.Storyboard
	decodeData(t, env, &board)

	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/scenes/"+board.Scenes[0].ID+"/tweak",
		map[string]string{"feedback": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(types.ErrInvalidRequest), env.Error.Code)
}

func TestNotFoundMapping(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/boards/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(types.ErrNotFound), env.Error.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
