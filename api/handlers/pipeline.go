package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/voxellab/greenlight/pipeline"
	"github.com/voxellab/greenlight/types"
)

// PipelineHandler serves the pre-production endpoints.
type PipelineHandler struct {
	svc    *pipeline.Service
	logger *zap.Logger
}

// NewPipelineHandler wires the handler to the pipeline service.
func NewPipelineHandler(svc *pipeline.Service, logger *zap.Logger) *PipelineHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineHandler{
		svc:    svc,
		logger: logger.With(zap.String("component", "api")),
	}
}

// Register installs the routes on mux.
func (h *PipelineHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/analyze", h.HandleAnalyze)
	mux.HandleFunc("GET /api/v1/analyses/{id}", h.HandleGetAnalysis)
	mux.HandleFunc("GET /api/v1/analyses/{id}/lineup", h.HandleLineup)
	mux.HandleFunc("GET /api/v1/directors", h.HandleDirectors)
	mux.HandleFunc("GET /api/v1/styles", h.HandleStyles)
	mux.HandleFunc("POST /api/v1/boards", h.HandleCreateBoard)
	mux.HandleFunc("GET /api/v1/boards/{id}", h.HandleGetBoard)
	mux.HandleFunc("POST /api/v1/boards/{id}/submit", h.HandleSubmitBoard)
	mux.HandleFunc("POST /api/v1/scenes/{id}/approve", h.HandleApproveScene)
	mux.HandleFunc("POST /api/v1/scenes/{id}/reject", h.HandleRejectScene)
	mux.HandleFunc("POST /api/v1/scenes/{id}/tweak", h.HandleTweakScene)
}

type analyzeRequest struct {
	ImageURL string `json:"image_url"`
}

// HandleAnalyze runs (or reuses) the vision analysis for an image.
func (h *PipelineHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "image_url is required", h.logger)
		return
	}

	analysis, err := h.svc.Analyze(r.Context(), req.ImageURL)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, analysis)
}

// HandleGetAnalysis returns a stored analysis.
func (h *PipelineHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.svc.GetAnalysis(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, analysis)
}

// HandleLineup returns every director's take on an analysis.
func (h *PipelineHandler) HandleLineup(w http.ResponseWriter, r *http.Request) {
	takes, err := h.svc.Lineup(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, takes)
}

// HandleDirectors lists the available director profiles.
func (h *PipelineHandler) HandleDirectors(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.svc.Directors())
}

// HandleStyles lists the style preset catalogue.
func (h *PipelineHandler) HandleStyles(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.svc.Styles())
}

type createBoardRequest struct {
	AnalysisID string `json:"analysis_id"`
	DirectorID string `json:"director_id"`
}

// HandleCreateBoard builds a storyboard for a director's take.
func (h *PipelineHandler) HandleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if req.AnalysisID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "analysis_id is required", h.logger)
		return
	}

	board, err := h.svc.CreateBoard(r.Context(), req.AnalysisID, req.DirectorID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, board)
}

// HandleGetBoard returns a stored storyboard.
func (h *PipelineHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.GetBoard(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, board)
}

type submitBoardRequest struct {
	SceneIDs []string `json:"scene_ids,omitempty"`
}

// HandleSubmitBoard freezes approved scenes into a production request.
func (h *PipelineHandler) HandleSubmitBoard(w http.ResponseWriter, r *http.Request) {
	var req submitBoardRequest
	if r.ContentLength > 0 {
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, err, h.logger)
			return
		}
	}

	prod, err := h.svc.SubmitBoard(r.Context(), r.PathValue("id"), req.SceneIDs)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, prod)
}

// HandleApproveScene marks a scene green.
func (h *PipelineHandler) HandleApproveScene(w http.ResponseWriter, r *http.Request) {
	scene, err := h.svc.ApproveScene(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, scene)
}

// HandleRejectScene regenerates a scene's motion from scratch.
func (h *PipelineHandler) HandleRejectScene(w http.ResponseWriter, r *http.Request) {
	scene, err := h.svc.RejectScene(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, scene)
}

type tweakSceneRequest struct {
	Feedback string `json:"feedback"`
}

// HandleTweakScene revises a scene's motion around client feedback.
func (h *PipelineHandler) HandleTweakScene(w http.ResponseWriter, r *http.Request) {
	var req tweakSceneRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	scene, err := h.svc.TweakScene(r.Context(), r.PathValue("id"), req.Feedback)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, scene)
}
