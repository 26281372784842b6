package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voxellab/greenlight/director"
	"github.com/voxellab/greenlight/internal/cache"
	"github.com/voxellab/greenlight/internal/metrics"
	"github.com/voxellab/greenlight/llm/retry"
	"github.com/voxellab/greenlight/store"
	"github.com/voxellab/greenlight/storyboard"
	"github.com/voxellab/greenlight/types"
	"github.com/voxellab/greenlight/vision"
)

const instrumentationName = "greenlight/pipeline"

// DirectorTake is one director's reading of an analyzed image: the biased
// scores, the resulting engine decision, and the narrative pitch.
type DirectorTake struct {
	Director   *director.Profile     `json:"director"`
	Biased     types.BiasedScores    `json:"biased_scores"`
	Routing    types.RoutingDecision `json:"routing"`
	Commentary *types.Commentary     `json:"commentary"`
}

// Service wires the pipeline stages together.
type Service struct {
	analyzer *vision.Analyzer
	builder  *storyboard.Builder
	refiner  *storyboard.Refiner
	registry *director.Registry
	store    *store.Store
	cache    *cache.Manager
	retryer  retry.Retryer
	metrics  *metrics.Collector
	tracer   trace.Tracer
	logger   *zap.Logger
	presets  []types.StylePreset
	cacheTTL time.Duration
}

// Options collects the service dependencies. Cache and Metrics are
// optional; everything else is required.
type Options struct {
	Analyzer *vision.Analyzer
	Builder  *storyboard.Builder
	Refiner  *storyboard.Refiner
	Registry *director.Registry
	Store    *store.Store
	Cache    *cache.Manager
	Retryer  retry.Retryer
	Metrics  *metrics.Collector
	Logger   *zap.Logger
	Presets  []types.StylePreset
	CacheTTL time.Duration
}

// NewService assembles the pipeline.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retryer := opts.Retryer
	if retryer == nil {
		retryer = retry.NewBackoffRetryer(retry.DefaultPolicy(), logger)
	}
	return &Service{
		analyzer: opts.Analyzer,
		builder:  opts.Builder,
		refiner:  opts.Refiner,
		registry: opts.Registry,
		store:    opts.Store,
		cache:    opts.Cache,
		retryer:  retryer,
		metrics:  opts.Metrics,
		tracer:   otel.Tracer(instrumentationName),
		logger:   logger.With(zap.String("component", "pipeline")),
		presets:  opts.Presets,
		cacheTTL: opts.CacheTTL,
	}
}

// Styles returns the active preset catalogue.
func (s *Service) Styles() []types.StylePreset {
	out := make([]types.StylePreset, len(s.presets))
	copy(out, s.presets)
	return out
}

// Directors returns the available director profiles.
func (s *Service) Directors() []*director.Profile {
	return s.registry.All()
}

// Analyze resolves the analysis for an image, paying for the vision call
// only when neither the cache nor the database has seen the image before.
func (s *Service) Analyze(ctx context.Context, imageURL string) (*types.RawAnalysis, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Analyze",
		trace.WithAttributes(attribute.String("image.url", imageURL)))
	defer span.End()

	if cached := s.cachedAnalysis(ctx, imageURL); cached != nil {
		span.SetAttributes(attribute.String("analysis.source", "cache"))
		return cached, nil
	}

	if prior, err := s.store.FindAnalysisByImage(ctx, imageURL); err == nil {
		span.SetAttributes(attribute.String("analysis.source", "database"))
		s.cacheAnalysis(ctx, imageURL, prior)
		return prior, nil
	}

	var analysis *types.RawAnalysis
	err := s.retryer.Do(ctx, func() error {
		var aerr error
		analysis, aerr = s.analyzer.Analyze(ctx, imageURL)
		return aerr
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vision analysis failed")
		if s.metrics != nil {
			s.metrics.RecordAnalysis("error")
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("analysis.source", "vision"),
		attribute.String("analysis.id", analysis.ID),
	)

	if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
		// The analysis itself succeeded; losing the persisted copy only
		// costs a future vision call.
		s.logger.Warn("persist analysis failed", zap.String("analysis_id", analysis.ID), zap.Error(err))
	}
	s.cacheAnalysis(ctx, imageURL, analysis)
	if s.metrics != nil {
		s.metrics.RecordAnalysis("ok")
	}
	return analysis, nil
}

func (s *Service) cachedAnalysis(ctx context.Context, imageURL string) *types.RawAnalysis {
	if s.cache == nil {
		return nil
	}
	var analysis types.RawAnalysis
	err := s.cache.GetJSON(ctx, cache.AnalysisKey(imageURL), &analysis)
	if err != nil {
		if !cache.IsCacheMiss(err) {
			s.logger.Warn("analysis cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordAnalysisCache(false)
		}
		return nil
	}
	if s.metrics != nil {
		s.metrics.RecordAnalysisCache(true)
	}
	return &analysis
}

func (s *Service) cacheAnalysis(ctx context.Context, imageURL string, analysis *types.RawAnalysis) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, cache.AnalysisKey(imageURL), analysis, s.cacheTTL); err != nil {
		s.logger.Warn("analysis cache write failed", zap.Error(err))
	}
}

// GetAnalysis loads a stored analysis.
func (s *Service) GetAnalysis(ctx context.Context, id string) (*types.RawAnalysis, error) {
	return s.store.GetAnalysis(ctx, id)
}

// Lineup produces every director's take on an analysis. Pitches run
// concurrently since each is an independent model call; the bias math and
// routing are computed locally. The lineup order matches the registry
// order.
func (s *Service) Lineup(ctx context.Context, analysisID string) ([]DirectorTake, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Lineup",
		trace.WithAttributes(attribute.String("analysis.id", analysisID)))
	defer span.End()

	analysis, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	profiles := s.registry.All()
	takes := make([]DirectorTake, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range profiles {
		i, p := i, p
		g.Go(func() error {
			biased := director.ApplyBias(p, analysis.Scores)
			routing := director.Route(p, biased)
			commentary := s.builder.Pitch(gctx, p, analysis, biased)
			takes[i] = DirectorTake{
				Director:   p,
				Biased:     biased,
				Routing:    routing,
				Commentary: commentary,
			}
			if s.metrics != nil {
				s.metrics.RecordRouting(string(routing.Engine), routing.Reason)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return takes, nil
}

// CreateBoard builds and persists a storyboard for one director's take.
func (s *Service) CreateBoard(ctx context.Context, analysisID, directorID string) (*types.Storyboard, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.CreateBoard",
		trace.WithAttributes(
			attribute.String("analysis.id", analysisID),
			attribute.String("director.id", directorID),
		))
	defer span.End()

	analysis, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	profile := s.registry.Lookup(directorID)
	board := s.builder.Build(ctx, analysis, profile.ID, s.presets)
	span.SetAttributes(
		attribute.String("board.id", board.ID),
		attribute.Bool("board.fallback", board.Fallback),
	)

	if err := s.store.SaveBoard(ctx, board); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordBoard(board.Fallback)
	}
	s.logger.Info("storyboard created",
		zap.String("board_id", board.ID),
		zap.String("director", profile.ID),
		zap.Bool("fallback", board.Fallback))
	return board, nil
}

// GetBoard loads a stored storyboard.
func (s *Service) GetBoard(ctx context.Context, id string) (*types.Storyboard, error) {
	return s.store.GetBoard(ctx, id)
}

// ApproveScene marks a scene green. Pure transition, no model call.
func (s *Service) ApproveScene(ctx context.Context, sceneID string) (*types.VideoScene, error) {
	scene, err := s.store.GetScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	updated := s.refiner.Approve(*scene)
	if err := s.store.UpdateSceneStatus(ctx, sceneID, updated.Status); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSceneVerdict("approve")
	}
	return &updated, nil
}

// RejectScene replaces a scene's motion with a new one. Never fails on the
// generation side; only storage errors surface.
func (s *Service) RejectScene(ctx context.Context, sceneID string) (*types.VideoScene, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.RejectScene",
		trace.WithAttributes(attribute.String("scene.id", sceneID)))
	defer span.End()

	scene, err := s.store.GetScene(ctx, sceneID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	updated := s.refiner.Reject(ctx, *scene)
	if err := s.store.UpdateSceneContent(ctx, sceneID, updated.ActionToken, updated.FullPrompt, updated.Status); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSceneVerdict("reject")
	}
	return &updated, nil
}

// TweakScene revises a scene's motion around client feedback.
func (s *Service) TweakScene(ctx context.Context, sceneID, feedback string) (*types.VideoScene, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.TweakScene",
		trace.WithAttributes(attribute.String("scene.id", sceneID)))
	defer span.End()

	scene, err := s.store.GetScene(ctx, sceneID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	updated, err := s.refiner.Tweak(ctx, *scene, feedback)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.store.UpdateSceneContent(ctx, sceneID, updated.ActionToken, updated.FullPrompt, updated.Status); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSceneVerdict("tweak")
	}
	return &updated, nil
}

// SubmitBoard freezes the approved scenes of a board into a production
// request and persists it.
func (s *Service) SubmitBoard(ctx context.Context, boardID string, sceneIDs []string) (*types.ProductionRequest, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.SubmitBoard",
		trace.WithAttributes(attribute.String("board.id", boardID)))
	defer span.End()

	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req, err := storyboard.Snapshot(board, sceneIDs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.store.SaveProduction(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordProduction()
	}
	s.logger.Info("production request submitted",
		zap.String("board_id", boardID),
		zap.String("production_id", req.ID),
		zap.Int("scenes", len(req.Scenes)))
	return req, nil
}

// Health reports the readiness of the backing services.
func (s *Service) Health(ctx context.Context) map[string]string {
	status := map[string]string{}
	if err := s.store.Ping(ctx); err != nil {
		status["database"] = err.Error()
	} else {
		status["database"] = "ok"
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			status["cache"] = err.Error()
		} else {
			status["cache"] = "ok"
		}
	}
	return status
}
