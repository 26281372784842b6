package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voxellab/greenlight/api/handlers"
	"github.com/voxellab/greenlight/config"
	"github.com/voxellab/greenlight/director"
	"github.com/voxellab/greenlight/internal/cache"
	"github.com/voxellab/greenlight/internal/metrics"
	"github.com/voxellab/greenlight/internal/server"
	"github.com/voxellab/greenlight/internal/telemetry"
	"github.com/voxellab/greenlight/llm/openaicompat"
	"github.com/voxellab/greenlight/llm/retry"
	"github.com/voxellab/greenlight/pipeline"
	"github.com/voxellab/greenlight/store"
	"github.com/voxellab/greenlight/storyboard"
	"github.com/voxellab/greenlight/vision"
)

// Server wires the full pipeline behind the HTTP and metrics listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	st        *store.Store
	cacheMgr  *cache.Manager
	otel      *telemetry.Providers
	collector *metrics.Collector
	svc       *pipeline.Service

	rateLimiterCancel context.CancelFunc
}

// NewServer creates an unstarted server from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start assembles the pipeline and brings up both listeners.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector("greenlight", nil, s.logger)

	otelProviders, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.otel = otelProviders

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

func (s *Server) initPipeline() error {
	st, err := store.Open(s.cfg.Database.Driver, s.cfg.Database.DSN(), s.logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.st = st

	presets, err := config.LoadStyleCatalogue(s.cfg.Pipeline.StyleCatalogue)
	if err != nil {
		return fmt.Errorf("load style catalogue: %w", err)
	}
	if err := st.SeedStyles(context.Background(), presets); err != nil {
		return fmt.Errorf("seed styles: %w", err)
	}

	if s.cfg.Redis.Enabled {
		mgr, err := cache.NewManager(cache.Config{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
			DefaultTTL:   s.cfg.Redis.AnalysisTTL,
		}, s.logger)
		if err != nil {
			s.logger.Warn("Redis not available, analysis caching disabled", zap.Error(err))
		} else {
			s.cacheMgr = mgr
		}
	}

	// One provider serves both the vision and text calls; the model is
	// chosen per request.
	provider := openaicompat.New(openaicompat.Config{
		ProviderName:      s.cfg.LLM.Provider,
		APIKey:            s.cfg.LLM.APIKey,
		BaseURL:           s.cfg.LLM.BaseURL,
		DefaultModel:      s.cfg.LLM.TextModel,
		Timeout:           s.cfg.LLM.Timeout,
		RequestsPerMinute: float64(s.cfg.LLM.RequestsPerMinute),
	}, s.logger)

	builderCfg := storyboard.DefaultBuilderConfig()
	builderCfg.Model = s.cfg.LLM.TextModel
	builderCfg.MaxPromptTokens = s.cfg.Pipeline.MaxPromptTokens
	builderCfg.SceneDuration = s.cfg.Pipeline.SceneDuration

	refinerCfg := storyboard.DefaultRefinerConfig()
	refinerCfg.Model = s.cfg.LLM.TextModel

	policy := retry.DefaultPolicy()
	policy.MaxRetries = s.cfg.LLM.MaxRetries

	s.svc = pipeline.NewService(pipeline.Options{
		Analyzer: vision.NewAnalyzer(provider, vision.Config{
			Model:   s.cfg.LLM.VisionModel,
			Timeout: s.cfg.Pipeline.AnalysisTimeout,
		}, s.logger),
		Builder:  storyboard.NewBuilder(provider, builderCfg, s.logger),
		Refiner:  storyboard.NewRefiner(provider, refinerCfg, s.logger),
		Registry: director.NewBuiltinRegistry(),
		Store:    st,
		Cache:    s.cacheMgr,
		Retryer:  retry.NewBackoffRetryer(policy, s.logger),
		Metrics:  s.collector,
		Logger:   s.logger,
		Presets:  presets,
		CacheTTL: s.cfg.Redis.AnalysisTTL,
	})
	return nil
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	handlers.NewPipelineHandler(s.svc, s.logger).Register(mux)
	healthHandler := handlers.NewHealthHandler(s.svc, s.logger)
	healthHandler.Register(mux)
	mux.HandleFunc("GET /version", healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.collector),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}
	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}
	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a termination signal, then cleans up.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the listeners and releases pipeline resources.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")
	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}
	if s.cacheMgr != nil {
		if err := s.cacheMgr.Close(); err != nil {
			s.logger.Error("Cache shutdown error", zap.Error(err))
		}
	}
	if s.st != nil {
		if err := s.st.Close(); err != nil {
			s.logger.Error("Database shutdown error", zap.Error(err))
		}
	}
	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
