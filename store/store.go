package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/voxellab/greenlight/types"
)

// Store is the persistence layer. All methods translate gorm errors into
// the shared error model; callers never see gorm types.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database and returns a migrated Store.
// Supported drivers: sqlite, postgres, mysql.
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("unsupported database driver %q (supported: sqlite, postgres, mysql)", driver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "connect database").WithCause(err)
	}

	s := New(db, logger)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	s.logger.Info("database connected", zap.String("driver", driver))
	return s, nil
}

// New wraps an existing gorm handle. Callers own migration when using New
// directly.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.With(zap.String("component", "store"))}
}

// AutoMigrate creates or updates the schema.
func (s *Store) AutoMigrate() error {
	err := s.db.AutoMigrate(
		&AnalysisRecord{},
		&BoardRecord{},
		&SceneRecord{},
		&StylePresetRecord{},
		&ProductionRecord{},
	)
	if err != nil {
		return types.NewError(types.ErrInternal, "auto migrate").WithCause(err)
	}
	return nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return types.NewError(types.ErrInternal, "acquire sql handle").WithCause(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return types.NewError(types.ErrTransport, "database unreachable").WithCause(err)
	}
	return nil
}

// SaveAnalysis persists one completed analysis.
func (s *Store) SaveAnalysis(ctx context.Context, a *types.RawAnalysis) error {
	rec, err := analysisToRecord(a)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return types.NewError(types.ErrInternal, "save analysis").WithCause(err)
	}
	return nil
}

// GetAnalysis loads one analysis by id.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*types.RawAnalysis, error) {
	var rec AnalysisRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "analysis "+id+" not found")
		}
		return nil, types.NewError(types.ErrInternal, "load analysis").WithCause(err)
	}
	return rec.toDomain()
}

// FindAnalysisByImage returns the newest analysis of an image, if any.
// Used to dedupe the expensive vision call when the cache is cold.
func (s *Store) FindAnalysisByImage(ctx context.Context, imageURL string) (*types.RawAnalysis, error) {
	var rec AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("image_url = ?", imageURL).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "no analysis for image")
		}
		return nil, types.NewError(types.ErrInternal, "load analysis by image").WithCause(err)
	}
	return rec.toDomain()
}

// SaveBoard persists a storyboard together with its scenes in one
// transaction.
func (s *Store) SaveBoard(ctx context.Context, b *types.Storyboard) error {
	rec := boardToRecord(b)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return types.NewError(types.ErrInternal, "save storyboard").WithCause(err)
	}
	return nil
}

// GetBoard loads a storyboard with its scenes in display order.
func (s *Store) GetBoard(ctx context.Context, id string) (*types.Storyboard, error) {
	var rec BoardRecord
	err := s.db.WithContext(ctx).
		Preload("Scenes", func(db *gorm.DB) *gorm.DB {
			return db.Order("scene_index ASC")
		}).
		First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "storyboard "+id+" not found")
		}
		return nil, types.NewError(types.ErrInternal, "load storyboard").WithCause(err)
	}
	return rec.toDomain(), nil
}

// GetScene loads one scene by id.
func (s *Store) GetScene(ctx context.Context, id string) (*types.VideoScene, error) {
	var rec SceneRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "scene "+id+" not found")
		}
		return nil, types.NewError(types.ErrInternal, "load scene").WithCause(err)
	}
	scene := rec.toDomain()
	return &scene, nil
}

// UpdateSceneStatus writes a status-only transition, used by approval.
func (s *Store) UpdateSceneStatus(ctx context.Context, id string, status types.SceneStatus) error {
	res := s.db.WithContext(ctx).
		Model(&SceneRecord{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return types.NewError(types.ErrInternal, "update scene status").WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, "scene "+id+" not found")
	}
	return nil
}

// UpdateSceneContent writes a regenerated action and prompt. The attempt
// counter advances inside the UPDATE so concurrent refinements of the
// same scene cannot lose an increment.
func (s *Store) UpdateSceneContent(ctx context.Context, id, action, fullPrompt string, status types.SceneStatus) error {
	res := s.db.WithContext(ctx).
		Model(&SceneRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"action_token": action,
			"full_prompt":  fullPrompt,
			"status":       string(status),
			"attempts":     gorm.Expr("attempts + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return types.NewError(types.ErrInternal, "update scene content").WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, "scene "+id+" not found")
	}
	return nil
}

// SaveProduction persists a submitted production request.
func (s *Store) SaveProduction(ctx context.Context, p *types.ProductionRequest) error {
	rec, err := productionToRecord(p)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return types.NewError(types.ErrInternal, "save production request").WithCause(err)
	}
	return nil
}

// GetProduction loads one production request by id.
func (s *Store) GetProduction(ctx context.Context, id string) (*types.ProductionRequest, error) {
	var rec ProductionRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "production request "+id+" not found")
		}
		return nil, types.NewError(types.ErrInternal, "load production request").WithCause(err)
	}
	return rec.toDomain()
}

// SeedStyles inserts catalogue entries that are not present yet. Existing
// rows win so operators can tune presets without redeploying.
func (s *Store) SeedStyles(ctx context.Context, presets []types.StylePreset) error {
	for _, p := range presets {
		rec := presetToRecord(p)
		err := s.db.WithContext(ctx).
			Where(StylePresetRecord{ID: p.ID}).
			FirstOrCreate(&rec).Error
		if err != nil {
			return types.NewError(types.ErrInternal, "seed style "+p.ID).WithCause(err)
		}
	}
	return nil
}

// ListStyles returns the full catalogue ordered by id.
func (s *Store) ListStyles(ctx context.Context) ([]types.StylePreset, error) {
	var recs []StylePresetRecord
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, types.NewError(types.ErrInternal, "list styles").WithCause(err)
	}
	presets := make([]types.StylePreset, 0, len(recs))
	for i := range recs {
		presets = append(presets, recs[i].toDomain())
	}
	return presets, nil
}
