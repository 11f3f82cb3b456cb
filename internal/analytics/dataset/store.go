package dataset

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ai2c-dataviz/internal/analytics/schema"
	"ai2c-dataviz/internal/cache"
	apperrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/common/metrics"
	"ai2c-dataviz/internal/common/observability"
	"ai2c-dataviz/internal/models"
)

// Provider is what the workers need from the dataset layer.
type Provider interface {
	Table(ctx context.Context, env, surveyKey string) (*models.ResponseTable, error)
	Schema(ctx context.Context, env, surveyKey string) models.Schema
}

// Store loads tables from an ordered list of sources and caches them per
// (env, survey key).
type Store struct {
	sources []Source
	cache   *cache.Cache[*models.ResponseTable]
	logger  logger.Logger
}

func NewStore(sources []Source, c *cache.Cache[*models.ResponseTable], log logger.Logger) *Store {
	if c == nil {
		c = cache.New[*models.ResponseTable]("table", cache.WithLogger[*models.ResponseTable](log))
	}
	return &Store{
		sources: sources,
		cache:   c,
		logger:  log.WithFields(map[string]interface{}{"component": "table-store"}),
	}
}

// Table returns the cached table for a survey, loading it on first use.
// A table that violates the column contract is returned as an error. When
// no source can deliver, the result is an empty table that is not cached,
// so the next call tries again.
func (s *Store) Table(ctx context.Context, env, surveyKey string) (*models.ResponseTable, error) {
	t, err := s.cache.GetOrLoad(ctx, cache.Key{Env: env, Survey: surveyKey}, func(ctx context.Context) (*models.ResponseTable, bool, error) {
		return s.load(ctx, env, surveyKey)
	})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return models.EmptyTable(), nil
	}
	return t, nil
}

// Reload fetches the table again and swaps the cache entry when the content
// changed. It reports whether a swap happened. A failed fetch keeps the
// current entry.
func (s *Store) Reload(ctx context.Context, env, surveyKey string) (*models.ResponseTable, bool, error) {
	key := cache.Key{Env: env, Survey: surveyKey}
	fresh, ok, err := s.load(ctx, env, surveyKey)
	if err != nil {
		return nil, false, err
	}
	current, cached := s.cache.Get(key)
	if !ok {
		if cached {
			return current, false, nil
		}
		return fresh, false, nil
	}
	if cached && current.Fingerprint == fresh.Fingerprint {
		return current, false, nil
	}
	s.cache.Replace(ctx, key, fresh)
	return fresh, true, nil
}

func (s *Store) load(ctx context.Context, env, surveyKey string) (*models.ResponseTable, bool, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.load",
		attribute.String("env", env),
		attribute.String("surveyKey", surveyKey),
	)
	defer span.End()

	log := s.logger.WithFields(map[string]interface{}{"env": env, "surveyKey": surveyKey})
	for _, src := range s.sources {
		t, err := src.Fetch(ctx, surveyKey)
		switch {
		case err == nil:
			metrics.TableLoads.WithLabelValues(src.Name(), "ok").Inc()
			span.SetAttributes(attribute.String("source", src.Name()), attribute.Int("rows", t.Len()))
			log.Info("response table loaded", map[string]interface{}{
				"source": src.Name(),
				"rows":   t.Len(),
			})
			return t, true, nil

		case errors.Is(err, ErrTableNotFound):
			metrics.TableLoads.WithLabelValues(src.Name(), "not_found").Inc()
			log.Debug("response table not in source", map[string]interface{}{"source": src.Name()})

		case isStructural(err):
			metrics.TableLoads.WithLabelValues(src.Name(), "invalid").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid table")
			log.Error("response table rejected", map[string]interface{}{
				"source": src.Name(),
				"error":  err.Error(),
			})
			return nil, false, err

		default:
			metrics.TableLoads.WithLabelValues(src.Name(), "failed").Inc()
			span.RecordError(err)
			log.Warn("response table fetch failed", map[string]interface{}{
				"source": src.Name(),
				"code":   string(apperrors.ErrCodeTableFetchFailed),
				"error":  err.Error(),
			})
		}
	}

	log.Warn("no response table available, serving empty table", nil)
	return models.EmptyTable(), false, nil
}

func isStructural(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeRequiredColumnsMissing) ||
		apperrors.HasCode(err, apperrors.ErrCodeTableUnparsable)
}

// Service bundles tables and schemas behind Provider.
type Service struct {
	tables  *Store
	schemas *schema.Resolver
}

func NewService(tables *Store, schemas *schema.Resolver) *Service {
	return &Service{tables: tables, schemas: schemas}
}

func (s *Service) Table(ctx context.Context, env, surveyKey string) (*models.ResponseTable, error) {
	return s.tables.Table(ctx, env, surveyKey)
}

func (s *Service) Schema(ctx context.Context, env, surveyKey string) models.Schema {
	return s.schemas.LoadSchema(ctx, env, surveyKey)
}
