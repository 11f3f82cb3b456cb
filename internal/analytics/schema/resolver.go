// Package schema loads the authoritative questionnaire schema of a survey.
// A survey without a usable schema resolves to an empty map, which leaves
// question typing to the heuristic classifier.
package schema

import (
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/multierr"

	"ai2c-dataviz/internal/cache"
	commonerrors "ai2c-dataviz/internal/common/errors"
	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/common/storage"
	"ai2c-dataviz/internal/models"
)

// Format of a schema document.
type Format string

const (
	FormatSurveyJSON       Format = "survey-json"
	FormatQuestionnaireCSV Format = "questionnaire-csv"
)

// Layout says where schema documents live.
type Layout struct {
	EnvBuckets map[string]string
	BaseBucket string
	Prefix     string
}

// Location is one candidate schema document.
type Location struct {
	Bucket string
	Key    string
	Format Format
}

func (l Location) String() string {
	return fmt.Sprintf("%s/%s", l.Bucket, l.Key)
}

// EnvBucket is the environment-scoped bucket, or the base bucket when the
// environment has none.
func (l Layout) EnvBucket(env string) string {
	if b, ok := l.EnvBuckets[env]; ok && b != "" {
		return b
	}
	return l.BaseBucket
}

// Locations lists candidates in lookup order: structured before tabular,
// environment before base.
func (l Layout) Locations(env, surveyKey string) []Location {
	jsonKey := path.Join(l.Prefix, surveyKey+"-survey.json")
	csvKey := path.Join(l.Prefix, surveyKey+"-questionnaires.csv")

	buckets := []string{l.EnvBucket(env)}
	if l.BaseBucket != buckets[0] {
		buckets = append(buckets, l.BaseBucket)
	}

	out := make([]Location, 0, 2*len(buckets))
	for _, b := range buckets {
		out = append(out, Location{Bucket: b, Key: jsonKey, Format: FormatSurveyJSON})
	}
	for _, b := range buckets {
		out = append(out, Location{Bucket: b, Key: csvKey, Format: FormatQuestionnaireCSV})
	}
	return out
}

// Resolver loads and caches schemas per (env, survey key).
type Resolver struct {
	reader storage.Reader
	layout Layout
	cache  *cache.Cache[models.Schema]
	logger logger.Logger
}

func NewResolver(reader storage.Reader, layout Layout, c *cache.Cache[models.Schema], log logger.Logger) *Resolver {
	if c == nil {
		c = cache.New[models.Schema]("schema", cache.WithLogger[models.Schema](log))
	}
	return &Resolver{
		reader: reader,
		layout: layout,
		cache:  c,
		logger: log.WithFields(map[string]interface{}{"component": "schema-resolver"}),
	}
}

// LoadSchema returns the schema for a survey. It never fails: absent or
// corrupt sources are logged and yield an empty map. The returned map is
// shared and must not be modified.
func (r *Resolver) LoadSchema(ctx context.Context, env, surveyKey string) models.Schema {
	key := cache.Key{Env: env, Survey: surveyKey}
	s, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (models.Schema, bool, error) {
		s, stable := r.fetch(ctx, env, surveyKey)
		return s, stable, nil
	})
	if err != nil || s == nil {
		return models.Schema{}
	}
	return s
}

// Reload re-reads the sources and replaces the cached entry.
func (r *Resolver) Reload(ctx context.Context, env, surveyKey string) models.Schema {
	s, _ := r.fetch(ctx, env, surveyKey)
	r.cache.Replace(ctx, cache.Key{Env: env, Survey: surveyKey}, s)
	return s
}

// fetch walks the candidate locations. stable is false when a source could
// not be reached, in which case the result must not be cached.
func (r *Resolver) fetch(ctx context.Context, env, surveyKey string) (models.Schema, bool) {
	locations := r.layout.Locations(env, surveyKey)
	log := r.logger.WithFields(map[string]interface{}{"env": env, "surveyKey": surveyKey})

	var errs error
	stable := true
	for _, loc := range locations {
		data, err := r.reader.Read(ctx, loc.Bucket, loc.Key)
		if err != nil {
			if !errors.Is(err, storage.ErrObjectNotFound) {
				stable = false
				errs = multierr.Append(errs, err)
			}
			continue
		}

		s, err := parse(loc.Format, data)
		if err != nil {
			errs = multierr.Append(errs, commonerrors.NewSchemaSourceInvalidError(loc.String(), err.Error()))
			continue
		}
		if len(s) == 0 {
			continue
		}

		log.Info("questionnaire schema loaded", map[string]interface{}{
			"location":  loc.String(),
			"format":    string(loc.Format),
			"questions": len(s),
		})
		return finalize(s), true
	}

	names := make([]string, len(locations))
	for i, loc := range locations {
		names[i] = loc.String()
	}
	fields := map[string]interface{}{"locations": names}
	if errs != nil {
		fields["error"] = errs.Error()
		fields["errorCount"] = len(multierr.Errors(errs))
	}
	log.Warn("no usable questionnaire schema, using heuristic classification", fields)

	return models.Schema{}, stable && ctx.Err() == nil
}

func parse(f Format, data []byte) (models.Schema, error) {
	switch f {
	case FormatSurveyJSON:
		return parseSurveyJSON(data)
	case FormatQuestionnaireCSV:
		return parseQuestionnaireCSV(data)
	}
	return nil, fmt.Errorf("unknown schema format %q", f)
}
