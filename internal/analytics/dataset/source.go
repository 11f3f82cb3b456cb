package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/spf13/cast"

	"ai2c-dataviz/internal/common/storage"
	"ai2c-dataviz/internal/models"
)

// ErrTableNotFound means a source has nothing for the key; the next source
// is tried.
var ErrTableNotFound = errors.New("TABLE_NOT_FOUND")

// Source fetches the response table for a survey key.
type Source interface {
	Name() string
	Fetch(ctx context.Context, surveyKey string) (*models.ResponseTable, error)
}

// ObjectSource reads `{prefix}/{key}/{key}_analytics_cube.csv` from a bucket.
type ObjectSource struct {
	reader    storage.Reader
	bucket    string
	prefix    string
	delimiter rune
}

func NewObjectSource(reader storage.Reader, bucket, prefix string, delimiter rune) *ObjectSource {
	if delimiter == 0 {
		delimiter = ','
	}
	return &ObjectSource{reader: reader, bucket: bucket, prefix: prefix, delimiter: delimiter}
}

func (s *ObjectSource) Name() string { return "object" }

// ObjectKey is where the cube for surveyKey lives inside the bucket.
func (s *ObjectSource) ObjectKey(surveyKey string) string {
	return path.Join(s.prefix, surveyKey, surveyKey+"_analytics_cube.csv")
}

func (s *ObjectSource) Fetch(ctx context.Context, surveyKey string) (*models.ResponseTable, error) {
	key := s.ObjectKey(surveyKey)
	data, err := s.reader.Read(ctx, s.bucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrTableNotFound, s.bucket, key)
	}
	if err != nil {
		return nil, err
	}
	return ParseCSV(data, s.delimiter, s.bucket+"/"+key)
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads rows of a cube table filtered by its survey_key column.
type PostgresSource struct {
	db    *sql.DB
	table string
}

func NewPostgresSource(db *sql.DB, table string) (*PostgresSource, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSource{db: db, table: table}, nil
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Fetch(ctx context.Context, surveyKey string) (*models.ResponseTable, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", s.table, surveyKeyColumn)
	rows, err := s.db.QueryContext(ctx, query, surveyKey)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", s.table, err)
	}

	records := make([][]string, 0)
	for rows.Next() {
		values := make([]interface{}, len(header))
		ptrs := make([]interface{}, len(header))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = cellString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s survey_key=%s", ErrTableNotFound, s.table, surveyKey)
	}
	header, records = dropColumn(header, records, surveyKeyColumn)
	return FromRecords(header, records)
}

const surveyKeyColumn = "survey_key"

func dropColumn(header []string, records [][]string, name string) ([]string, [][]string) {
	at := -1
	for i, h := range header {
		if h == name {
			at = i
			break
		}
	}
	if at < 0 {
		return header, records
	}
	cut := func(xs []string) []string {
		return append(append([]string(nil), xs[:at]...), xs[at+1:]...)
	}
	for i := range records {
		records[i] = cut(records[i])
	}
	return cut(header), records
}

// cellString renders a scanned value the way the CSV export would.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	}
	return cast.ToString(v)
}
