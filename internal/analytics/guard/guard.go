// Package guard decides which columns of a response table may be used as
// segmentation or pivot dimensions.
package guard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ai2c-dataviz/internal/models"
)

const (
	DefaultMinUnique = 50
	DefaultMaxRatio  = 0.2
)

var piiPatterns = compile(
	`\bcpf\b`, `\bcnpj\b`, `\brg\b`, `\bdoc`, `document`, `\bpassport\b`,
	`e[-_ ]?mail`, `\bemail\b`, `\btelefone\b`, `\bphone\b`, `\bcelular\b`,
	`\bwhatsapp\b`, `\bendere`, `\baddress\b`, `\bcep\b`, `\bzipcode\b`,
	`\bnome\b`, `\bname\b`, `\bid\b`, `\bip\b`,
	`lat`, `lon`, `longitude`, `latitude`, `device`, `imei`,
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Thresholds configures the high-cardinality rule.
type Thresholds struct {
	MinUnique int
	MaxRatio  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{MinUnique: DefaultMinUnique, MaxRatio: DefaultMaxRatio}
}

// Guard evaluates columns against the structural, PII and cardinality rules.
type Guard struct {
	thresholds Thresholds
	structural map[string]struct{}
}

func New(t Thresholds) *Guard {
	if t.MinUnique <= 0 {
		t.MinUnique = DefaultMinUnique
	}
	if t.MaxRatio <= 0 {
		t.MaxRatio = DefaultMaxRatio
	}
	return &Guard{thresholds: t, structural: models.StructuralColumns()}
}

// IsPII reports whether a column name looks like personal data.
// respondent_id is pseudonymized upstream and always passes.
func IsPII(column string) bool {
	c := strings.ToLower(column)
	if c == models.ColRespondentID {
		return false
	}
	for _, p := range piiPatterns {
		if p.MatchString(c) {
			return true
		}
	}
	return false
}

// IsStructural reports whether the column is an id, an answer field or required metadata.
func (g *Guard) IsStructural(column string) bool {
	_, ok := g.structural[column]
	return ok
}

// HighCardinality reports whether the column has too many distinct values to
// be a useful dimension. Any failure while counting is treated as high cardinality.
func (g *Guard) HighCardinality(table *models.ResponseTable, column string) (high bool) {
	defer func() {
		if r := recover(); r != nil {
			high = true
		}
	}()
	unique, err := distinctCount(table, column)
	if err != nil {
		return true
	}
	total := table.Len()
	if total < 1 {
		total = 1
	}
	return unique >= g.thresholds.MinUnique && float64(unique)/float64(total) > g.thresholds.MaxRatio
}

func distinctCount(table *models.ResponseTable, column string) (int, error) {
	if !table.HasColumn(column) {
		return 0, fmt.Errorf("column %q not in table", column)
	}
	seen := make(map[string]struct{})
	for i := range table.Rows {
		v, ok := table.Rows[i].Value(column)
		if !ok {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen), nil
}

// AllowedDimensions returns the sorted columns that are neither structural,
// PII-like nor high-cardinality.
func (g *Guard) AllowedDimensions(table *models.ResponseTable) []string {
	if table.IsEmpty() {
		return []string{}
	}
	out := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		if g.IsStructural(c) || IsPII(c) || g.HighCardinality(table, c) {
			continue
		}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AllowedDimensions applies the default thresholds.
func AllowedDimensions(table *models.ResponseTable) []string {
	return New(DefaultThresholds()).AllowedDimensions(table)
}
