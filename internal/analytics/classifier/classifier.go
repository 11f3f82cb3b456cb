// Package classifier infers the answer shape of a question from its values and
// reconciles it with an authoritative schema when one exists.
package classifier

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"ai2c-dataviz/internal/models"
)

// Kind is the heuristic classification of a column of answers.
type Kind string

const (
	KindEmpty       Kind = "empty"
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindMultiple    Kind = "multiple"
	KindText        Kind = "text"
)

// Delimiters separates the options of a multi-select answer.
var Delimiters = regexp.MustCompile(`[,;/|]`)

// Thresholds are the tunable constants of the rule list. Changing any of them
// reclassifies whole question sets.
type Thresholds struct {
	NumericShare       float64 // share of values parsing as numbers, inclusive
	TextUniqueRatio    float64 // unique/total above which large samples are text
	SmallSample        int     // samples of this size or less skip ratio-based rules
	DelimiterShare     float64 // share of values with a delimiter, exclusive
	MultipleMaxRatio   float64 // unique/total must stay below this for multi-select
	CategoricalMaxSize int     // unique count up to which a column is categorical
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		NumericShare:       0.8,
		TextUniqueRatio:    0.6,
		SmallSample:        10,
		DelimiterShare:     0.02,
		MultipleMaxRatio:   0.5,
		CategoricalMaxSize: 25,
	}
}

// Profile holds the statistics every rule is evaluated against.
type Profile struct {
	Total         int
	Unique        int
	NumericCount  int
	DelimiterHits int
}

func (p Profile) UniqueRatio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Unique) / float64(p.Total)
}

func (p Profile) share(n int) float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(n) / float64(p.Total)
}

// Rule pairs a predicate over a profile with the kind it yields.
type Rule struct {
	Name   string
	Match  func(Profile) bool
	Result Kind
}

// Rules returns the ordered decision procedure for the given thresholds.
// The first matching rule wins; the final rule always matches.
func Rules(t Thresholds) []Rule {
	return []Rule{
		{
			Name:   "no values",
			Match:  func(p Profile) bool { return p.Total == 0 },
			Result: KindEmpty,
		},
		{
			Name:   "mostly numeric",
			Match:  func(p Profile) bool { return p.share(p.NumericCount) >= t.NumericShare },
			Result: KindNumeric,
		},
		{
			Name: "high cardinality free text",
			Match: func(p Profile) bool {
				return p.UniqueRatio() > t.TextUniqueRatio && p.Total > t.SmallSample
			},
			Result: KindText,
		},
		{
			Name: "delimited options",
			Match: func(p Profile) bool {
				if p.share(p.DelimiterHits) <= t.DelimiterShare {
					return false
				}
				return p.Total <= t.SmallSample || p.UniqueRatio() < t.MultipleMaxRatio
			},
			Result: KindMultiple,
		},
		{
			Name:   "few distinct values",
			Match:  func(p Profile) bool { return p.Unique <= t.CategoricalMaxSize },
			Result: KindCategorical,
		},
		{
			Name:   "fallback",
			Match:  func(Profile) bool { return true },
			Result: KindText,
		},
	}
}

// Classifier evaluates a fixed rule list.
type Classifier struct {
	rules []Rule
}

func New(t Thresholds) *Classifier {
	return &Classifier{rules: Rules(t)}
}

var defaultClassifier = New(DefaultThresholds())

// Classify applies the default thresholds.
func Classify(answers []*string) Kind {
	return defaultClassifier.Classify(answers)
}

// Classify returns the kind of the first rule matching the non-null answers.
func (c *Classifier) Classify(answers []*string) Kind {
	p := Build(answers)
	for _, r := range c.rules {
		if r.Match(p) {
			return r.Result
		}
	}
	return KindText
}

// Build profiles the non-null values of a column.
func Build(answers []*string) Profile {
	var p Profile
	seen := make(map[string]struct{})
	for _, a := range answers {
		if a == nil {
			continue
		}
		v := *a
		p.Total++
		seen[v] = struct{}{}
		if IsNumber(v) {
			p.NumericCount++
		}
		if Delimiters.MatchString(v) {
			p.DelimiterHits++
		}
	}
	p.Unique = len(seen)
	return p
}

// IsNumber reports whether v parses as a number.
func IsNumber(v string) bool {
	_, ok := ParseNumber(v)
	return ok
}

// ParseNumber parses a trimmed numeric answer.
func ParseNumber(v string) (float64, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToVizType maps a heuristic kind into the viz vocabulary. Empty columns render as open-ended.
func ToVizType(k Kind) models.VizType {
	switch k {
	case KindNumeric:
		return models.VizNumeric
	case KindCategorical:
		return models.VizSingleChoice
	case KindMultiple:
		return models.VizMultipleChoice
	default:
		return models.VizOpenEnded
	}
}

// Resolution is the outcome of ResolveType.
type Resolution struct {
	VizType    models.VizType
	Kind       Kind
	FromSchema bool
}

// ResolveType returns the schema's declared type when present, else the heuristic.
func ResolveType(questionID string, answers []*string, schema models.Schema) models.VizType {
	return Resolve(questionID, answers, schema).VizType
}

// Resolve is ResolveType with the heuristic kind and provenance attached.
func Resolve(questionID string, answers []*string, schema models.Schema) Resolution {
	if e, ok := schema.Lookup(questionID); ok && e.VizType.Valid() {
		return Resolution{VizType: e.VizType, FromSchema: true}
	}
	k := Classify(answers)
	return Resolution{VizType: ToVizType(k), Kind: k}
}
