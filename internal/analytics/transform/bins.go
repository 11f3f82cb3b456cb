package transform

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const labelPrecision = 3

// Bins are equal-width, right-closed intervals spanning a set of values.
// The lowest edge is pushed down by 0.1% of the range so the minimum falls
// inside the first interval.
type Bins struct {
	Edges  []float64
	labels []string
}

// NewBins spreads n intervals over [min(values), max(values)].
func NewBins(values []float64, n int) *Bins {
	if n < 1 {
		n = 1
	}
	if len(values) == 0 {
		return &Bins{}
	}
	mn, mx := values[0], values[0]
	for _, v := range values[1:] {
		mn = math.Min(mn, v)
		mx = math.Max(mx, v)
	}

	padded := mn == mx
	if padded {
		mn -= spread(mn)
		mx += spread(mx)
	}
	edges := make([]float64, n+1)
	step := (mx - mn) / float64(n)
	for i := range edges {
		edges[i] = mn + float64(i)*step
	}
	edges[n] = mx
	if !padded {
		edges[0] -= (mx - mn) * 0.001
	}

	b := &Bins{Edges: edges}
	b.labels = intervalLabels(edges)
	return b
}

func spread(v float64) float64 {
	if v == 0 {
		return 0.001
	}
	return 0.001 * math.Abs(v)
}

// Label returns the interval containing v.
func (b *Bins) Label(v float64) (string, bool) {
	i, ok := b.Index(v)
	if !ok {
		return "", false
	}
	return b.labels[i], true
}

// Index returns the position of the interval containing v.
func (b *Bins) Index(v float64) (int, bool) {
	if len(b.Edges) < 2 || math.IsNaN(v) {
		return 0, false
	}
	j := sort.SearchFloat64s(b.Edges, v)
	if j == 0 || j == len(b.Edges) {
		return 0, false
	}
	return j - 1, true
}

// Labels lists every interval in ascending order.
func (b *Bins) Labels() []string {
	return append([]string(nil), b.labels...)
}

func intervalLabels(edges []float64) []string {
	p := inferPrecision(edges)
	out := make([]string, 0, len(edges)-1)
	for i := 0; i+1 < len(edges); i++ {
		out = append(out, "("+formatEdge(roundFrac(edges[i], p))+", "+formatEdge(roundFrac(edges[i+1], p))+"]")
	}
	return out
}

// inferPrecision raises the rounding precision until every edge stays distinct.
func inferPrecision(edges []float64) int {
	for p := labelPrecision; p < 20; p++ {
		seen := make(map[float64]struct{}, len(edges))
		for _, e := range edges {
			seen[roundFrac(e, p)] = struct{}{}
		}
		if len(seen) == len(edges) {
			return p
		}
	}
	return labelPrecision
}

// roundFrac keeps precision significant digits of the fractional part.
func roundFrac(x float64, precision int) float64 {
	if x == 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	whole, frac := math.Modf(x)
	digits := precision
	if whole == 0 {
		digits = -int(math.Floor(math.Log10(math.Abs(frac)))) - 1 + precision
	}
	scale := math.Pow(10, float64(digits))
	return math.Round(x*scale) / scale
}

func formatEdge(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
