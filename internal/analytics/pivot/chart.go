package pivot

// BarSeries is one coloured series of a bar chart.
type BarSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// BarChart has one bar per category and series; Grouped is set when the
// series come from a column dimension.
type BarChart struct {
	XDim       string      `json:"xDim"`
	Categories []string    `json:"categories"`
	Series     []BarSeries `json:"series"`
	Grouped    bool        `json:"grouped"`
}

// Heatmap is a row-dimension by column-dimension matrix. Z[i][j] is the
// value for Y[i] and X[j].
type Heatmap struct {
	XDim string      `json:"xDim"`
	YDim string      `json:"yDim"`
	X    []string    `json:"x"`
	Y    []string    `json:"y"`
	Z    [][]float64 `json:"z"`
}

// Charts holds the projections a result supports; either may be nil.
type Charts struct {
	Bars    *BarChart `json:"bars,omitempty"`
	Heatmap *Heatmap  `json:"heatmap,omitempty"`
}

// ChartProjection derives chart data from a pivot result. Bars use the
// innermost row dimension as x; with two row dimensions, bars sharing an
// x value stack into one. A heatmap needs exactly one row dimension and a
// column dimension.
func ChartProjection(res *Result) Charts {
	if res == nil || len(res.Rows) == 0 || len(res.RowDims) == 0 {
		return Charts{}
	}
	return Charts{Bars: bars(res), Heatmap: heatmap(res)}
}

func bars(res *Result) *BarChart {
	inner := len(res.RowDims) - 1
	chart := &BarChart{
		XDim:    res.RowDims[inner],
		Grouped: res.ColDim != "",
	}

	xIndex := map[string]int{}
	for _, row := range res.Rows {
		x := row.Keys[inner]
		if _, ok := xIndex[x]; !ok {
			xIndex[x] = len(chart.Categories)
			chart.Categories = append(chart.Categories, x)
		}
	}

	width := len(res.Columns)
	if !chart.Grouped {
		width = 1
	}
	chart.Series = make([]BarSeries, width)
	for ci := 0; ci < width; ci++ {
		chart.Series[ci] = BarSeries{Name: res.Columns[ci], Values: make([]float64, len(chart.Categories))}
	}
	for _, row := range res.Rows {
		xi := xIndex[row.Keys[inner]]
		for ci := 0; ci < width; ci++ {
			chart.Series[ci].Values[xi] += row.Values[ci]
		}
	}
	return chart
}

func heatmap(res *Result) *Heatmap {
	if res.ColDim == "" || len(res.RowDims) != 1 {
		return nil
	}
	hm := &Heatmap{
		XDim: res.ColDim,
		YDim: res.RowDims[0],
		X:    append([]string(nil), res.Columns...),
		Y:    make([]string, len(res.Rows)),
		Z:    make([][]float64, len(res.Rows)),
	}
	for i, row := range res.Rows {
		hm.Y[i] = row.Keys[0]
		hm.Z[i] = append([]float64(nil), row.Values...)
	}
	return hm
}
