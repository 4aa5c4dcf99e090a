package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Correlations gates the numeric columns of ds through CheckAndPreprocess and
// returns their pairwise-complete Pearson matrix. The matrix is nil when
// fewer than two numeric columns exist. A pair with fewer than two shared
// rows or zero variance gets r=0.
func Correlations(ds *typeinfer.Dataset) (*CorrMatrix, error) {
	names := typeinfer.ColumnsOfType(ds, typeinfer.Numeric)
	if len(names) < 2 {
		return nil, nil
	}
	required := make(map[string]typeinfer.InferredType, len(names))
	for _, n := range names {
		required[n] = typeinfer.Numeric
	}
	gated, err := typeinfer.CheckAndPreprocess(ds, required)
	if err != nil {
		return nil, err
	}
	cols := make([]*typeinfer.Column, len(names))
	for i, n := range names {
		cols[i], _ = gated.Column(n)
	}
	n := len(names)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := 0; b < a; b++ {
			r := pearson(cols[a].Values, cols[b].Values)
			mat[a][b], mat[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}, nil
}

// pearson uses the rows where both values are present. Values are centered
// on their means before multiplying so large offsets such as Unix
// timestamps keep their precision.
func pearson(xs, ys []typeinfer.Value) float64 {
	var px, py []float64
	for i := range xs {
		x, okx := xs[i].Float()
		y, oky := ys[i].Float()
		if okx && oky {
			px = append(px, x)
			py = append(py, y)
		}
	}
	if len(px) < 2 {
		return 0
	}
	mx, my := meanOf(px), meanOf(py)
	var sxx, syy, sxy float64
	for i := range px {
		dx, dy := px[i]-mx, py[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func meanOf(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// TopPairs lists the off-diagonal pairs by descending |r|.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	for i := 0; i < len(m.Columns); i++ {
		for j := i + 1; j < len(m.Columns); j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
