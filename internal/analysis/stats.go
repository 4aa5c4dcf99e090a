package analysis

import (
	"math"
	"sort"
)

type moments struct {
	n                   int
	min, max, mean, std float64
	skew, kurt          float64
}

// describe computes sample statistics. Mean and variance use Welford's
// update; skewness and kurtosis are the bias-adjusted sample estimators
// (excess kurtosis), zero when undefined.
func describe(vals []float64) moments {
	m := moments{min: math.Inf(1), max: math.Inf(-1)}
	var m2 float64
	for _, x := range vals {
		m.n++
		m.min = math.Min(m.min, x)
		m.max = math.Max(m.max, x)
		delta := x - m.mean
		m.mean += delta / float64(m.n)
		m2 += delta * (x - m.mean)
	}
	if m.n > 1 {
		m.std = math.Sqrt(m2 / float64(m.n-1))
	}
	var c2, c3, c4 float64
	for _, x := range vals {
		d := x - m.mean
		c2 += d * d
		c3 += d * d * d
		c4 += d * d * d * d
	}
	n := float64(m.n)
	if c2 == 0 {
		return m
	}
	c2, c3, c4 = c2/n, c3/n, c4/n
	if m.n >= 3 {
		m.skew = math.Sqrt(n*(n-1)) / (n - 2) * c3 / math.Pow(c2, 1.5)
	}
	if m.n >= 4 {
		g2 := c4/(c2*c2) - 3
		m.kurt = ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
	}
	return m
}

// robustOutliers counts values whose robust Z-score exceeds thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// Quantile interpolates linearly between the closest ranks of sorted.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
