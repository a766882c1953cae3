// Package stats provides small descriptive-statistics helpers for sensor
// time series: lag autocorrelation, the correlation ratio between grouped
// samples, and the coefficient of variation.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Autocorrelation computes the lag-k autocorrelation of a series:
// Cov(s[k:], s[:n-k]) / sqrt(Var(s[k:]) * Var(s[:n-k])), with the sample
// covariance over population variances.
func Autocorrelation(data []float64, k int) (float64, error) {
	if k <= 0 || k >= len(data) {
		return 0, fmt.Errorf("lag %d out of range for series of length %d", k, len(data))
	}
	x1 := data[k:]
	x2 := data[:len(data)-k]
	cov := stat.Covariance(x1, x2, nil)
	v1 := stat.PopVariance(x1, nil)
	v2 := stat.PopVariance(x2, nil)
	return cov / math.Sqrt(v1*v2), nil
}

// CorrelationRatio measures how strongly a numeric variable separates by
// category: the between-class sum of squares over the total sum of squares,
// in [0, 1].
func CorrelationRatio(groups map[string][]float64) (float64, error) {
	var all []float64
	for _, vals := range groups {
		all = append(all, vals...)
	}
	if len(all) == 0 {
		return 0, fmt.Errorf("no samples in any group")
	}
	allMean := stat.Mean(all, nil)

	withinSS := 0.0  // deviation sum of squares within each category
	betweenSS := 0.0 // weighted squared distance of category means from the grand mean
	for _, vals := range groups {
		if len(vals) == 0 {
			continue
		}
		n := float64(len(vals))
		mean := stat.Mean(vals, nil)
		withinSS += n * stat.PopVariance(vals, nil)
		d := mean - allMean
		betweenSS += n * d * d
	}
	return betweenSS / (withinSS + betweenSS), nil
}

// CV is the coefficient of variation sqrt(Var)/Mean with the population
// variance. A zero mean is not guarded and yields Inf/NaN.
func CV(data []float64) float64 {
	return stat.PopStdDev(data, nil) / stat.Mean(data, nil)
}
