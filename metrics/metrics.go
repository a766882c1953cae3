// Package metrics provides closed-form error and similarity scores between a
// ground-truth signal and a reconstructed or predicted one.
//
// Every metric operates on two arrays of identical shape and reduces either
// over all elements (axis = AxisNone) or along one axis, preserving the
// remaining axes. Numerical degeneracy is never guarded: division by zero,
// logs of non-positive values and zero variance propagate as IEEE Inf/NaN so
// results stay comparable with numpy-style pipelines.
//
// Two definitions here are deliberately non-standard and must not be
// "corrected":
//
//   - MAPE and RMSPE score the ratio pred/truth against 1 rather than the
//     raw difference against truth, i.e. MAPE = mean(|1 - pred/truth|)*100.
//   - LSD divides the true spectrum by the difference of the two spectra,
//     not by the predicted spectrum. This deviates from the textbook
//     log-spectral distance; callers wanting the textbook quantity should
//     compute it themselves.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// AxisNone selects full reduction over all elements, producing a scalar.
const AxisNone = -1

// Array is a dense numeric array: a flat row-major buffer plus its shape.
// A scalar is represented by an empty shape and a single element.
type Array struct {
	Data  []float64
	Shape []int
}

// New wraps data in an Array with the given shape. The element count must
// match the shape's volume.
func New(data []float64, shape ...int) (*Array, error) {
	if len(data) != volume(shape) {
		return nil, fmt.Errorf("data has %d elements, shape %v needs %d", len(data), shape, volume(shape))
	}
	return &Array{Data: data, Shape: shape}, nil
}

// Scalar wraps a single value as a zero-rank Array.
func Scalar(v float64) *Array {
	return &Array{Data: []float64{v}}
}

// Size returns the total element count.
func (a *Array) Size() int { return len(a.Data) }

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.Shape) }

// Float returns the value of a fully-reduced (single element) array. It
// panics on arrays with more than one element.
func (a *Array) Float() float64 {
	if len(a.Data) != 1 {
		panic(fmt.Sprintf("metrics: Float on array of shape %v", a.Shape))
	}
	return a.Data[0]
}

func volume(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkShapes is the precondition shared by every metric.
func checkShapes(truth, pred *Array) error {
	if !sameShape(truth.Shape, pred.Shape) {
		return fmt.Errorf("shape mismatch: truth %v vs pred %v", truth.Shape, pred.Shape)
	}
	return nil
}

func onesLike(a *Array) *Array {
	data := make([]float64, len(a.Data))
	for i := range data {
		data[i] = 1
	}
	return &Array{Data: data, Shape: a.Shape}
}

// zip applies f elementwise over two same-shaped arrays.
func zip(x, y *Array, f func(a, b float64) float64) *Array {
	data := make([]float64, len(x.Data))
	for i := range data {
		data[i] = f(x.Data[i], y.Data[i])
	}
	return &Array{Data: data, Shape: x.Shape}
}

// apply maps f over every element.
func apply(a *Array, f func(float64) float64) *Array {
	data := make([]float64, len(a.Data))
	for i := range data {
		data[i] = f(a.Data[i])
	}
	return &Array{Data: data, Shape: a.Shape}
}

// reduceSum sums along axis (or over everything for AxisNone), dropping the
// reduced axis from the result shape.
func reduceSum(a *Array, axis int) (*Array, error) {
	if axis == AxisNone {
		total := 0.0
		for _, v := range a.Data {
			total += v
		}
		return Scalar(total), nil
	}
	if axis < 0 || axis >= len(a.Shape) {
		return nil, fmt.Errorf("axis %d out of range for shape %v", axis, a.Shape)
	}
	outer := volume(a.Shape[:axis])
	n := a.Shape[axis]
	inner := volume(a.Shape[axis+1:])

	outShape := make([]int, 0, len(a.Shape)-1)
	outShape = append(outShape, a.Shape[:axis]...)
	outShape = append(outShape, a.Shape[axis+1:]...)

	out := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for j := 0; j < n; j++ {
			base := (o*n + j) * inner
			dst := o * inner
			for i := 0; i < inner; i++ {
				out[dst+i] += a.Data[base+i]
			}
		}
	}
	return &Array{Data: out, Shape: outShape}, nil
}

// reduceMean is reduceSum divided by the reduced element count.
func reduceMean(a *Array, axis int) (*Array, error) {
	sum, err := reduceSum(a, axis)
	if err != nil {
		return nil, err
	}
	var count int
	if axis == AxisNone {
		count = a.Size()
	} else {
		count = a.Shape[axis]
	}
	inv := 1.0 / float64(count)
	for i := range sum.Data {
		sum.Data[i] *= inv
	}
	return sum, nil
}

// MAE is the mean absolute error mean(|truth - pred|).
func MAE(truth, pred *Array, axis int) (*Array, error) {
	if err := checkShapes(truth, pred); err != nil {
		return nil, err
	}
	diff := zip(truth, pred, func(t, p float64) float64 { return math.Abs(t - p) })
	return reduceMean(diff, axis)
}

// MSE is the mean squared error mean((truth - pred)^2).
func MSE(truth, pred *Array, axis int) (*Array, error) {
	if err := checkShapes(truth, pred); err != nil {
		return nil, err
	}
	diff := zip(truth, pred, func(t, p float64) float64 { d := t - p; return d * d })
	return reduceMean(diff, axis)
}

// RMSE is sqrt(MSE); it is defined through MSE, not reimplemented.
func RMSE(truth, pred *Array, axis int) (*Array, error) {
	m, err := MSE(truth, pred, axis)
	if err != nil {
		return nil, err
	}
	return apply(m, math.Sqrt), nil
}

// MAPE is the ratio-form mean absolute percentage error
// MAE(1, pred/truth) * 100. Elementwise division by a zero truth value is
// not guarded and yields Inf/NaN.
func MAPE(truth, pred *Array, axis int) (*Array, error) {
	if err := checkShapes(truth, pred); err != nil {
		return nil, err
	}
	ratio := zip(truth, pred, func(t, p float64) float64 { return p / t })
	m, err := MAE(onesLike(truth), ratio, axis)
	if err != nil {
		return nil, err
	}
	return apply(m, func(v float64) float64 { return v * 100 }), nil
}

// RMSPE is the ratio-form root mean squared percentage error
// RMSE(1, pred/truth) * 100, with the same division-by-zero propagation as
// MAPE.
func RMSPE(truth, pred *Array, axis int) (*Array, error) {
	if err := checkShapes(truth, pred); err != nil {
		return nil, err
	}
	ratio := zip(truth, pred, func(t, p float64) float64 { return p / t })
	m, err := RMSE(onesLike(truth), ratio, axis)
	if err != nil {
		return nil, err
	}
	return apply(m, func(v float64) float64 { return v * 100 }), nil
}

// RMSLE is RMSE(log(truth+1), log(pred+1)); NaN wherever an input is at or
// below -1.
func RMSLE(truth, pred *Array, axis int) (*Array, error) {
	if err := checkShapes(truth, pred); err != nil {
		return nil, err
	}
	lt := apply(truth, func(v float64) float64 { return math.Log(v + 1) })
	lp := apply(pred, func(v float64) float64 { return math.Log(v + 1) })
	return RMSE(lt, lp, axis)
}

// R2 is the coefficient of determination 1 - MSE/Var(truth), using the
// population variance. Scalar only. NaN when Var(truth) = 0 and the fit is
// exact, -Inf when Var(truth) = 0 otherwise.
func R2(truth, pred *Array) (float64, error) {
	if err := checkShapes(truth, pred); err != nil {
		return 0, err
	}
	m, err := MSE(truth, pred, AxisNone)
	if err != nil {
		return 0, err
	}
	return 1 - m.Float()/stat.PopVariance(truth.Data, nil), nil
}

// SNR is the signal-to-noise ratio in decibels,
// 10*log10(sum(truth^2) / sum((truth-pred)^2)). A zero error sum yields
// +Inf.
func SNR(truth, pred *Array, axis int) (*Array, error) {
	if err := checkShapes(truth, pred); err != nil {
		return nil, err
	}
	signal := apply(truth, func(v float64) float64 { return v * v })
	noise := zip(truth, pred, func(t, p float64) float64 { d := t - p; return d * d })

	signalSum, err := reduceSum(signal, axis)
	if err != nil {
		return nil, err
	}
	noiseSum, err := reduceSum(noise, axis)
	if err != nil {
		return nil, err
	}
	return zip(signalSum, noiseSum, func(s, n float64) float64 {
		return 10 * math.Log10(s/n)
	}), nil
}

// LSD is the log-spectral distance
// sqrt(mean((20*log10(|truth/(truth-pred)|))^2)). The denominator is the
// difference of the two spectra, not the predicted spectrum; see the package
// documentation.
func LSD(truthSpec, predSpec *Array, axis int) (*Array, error) {
	if err := checkShapes(truthSpec, predSpec); err != nil {
		return nil, err
	}
	logRatio := zip(truthSpec, predSpec, func(t, p float64) float64 {
		return 20 * math.Log10(math.Abs(t/(t-p)))
	})
	sq := apply(logRatio, func(v float64) float64 { return v * v })
	m, err := reduceMean(sq, axis)
	if err != nil {
		return nil, err
	}
	return apply(m, math.Sqrt), nil
}
