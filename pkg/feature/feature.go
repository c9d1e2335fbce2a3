// Package feature implements the closed set of pure column transforms that a
// DataFrameSchematic's layers compose (spec.md §4.1). Every function takes one
// or more []float64 columns (NaN meaning null, see dataframe.Series.Float64Values)
// and returns a new []float64 of identical length; no function mutates its
// inputs or allocates by side effect.
package feature

import "math"

// RollingMean returns the arithmetic mean of src over the trailing window of
// size w, null (NaN) until minPeriods values have been seen. minPeriods <= 0
// defaults to w.
func RollingMean(src []float64, w int, minPeriods int) []float64 {
	if minPeriods <= 0 {
		minPeriods = w
	}
	out := make([]float64, len(src))
	sum := 0.0
	count := 0
	for i := range src {
		if !math.IsNaN(src[i]) {
			sum += src[i]
			count++
		}
		if i >= w {
			drop := src[i-w]
			if !math.IsNaN(drop) {
				sum -= drop
				count--
			}
		}
		if effectiveCount(i, w) >= minPeriods {
			out[i] = sum / float64(count)
		} else {
			out[i] = nan
		}
	}
	return out
}

func effectiveCount(i, w int) int {
	if i+1 < w {
		return i + 1
	}
	return w
}

// RollingMax returns the maximum of src over the trailing window of size w,
// null until minPeriods values have been seen.
func RollingMax(src []float64, w int, minPeriods int) []float64 {
	return rollingExtreme(src, w, minPeriods, func(a, b float64) bool { return a > b })
}

// RollingMin returns the minimum of src over the trailing window of size w,
// null until minPeriods values have been seen.
func RollingMin(src []float64, w int, minPeriods int) []float64 {
	return rollingExtreme(src, w, minPeriods, func(a, b float64) bool { return a < b })
}

func rollingExtreme(src []float64, w int, minPeriods int, better func(a, b float64) bool) []float64 {
	if minPeriods <= 0 {
		minPeriods = w
	}
	out := make([]float64, len(src))
	for i := range src {
		from := i - w + 1
		if from < 0 {
			from = 0
		}
		n := i - from + 1
		if n < minPeriods {
			out[i] = nan
			continue
		}
		best := nan
		seen := false
		for j := from; j <= i; j++ {
			if math.IsNaN(src[j]) {
				continue
			}
			if !seen || better(src[j], best) {
				best = src[j]
				seen = true
			}
		}
		if !seen {
			out[i] = nan
		} else {
			out[i] = best
		}
	}
	return out
}

// RollingStd returns the sample standard deviation (ddof=1) of src over the
// trailing window of size w, null until minPeriods values have been seen.
func RollingStd(src []float64, w int, minPeriods int) []float64 {
	if minPeriods <= 0 {
		minPeriods = w
	}
	out := make([]float64, len(src))
	for i := range src {
		from := i - w + 1
		if from < 0 {
			from = 0
		}
		var vals []float64
		for j := from; j <= i; j++ {
			if !math.IsNaN(src[j]) {
				vals = append(vals, src[j])
			}
		}
		if len(vals) < minPeriods || len(vals) < 2 {
			out[i] = nan
			continue
		}
		out[i] = sampleStd(vals)
	}
	return out
}

func sampleStd(vals []float64) float64 {
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// EWMMean computes the standard recursive exponentially-weighted mean with
// adjust=false: y0 = x0; yt = (1-alpha)*yt-1 + alpha*xt. Leading nulls stay
// null and the recursion starts at the first non-null input; a null after
// that repeats the previous output.
func EWMMean(src []float64, alpha float64) []float64 {
	out := make([]float64, len(src))
	var prev float64
	started := false
	for i, x := range src {
		if math.IsNaN(x) {
			if !started {
				out[i] = nan
				continue
			}
			out[i] = prev
			continue
		}
		if !started {
			prev = x
			started = true
		} else {
			prev = (1-alpha)*prev + alpha*x
		}
		out[i] = prev
	}
	return out
}

// ATR computes the true-range EWM-mean average true range with alpha=1/periods.
func ATR(high, low, close []float64, periods float64) []float64 {
	n := len(high)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		var hc, lc float64
		if i == 0 {
			hc, lc = nan, nan
		} else {
			hc = math.Abs(high[i] - close[i-1])
			lc = math.Abs(low[i] - close[i-1])
		}
		tr[i] = max3(hl, hc, lc)
	}
	return EWMMean(tr, 1.0/periods)
}

func max3(a, b, c float64) float64 {
	best := a
	if !math.IsNaN(b) && (math.IsNaN(best) || b > best) {
		best = b
	}
	if !math.IsNaN(c) && (math.IsNaN(best) || c > best) {
		best = c
	}
	return best
}

// ADR returns atr/close*100, or NaN for every row if the first atr value is
// null.
func ADR(atr, close []float64) []float64 {
	out := make([]float64, len(atr))
	firstValid := len(atr) > 0 && !math.IsNaN(atr[0])
	for i := range atr {
		if !firstValid {
			out[i] = nan
			continue
		}
		out[i] = (atr[i] / close[i]) * 100
	}
	return out
}

// RSI computes the relative strength index with alpha=1/periods.
func RSI(close []float64, periods float64) []float64 {
	n := len(close)
	alpha := 1.0 / periods
	gain := make([]float64, n)
	loss := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			gain[i], loss[i] = nan, nan
			continue
		}
		delta := close[i] - close[i-1]
		if delta > 0 {
			gain[i] = delta
		} else {
			gain[i] = 0
		}
		if delta < 0 {
			loss[i] = -delta
		} else {
			loss[i] = 0
		}
	}
	avgGain := EWMMean(gain, alpha)
	avgLoss := EWMMean(loss, alpha)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - (100 / (1 + avgGain[i]/avgLoss[i]))
	}
	return out
}

// BollingerResult carries the three columns produced by BollingerBands.
type BollingerResult struct {
	Upper    []float64
	Lower    []float64
	Distance []float64
}

// BollingerBands returns upper = ma + k*rolling_std(close,w), lower = ma -
// k*rolling_std(close,w), distance = upper - lower.
func BollingerBands(close, ma []float64, w int, minPeriods int, k float64) BollingerResult {
	std := RollingStd(close, w, minPeriods)
	n := len(close)
	upper := make([]float64, n)
	lower := make([]float64, n)
	distance := make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = ma[i] + k*std[i]
		lower[i] = ma[i] - k*std[i]
		distance[i] = upper[i] - lower[i]
	}
	return BollingerResult{Upper: upper, Lower: lower, Distance: distance}
}

// KeltnerResult carries the two columns produced by KeltnerChannels.
type KeltnerResult struct {
	Upper []float64
	Lower []float64
}

// KeltnerChannels returns upper = ema + multiplier*atr, lower = ema -
// multiplier*atr.
func KeltnerChannels(ema, atr []float64, multiplier float64) KeltnerResult {
	n := len(ema)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = ema[i] + multiplier*atr[i]
		lower[i] = ema[i] - multiplier*atr[i]
	}
	return KeltnerResult{Upper: upper, Lower: lower}
}

// ComparativeRelativeStrength returns a/b elementwise.
func ComparativeRelativeStrength(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] / b[i]
	}
	return out
}

// RelativeValue returns 0 where to <= 0, else from/to.
func RelativeValue(to, from []float64) []float64 {
	out := make([]float64, len(to))
	for i := range to {
		if to[i] <= 0 {
			out[i] = 0
		} else {
			out[i] = from[i] / to[i]
		}
	}
	return out
}

// ValueBalance returns the rolling mean, over window w, of (bal if cmp is
// non-decreasing from the prior row else -bal), cast to int32 (as a float64
// holding an integral value — the schematic truncates on assignment to an
// Int32 column).
func ValueBalance(cmp, bal []float64, w int, minPeriods int) []float64 {
	n := len(cmp)
	signed := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			signed[i] = nan
			continue
		}
		if cmp[i] >= cmp[i-1] {
			signed[i] = bal[i]
		} else {
			signed[i] = -bal[i]
		}
	}
	means := RollingMean(signed, w, minPeriods)
	out := make([]float64, n)
	for i, v := range means {
		if math.IsNaN(v) {
			out[i] = nan
		} else {
			out[i] = math.Trunc(v)
		}
	}
	return out
}

// CompositePctChange returns the mean of three period-wise percent changes of
// src, for periods[0], periods[1], periods[2].
func CompositePctChange(src []float64, periods [3]int) []float64 {
	n := len(src)
	out := make([]float64, n)
	a := PctChange(src, periods[0], 0)
	b := PctChange(src, periods[1], 0)
	c := PctChange(src, periods[2], 0)
	for i := 0; i < n; i++ {
		out[i] = (a[i] + b[i] + c[i]) / 3.0
	}
	return out
}

// PercentRank returns the rolling ordinal rank of the last element within a
// window of size w, divided by w; null until the window is full.
func PercentRank(src []float64, w int) []float64 {
	n := len(src)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i+1 < w {
			out[i] = nan
			continue
		}
		window := src[i-w+1 : i+1]
		rank := ordinalRank(window, window[len(window)-1])
		out[i] = float64(rank) / float64(w)
	}
	return out
}

// ordinalRank returns the 1-based ascending ordinal rank of the last
// occurrence semantics used by the window's trailing element: count of values
// strictly less than it, plus one, tie-broken by position order (ordinal).
func ordinalRank(window []float64, last float64) int {
	rank := 1
	lastIdx := len(window) - 1
	for i, v := range window {
		if v < last {
			rank++
			continue
		}
		if v == last && i < lastIdx {
			rank++
		}
	}
	return rank
}

// HigherHighLowerLow reports, per row, whether the rolling max over w exceeds
// the rolling max from w rows prior AND the rolling min over w exceeds the
// rolling min from w rows prior. Returned as a []float64 of 0/1/NaN so it
// composes with other feature functions; callers cast to bool on assignment.
func HigherHighLowerLow(src []float64, w int) []float64 {
	rmax := RollingMax(src, w, w)
	rmin := RollingMin(src, w, w)
	shiftedMax := Shift(rmax, w)
	shiftedMin := Shift(rmin, w)
	n := len(src)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(rmax[i]) || math.IsNaN(shiftedMax[i]) || math.IsNaN(rmin[i]) || math.IsNaN(shiftedMin[i]) {
			out[i] = nan
			continue
		}
		if rmax[i] > shiftedMax[i] && rmin[i] > shiftedMin[i] {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
	return out
}

// RollingCorr returns the Pearson correlation of x and y over a trailing
// window of size w, using the given delta-degrees-of-freedom (ddof) for the
// sample variance/covariance terms.
func RollingCorr(x, y []float64, w int, ddof int, minPeriods int) []float64 {
	if minPeriods <= 0 {
		minPeriods = w
	}
	n := len(x)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		from := i - w + 1
		if from < 0 {
			from = 0
		}
		count := i - from + 1
		if count < minPeriods {
			out[i] = nan
			continue
		}
		out[i] = pearson(x[from:i+1], y[from:i+1], ddof)
	}
	return out
}

func pearson(x, y []float64, ddof int) float64 {
	n := len(x)
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	denom := float64(n - ddof)
	cov /= denom
	vx /= denom
	vy /= denom
	d := math.Sqrt(vx * vy)
	if d == 0 {
		return nan
	}
	return cov / d
}

// Shift returns src shifted by n rows: n >= 0 shifts down (lag, exposing
// nulls at the head); n < 0 shifts up (lead, exposing nulls at the tail).
func Shift(src []float64, n int) []float64 {
	out := make([]float64, len(src))
	if n >= 0 {
		for i := range out {
			if i < n {
				out[i] = nan
			} else {
				out[i] = src[i-n]
			}
		}
	} else {
		n = -n
		for i := range out {
			if i+n >= len(src) {
				out[i] = nan
			} else {
				out[i] = src[i+n]
			}
		}
	}
	return out
}

// PctChange returns (src / shift(src, w) - 1), itself then shifted by
// shiftN.
func PctChange(src []float64, w int, shiftN int) []float64 {
	base := Shift(src, w)
	n := len(src)
	change := make([]float64, n)
	for i := 0; i < n; i++ {
		change[i] = src[i]/base[i] - 1
	}
	if shiftN == 0 {
		return change
	}
	return Shift(change, shiftN)
}

// NPeriodHigh reports, per row, whether src equals the supplied rolling max
// of src (as 0/1/NaN; NaN propagates from either input).
func NPeriodHigh(src, rollingMaxOfSrc []float64) []float64 {
	n := len(src)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(src[i]) || math.IsNaN(rollingMaxOfSrc[i]) {
			out[i] = nan
			continue
		}
		if src[i] == rollingMaxOfSrc[i] {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
	return out
}

// DiffScore computes the rolling mean, over window w, of the percentage-point
// spread between x's and y's one-period percent changes. Supplements the
// enumerated §4.1 operations the way the original implementation's
// apply_diff_score does.
func DiffScore(x, y []float64, w int, minPeriods int) []float64 {
	n := len(x)
	spread := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			spread[i] = nan
			continue
		}
		px := (x[i] - x[i-1]) / x[i-1]
		py := (y[i] - y[i-1]) / y[i-1]
		spread[i] = (px - py) * 100
	}
	return RollingMean(spread, w, minPeriods)
}

var nan = math.NaN()
