package lightcurve

import (
	"math"
	"sort"

	"LCExtract/internal/domain"
)

// Compute derives the summary statistics of one band series. Only valid
// observations enter the computation; invalid points stay in the series for
// audit but are not counted. An empty series reports every statistic as
// no-data; a single observation reports standard deviation as undefined
// rather than zero.
func Compute(series domain.BandSeries) domain.BandStatistics {
	mags := make([]float64, 0, len(series))
	var minT, maxT float64
	for _, obs := range series {
		if !obs.Valid {
			continue
		}
		if len(mags) == 0 {
			minT, maxT = obs.MJD, obs.MJD
		} else {
			minT = math.Min(minT, obs.MJD)
			maxT = math.Max(maxT, obs.MJD)
		}
		mags = append(mags, obs.Mag)
	}

	n := len(mags)
	if n == 0 {
		return domain.BandStatistics{}
	}

	stats := domain.BandStatistics{
		Count:    n,
		Mean:     domain.StatOf(mean(mags)),
		Median:   domain.StatOf(median(mags)),
		MAD:      domain.StatOf(mad(mags)),
		Min:      domain.StatOf(minOf(mags)),
		Max:      domain.StatOf(maxOf(mags)),
		SpanDays: domain.StatOf(maxT - minT),
	}

	if n < 2 {
		stats.Stddev = domain.Stat{State: domain.StatUndefined}
		return stats
	}

	stats.Stddev = domain.StatOf(stddev(mags, stats.Mean.Value))
	return stats
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(xs []float64, mu float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// mad is the median absolute deviation from the median.
func mad(xs []float64) float64 {
	med := median(xs)
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - med)
	}
	return median(devs)
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}
