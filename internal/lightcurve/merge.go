package lightcurve

import (
	"math"
	"sort"

	"LCExtract/internal/domain"
)

// EpochPolicy selects how near-simultaneous observations of the same band
// from different archives are combined.
type EpochPolicy string

const (
	// RetainAll keeps every observation as a separate entry. Default: no
	// silent data loss.
	RetainAll EpochPolicy = "retain-all"
	// CollapseWeighted replaces each cluster of observations within the
	// tolerance window by a single inverse-variance weighted point.
	CollapseWeighted EpochPolicy = "collapse-weighted"
)

// MergeOptions configures the merge engine.
type MergeOptions struct {
	// ToleranceDays is the window within which two timestamps count as the
	// same physical epoch.
	ToleranceDays float64
	Policy        EpochPolicy
}

// DefaultMergeOptions returns the documented defaults: a 0.01 day window
// (~14 minutes) and the conservative retain-all policy.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{ToleranceDays: 0.01, Policy: RetainAll}
}

type epochKey struct {
	archive string
	mjd     float64
	band    domain.Band
}

// Merge groups observations from all archives by band into ordered series.
// Exact archive-level duplicates (same archive, timestamp and band) are
// collapsed keeping the first-normalized instance. Within a band the series
// is sorted by MJD ascending, ties broken by archive identifier for
// determinism.
func Merge(observations []domain.Observation, opts MergeOptions) map[domain.Band]domain.BandSeries {
	series := map[domain.Band]domain.BandSeries{}
	seen := map[epochKey]struct{}{}

	for _, obs := range observations {
		key := epochKey{archive: obs.Archive, mjd: obs.MJD, band: obs.Band}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		series[obs.Band] = append(series[obs.Band], obs)
	}

	for band, s := range series {
		sort.SliceStable(s, func(i, j int) bool {
			if s[i].MJD != s[j].MJD {
				return s[i].MJD < s[j].MJD
			}
			return s[i].Archive < s[j].Archive
		})
		if opts.Policy == CollapseWeighted {
			s = collapseEpochs(s, opts.ToleranceDays)
		}
		series[band] = s
	}

	return series
}

// collapseEpochs walks a sorted series and replaces each run of valid
// observations within tolerance of the run's first timestamp by one weighted
// point. Invalid observations are never collapsed; they pass through for
// audit.
func collapseEpochs(s domain.BandSeries, tolerance float64) domain.BandSeries {
	if len(s) < 2 {
		return s
	}

	out := make(domain.BandSeries, 0, len(s))
	var cluster []domain.Observation

	flush := func() {
		switch len(cluster) {
		case 0:
		case 1:
			out = append(out, cluster[0])
		default:
			out = append(out, weightedPoint(cluster))
		}
		cluster = cluster[:0]
	}

	for _, obs := range s {
		if !obs.Valid {
			flush()
			out = append(out, obs)
			continue
		}
		if len(cluster) > 0 && obs.MJD-cluster[0].MJD >= tolerance {
			flush()
		}
		cluster = append(cluster, obs)
	}
	flush()

	return out
}

// weightedPoint combines a cluster into one observation using
// inverse-variance weights. Points with a zero uncertainty force a plain
// unweighted mean for the whole cluster.
func weightedPoint(cluster []domain.Observation) domain.Observation {
	var sumW, sumWM, sumWT float64
	weighted := true
	for _, obs := range cluster {
		if obs.MagErr <= 0 {
			weighted = false
			break
		}
	}

	for _, obs := range cluster {
		w := 1.0
		if weighted {
			w = 1.0 / (obs.MagErr * obs.MagErr)
		}
		sumW += w
		sumWM += w * obs.Mag
		sumWT += w * obs.MJD
	}

	combined := domain.Observation{
		MJD:     sumWT / sumW,
		Band:    cluster[0].Band,
		Mag:     sumWM / sumW,
		Archive: cluster[0].Archive,
		Valid:   true,
	}
	if weighted {
		combined.MagErr = math.Sqrt(1.0 / sumW)
	} else {
		combined.MagErr = cluster[0].MagErr
	}
	return combined
}
