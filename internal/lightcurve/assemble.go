package lightcurve

import "LCExtract/internal/domain"

// Assemble packages the merged series, per-band statistics, band coverage
// and the per-archive query log into one immutable Lightcurve. Assembly
// always succeeds structurally: bands without observations get an empty
// series and no-data statistics, which is a valid terminal outcome even when
// every archive failed.
func Assemble(
	query domain.ObjectQuery,
	bands domain.FilterSet,
	merged map[domain.Band]domain.BandSeries,
	coverage map[domain.Band][]string,
	log []domain.ArchiveStatus,
) domain.Lightcurve {
	requested := bands.Sorted()

	series := make(map[domain.Band]domain.BandSeries, len(requested))
	stats := make(map[domain.Band]domain.BandStatistics, len(requested))
	for _, b := range requested {
		s := merged[b]
		if s == nil {
			s = domain.BandSeries{}
		}
		series[b] = s
		stats[b] = Compute(s)
	}

	if coverage == nil {
		coverage = map[domain.Band][]string{}
	}

	return domain.Lightcurve{
		Query:    query,
		Bands:    requested,
		Series:   series,
		Stats:    stats,
		Coverage: coverage,
		Log:      log,
	}
}
