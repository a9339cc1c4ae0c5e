package ports

import (
	"context"

	"LCExtract/internal/domain"
)

// Resolver turns an object name into J2000 coordinates (degrees).
type Resolver interface {
	Resolve(ctx context.Context, name string) (ra, dec float64, err error)
}

// StatsRepository persists per-band summaries of assembled lightcurves for
// history and cross-run comparison.
type StatsRepository interface {
	SaveSummary(ctx context.Context, lc domain.Lightcurve) error
	HasSummary(ctx context.Context, objectName string) (bool, error)
}

// Renderer consumes the read-only Lightcurve for user-facing output.
type Renderer interface {
	Render(ctx context.Context, lc domain.Lightcurve) error
}

// Exporter writes the merged series to an external format (CSV, etc.).
type Exporter interface {
	Export(ctx context.Context, lc domain.Lightcurve) error
}

// Metrics records pipeline counters for observability backends.
type Metrics interface {
	ArchiveQuery(archiveName string, status domain.QueryStatus)
	ObservationsNormalized(archiveName string, count int)
	RecordsRejected(archiveName string, count int)
}
