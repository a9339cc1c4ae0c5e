package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"LCExtract/internal/domain"
	"LCExtract/internal/ports"
)

// PostgresRepository persists per-band lightcurve summaries into Postgres so
// repeated extractions of the same object can be compared across runs.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.StatsRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres using the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// SaveSummary upserts one row per band carrying data. Bands with no
// observations are skipped: absence of a row is the no-data marker.
func (r *PostgresRepository) SaveSummary(ctx context.Context, lc domain.Lightcurve) error {
	if r.db == nil {
		return nil
	}

	for _, band := range lc.Bands {
		stats := lc.Stats[band]
		if stats.Count == 0 {
			continue
		}

		stddev := sql.NullFloat64{}
		if stats.Stddev.Defined() {
			stddev = sql.NullFloat64{Float64: stats.Stddev.Value, Valid: true}
		}

		query, args, err := r.builder.
			Insert("lightcurve_summaries").
			Columns("object_name", "band", "samples", "mean_mag", "median_mag", "stddev_mag", "min_mag", "max_mag", "span_days").
			Values(lc.Query.Name, string(band), stats.Count, stats.Mean.Value, stats.Median.Value,
				stddev, stats.Min.Value, stats.Max.Value, stats.SpanDays.Value).
			Suffix(`ON CONFLICT (object_name, band) DO UPDATE
                SET samples = EXCLUDED.samples,
                    mean_mag = EXCLUDED.mean_mag,
                    median_mag = EXCLUDED.median_mag,
                    stddev_mag = EXCLUDED.stddev_mag,
                    min_mag = EXCLUDED.min_mag,
                    max_mag = EXCLUDED.max_mag,
                    span_days = EXCLUDED.span_days,
                    updated_at = NOW()`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert summary %s/%s: %w", lc.Query.Name, band, err)
		}
	}

	return nil
}

// HasSummary reports whether any band summary exists for the object.
func (r *PostgresRepository) HasSummary(ctx context.Context, objectName string) (bool, error) {
	if r.db == nil {
		return false, nil
	}

	query, args, err := r.builder.
		Select("COUNT(*)").
		From("lightcurve_summaries").
		Where(sq.Eq{"object_name": objectName}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count summaries: %w", err)
	}

	return count > 0, nil
}
