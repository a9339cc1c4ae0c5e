package domain

// ObjectQuery identifies the target of one extraction run. Either the name
// resolves to coordinates before any archive call, or RA/Dec are supplied
// directly (Resolved true).
type ObjectQuery struct {
	Name         string
	RA           float64 // degrees, J2000
	Dec          float64 // degrees, J2000
	Resolved     bool    // RA/Dec hold a usable position
	RadiusArcsec float64 // cone search radius
	Description  string
}

// Observation is the canonical photometric record every archive response is
// normalized into. Immutable once created.
type Observation struct {
	MJD     float64 // modified Julian date, shared epoch across archives
	Band    Band
	Mag     float64
	MagErr  float64 // >= 0
	Archive string
	Valid   bool // invalid points are kept for audit but excluded from statistics
}

// BandSeries holds the merged observations of one band, sorted by MJD
// ascending with ties broken by archive identifier.
type BandSeries []Observation

// QueryStatus classifies the outcome of one archive client invocation.
type QueryStatus string

const (
	StatusSuccess QueryStatus = "success"
	StatusPartial QueryStatus = "partial"
	StatusFailure QueryStatus = "failure"
	// StatusUnsupported marks an archive that supplies none of the requested
	// bands; no query was issued.
	StatusUnsupported QueryStatus = "unsupported"
)

// ArchiveStatus is one entry of the per-archive query log.
type ArchiveStatus struct {
	Archive      string
	Status       QueryStatus
	Observations int
	Rejections   int
	Err          string
}

// StatState distinguishes a computed statistic from the two degenerate
// sample-size cases.
type StatState int

const (
	// StatNoData marks a statistic over an empty series.
	StatNoData StatState = iota
	// StatUndefined marks a statistic whose sample size is insufficient,
	// e.g. standard deviation of a single observation.
	StatUndefined
	// StatValue marks a finite computed value.
	StatValue
)

// Stat is a tri-state summary statistic: a value, explicitly undefined, or
// no-data. Never a NaN and never a silent zero.
type Stat struct {
	State StatState
	Value float64
}

// StatOf wraps a finite computed value.
func StatOf(v float64) Stat { return Stat{State: StatValue, Value: v} }

// Defined reports whether the statistic carries a usable value.
func (s Stat) Defined() bool { return s.State == StatValue }

// BandStatistics summarises the valid observations of one BandSeries.
// Derived data: recompute whenever the series changes.
type BandStatistics struct {
	Count    int
	Mean     Stat
	Median   Stat
	Stddev   Stat
	MAD      Stat // median absolute deviation
	Min      Stat
	Max      Stat
	SpanDays Stat // max MJD - min MJD
}

// Lightcurve is the final aggregate handed to rendering and export
// collaborators. Immutable after assembly; a lightcurve with empty series for
// every band is a valid terminal outcome.
type Lightcurve struct {
	Query  ObjectQuery
	Bands  FilterSet
	Series map[Band]BandSeries
	Stats  map[Band]BandStatistics
	// Coverage maps each requested band to the archives able to supply it.
	// An empty entry distinguishes "no archive supports this band" from
	// "supported but zero observations returned".
	Coverage map[Band][]string
	Log      []ArchiveStatus
}

// Observations returns the total number of merged observations across bands.
func (lc Lightcurve) Observations() int {
	n := 0
	for _, s := range lc.Series {
		n += len(s)
	}
	return n
}

// HasData reports whether any band carries at least one observation.
func (lc Lightcurve) HasData() bool { return lc.Observations() > 0 }
