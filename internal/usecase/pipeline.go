package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"LCExtract/internal/archive"
	"LCExtract/internal/domain"
	"LCExtract/internal/lightcurve"
	"LCExtract/internal/ports"
)

const defaultArchiveTimeout = 30 * time.Second

// PipelineDeps wires all driven adapters into the extraction pipeline.
// Repository, Renderer, Exporter and Metrics are optional.
type PipelineDeps struct {
	Registry       *archive.Registry
	Resolver       ports.Resolver
	Repository     ports.StatsRepository
	Renderer       ports.Renderer
	Exporter       ports.Exporter
	Metrics        ports.Metrics
	Merge          lightcurve.MergeOptions
	ArchiveTimeout time.Duration
	Logger         *slog.Logger
}

// Pipeline implements the retrieve-normalize-merge-statistics workflow for a
// single object query.
type Pipeline struct {
	registry       *archive.Registry
	resolver       ports.Resolver
	repository     ports.StatsRepository
	renderer       ports.Renderer
	exporter       ports.Exporter
	metrics        ports.Metrics
	merge          lightcurve.MergeOptions
	archiveTimeout time.Duration
	logger         *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	timeout := deps.ArchiveTimeout
	if timeout <= 0 {
		timeout = defaultArchiveTimeout
	}
	merge := deps.Merge
	if merge.ToleranceDays <= 0 {
		merge = lightcurve.DefaultMergeOptions()
	}
	return &Pipeline{
		registry:       deps.Registry,
		resolver:       deps.Resolver,
		repository:     deps.Repository,
		renderer:       deps.Renderer,
		exporter:       deps.Exporter,
		metrics:        deps.Metrics,
		merge:          merge,
		archiveTimeout: timeout,
		logger:         deps.Logger,
	}
}

// ProcessObject runs the full pipeline for one object. Per-archive and
// per-record failures are absorbed into the lightcurve's status log; only an
// unresolvable position or caller cancellation aborts with an error.
func (p *Pipeline) ProcessObject(ctx context.Context, query domain.ObjectQuery, bands domain.FilterSet) (domain.Lightcurve, error) {
	if p.registry == nil {
		return domain.Lightcurve{}, fmt.Errorf("archive registry is not configured")
	}

	query, err := p.resolvePosition(ctx, query)
	if err != nil {
		return domain.Lightcurve{}, err
	}

	if bands.Empty() {
		bands = p.registry.SupportedBands()
	}
	bands = bands.Sorted()

	p.debug("process object", "object", query.Name, "ra", query.RA, "dec", query.Dec, "bands", bands.String())

	results := p.fetchAll(ctx, query, bands)
	if ctx.Err() != nil {
		return domain.Lightcurve{}, fmt.Errorf("query cancelled: %w", ctx.Err())
	}

	var observations []domain.Observation
	log := make([]domain.ArchiveStatus, 0, len(results))
	for _, res := range results {
		observations = append(observations, res.Observations...)
		log = append(log, domain.ArchiveStatus{
			Archive:      res.Archive,
			Status:       res.Status,
			Observations: len(res.Observations),
			Rejections:   res.RejectionCount(),
			Err:          res.Err,
		})
		p.record(res)
	}

	merged := lightcurve.Merge(observations, p.merge)
	lc := lightcurve.Assemble(query, bands, merged, p.registry.Coverage(bands), log)

	p.deliver(ctx, lc)
	return lc, nil
}

// resolvePosition fills in coordinates via the resolver when the query only
// carries a name. Resolution failure is fatal for the object.
func (p *Pipeline) resolvePosition(ctx context.Context, query domain.ObjectQuery) (domain.ObjectQuery, error) {
	if query.Resolved {
		return query, nil
	}
	if query.Name == "" {
		return query, fmt.Errorf("object query has neither name nor coordinates")
	}
	if p.resolver == nil {
		return query, fmt.Errorf("resolve object %q: no resolver configured", query.Name)
	}

	ra, dec, err := p.resolver.Resolve(ctx, query.Name)
	if err != nil {
		return query, fmt.Errorf("resolve object %q: %w", query.Name, err)
	}

	query.RA = ra
	query.Dec = dec
	query.Resolved = true
	return query, nil
}

// fetchAll queries every registered archive concurrently, one goroutine per
// archive with its own timeout. A slow or failed archive never blocks
// collection of the others; archives supplying none of the requested bands
// are logged as unsupported without a network call. Results come back in
// registration order for determinism.
func (p *Pipeline) fetchAll(ctx context.Context, query domain.ObjectQuery, bands domain.FilterSet) []archive.Result {
	archives := p.registry.All()
	byName := make(map[string]archive.Result, len(archives))

	resultCh := make(chan archive.Result, len(archives))
	var wg sync.WaitGroup

	for _, a := range archives {
		requested := bands.Intersect(a.Bands())
		if requested.Empty() {
			byName[a.Name()] = archive.Result{Archive: a.Name(), Status: domain.StatusUnsupported}
			continue
		}

		wg.Add(1)
		go func(a archive.Archive, requested domain.FilterSet) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, p.archiveTimeout)
			defer cancel()
			resultCh <- a.Fetch(fetchCtx, archive.Request{Query: query, Bands: requested})
		}(a, requested)
	}

	wg.Wait()
	close(resultCh)

	for res := range resultCh {
		byName[res.Archive] = res
	}

	ordered := make([]archive.Result, 0, len(archives))
	for _, a := range archives {
		if res, ok := byName[a.Name()]; ok {
			ordered = append(ordered, res)
		}
	}
	return ordered
}

// deliver hands the assembled lightcurve to the optional collaborators.
// Their failures are logged, not propagated: the lightcurve itself is the
// pipeline's deliverable.
func (p *Pipeline) deliver(ctx context.Context, lc domain.Lightcurve) {
	if p.repository != nil {
		if err := p.repository.SaveSummary(ctx, lc); err != nil {
			p.warn("persist summary", "object", lc.Query.Name, "error", err)
		}
	}
	if p.renderer != nil {
		if err := p.renderer.Render(ctx, lc); err != nil {
			p.warn("render lightcurve", "object", lc.Query.Name, "error", err)
		}
	}
	if p.exporter != nil {
		if err := p.exporter.Export(ctx, lc); err != nil {
			p.warn("export lightcurve", "object", lc.Query.Name, "error", err)
		}
	}
}

func (p *Pipeline) record(res archive.Result) {
	if p.metrics == nil {
		return
	}
	p.metrics.ArchiveQuery(res.Archive, res.Status)
	p.metrics.ObservationsNormalized(res.Archive, len(res.Observations))
	p.metrics.RecordsRejected(res.Archive, res.RejectionCount())
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
