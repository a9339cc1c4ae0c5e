package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"LCExtract/internal/archive"
	"LCExtract/internal/domain"
	"LCExtract/internal/lightcurve"
)

type stubArchive struct {
	name  string
	bands []domain.Band
	fetch func(ctx context.Context, req archive.Request) archive.Result
}

func (s *stubArchive) Name() string         { return s.name }
func (s *stubArchive) Bands() []domain.Band { return s.bands }
func (s *stubArchive) Fetch(ctx context.Context, req archive.Request) archive.Result {
	return s.fetch(ctx, req)
}

type stubResolver struct {
	ra, dec float64
	err     error
	calls   int
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (float64, float64, error) {
	s.calls++
	return s.ra, s.dec, s.err
}

func fixedResult(name string, observations ...domain.Observation) archive.Result {
	return archive.Result{
		Archive:      name,
		Status:       domain.StatusSuccess,
		Observations: observations,
	}
}

func point(archiveName string, mjd, mag float64, band domain.Band) domain.Observation {
	return domain.Observation{
		MJD:     mjd,
		Band:    band,
		Mag:     mag,
		MagErr:  0.02,
		Archive: archiveName,
		Valid:   true,
	}
}

func newTestPipeline(archives ...archive.Archive) *Pipeline {
	registry := archive.NewRegistry()
	for _, a := range archives {
		registry.Register(a)
	}
	return NewPipeline(PipelineDeps{
		Registry:       registry,
		Merge:          lightcurve.DefaultMergeOptions(),
		ArchiveTimeout: time.Second,
	})
}

func TestProcessObjectTwoArchives(t *testing.T) {
	t.Parallel()

	archiveA := &stubArchive{
		name:  "ArchiveA",
		bands: []domain.Band{domain.BandG, domain.BandR},
		fetch: func(_ context.Context, _ archive.Request) archive.Result {
			res := fixedResult("ArchiveA",
				point("ArchiveA", 1.0, 18.1, domain.BandG),
				point("ArchiveA", 2.0, 18.3, domain.BandG),
				point("ArchiveA", 3.0, 18.0, domain.BandG),
			)
			res.Status = domain.StatusPartial
			res.Reject(archive.RejectNonFiniteMag)
			return res
		},
	}
	archiveB := &stubArchive{
		name:  "ArchiveB",
		bands: []domain.Band{domain.BandR},
		fetch: func(_ context.Context, _ archive.Request) archive.Result {
			return fixedResult("ArchiveB",
				point("ArchiveB", 1.5, 19.0, domain.BandR),
				point("ArchiveB", 2.5, 19.4, domain.BandR),
			)
		},
	}

	p := newTestPipeline(archiveA, archiveB)
	query := domain.ObjectQuery{RA: 10.5, Dec: 41.2, Resolved: true}
	lc, err := p.ProcessObject(context.Background(), query, domain.FilterSet{domain.BandG, domain.BandR})
	if err != nil {
		t.Fatalf("ProcessObject: %v", err)
	}

	if got := len(lc.Series[domain.BandG]); got != 3 {
		t.Fatalf("expected 3 g observations, got %d", got)
	}
	if got := len(lc.Series[domain.BandR]); got != 2 {
		t.Fatalf("expected 2 r observations, got %d", got)
	}
	if math.Abs(lc.Stats[domain.BandG].Mean.Value-18.133333333333333) > 1e-12 {
		t.Fatalf("unexpected g mean %f", lc.Stats[domain.BandG].Mean.Value)
	}
	if math.Abs(lc.Stats[domain.BandR].Mean.Value-19.2) > 1e-12 {
		t.Fatalf("unexpected r mean %f", lc.Stats[domain.BandR].Mean.Value)
	}

	if len(lc.Log) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(lc.Log))
	}
	if lc.Log[0].Archive != "ArchiveA" || lc.Log[0].Status != domain.StatusPartial || lc.Log[0].Rejections != 1 {
		t.Fatalf("unexpected ArchiveA log entry %+v", lc.Log[0])
	}
	if lc.Log[1].Archive != "ArchiveB" || lc.Log[1].Status != domain.StatusSuccess {
		t.Fatalf("unexpected ArchiveB log entry %+v", lc.Log[1])
	}
}

func TestProcessObjectAllArchivesFail(t *testing.T) {
	t.Parallel()

	failing := func(name string) *stubArchive {
		return &stubArchive{
			name:  name,
			bands: []domain.Band{domain.BandG},
			fetch: func(_ context.Context, _ archive.Request) archive.Result {
				return archive.Failure(name, fmt.Errorf("connection refused"))
			},
		}
	}

	p := newTestPipeline(failing("ArchiveA"), failing("ArchiveB"))
	query := domain.ObjectQuery{RA: 1, Dec: 1, Resolved: true}
	lc, err := p.ProcessObject(context.Background(), query, domain.FilterSet{domain.BandG})
	if err != nil {
		t.Fatalf("assembly must not fail when every archive fails: %v", err)
	}

	if len(lc.Series[domain.BandG]) != 0 {
		t.Fatalf("expected empty series, got %d", len(lc.Series[domain.BandG]))
	}
	if lc.Stats[domain.BandG].Mean.State != domain.StatNoData {
		t.Fatalf("expected no-data stats, got %+v", lc.Stats[domain.BandG].Mean)
	}
	for _, entry := range lc.Log {
		if entry.Status != domain.StatusFailure || entry.Err == "" {
			t.Fatalf("expected failure entry with error text, got %+v", entry)
		}
	}
}

func TestProcessObjectUnsupportedBand(t *testing.T) {
	t.Parallel()

	a := &stubArchive{
		name:  "ArchiveA",
		bands: []domain.Band{domain.BandG},
		fetch: func(_ context.Context, _ archive.Request) archive.Result {
			return fixedResult("ArchiveA", point("ArchiveA", 1.0, 18.0, domain.BandG))
		},
	}

	p := newTestPipeline(a)
	query := domain.ObjectQuery{RA: 1, Dec: 1, Resolved: true}
	lc, err := p.ProcessObject(context.Background(), query, domain.FilterSet{domain.BandG, domain.BandY})
	if err != nil {
		t.Fatalf("ProcessObject: %v", err)
	}

	if len(lc.Series[domain.BandY]) != 0 {
		t.Fatalf("expected empty y series, got %d", len(lc.Series[domain.BandY]))
	}
	if lc.Stats[domain.BandY].Mean.State != domain.StatNoData {
		t.Fatalf("expected no-data y stats")
	}
	if supported := lc.Coverage[domain.BandY]; len(supported) != 0 {
		t.Fatalf("expected no coverage for y, got %v", supported)
	}
	if supported := lc.Coverage[domain.BandG]; len(supported) != 1 || supported[0] != "ArchiveA" {
		t.Fatalf("expected g covered by ArchiveA, got %v", supported)
	}
}

func TestProcessObjectArchiveWithNoRequestedBands(t *testing.T) {
	t.Parallel()

	called := false
	rOnly := &stubArchive{
		name:  "ROnly",
		bands: []domain.Band{domain.BandMouldR},
		fetch: func(_ context.Context, _ archive.Request) archive.Result {
			called = true
			return fixedResult("ROnly")
		},
	}
	g := &stubArchive{
		name:  "GOnly",
		bands: []domain.Band{domain.BandG},
		fetch: func(_ context.Context, _ archive.Request) archive.Result {
			return fixedResult("GOnly", point("GOnly", 1.0, 18.0, domain.BandG))
		},
	}

	p := newTestPipeline(rOnly, g)
	query := domain.ObjectQuery{RA: 1, Dec: 1, Resolved: true}
	lc, err := p.ProcessObject(context.Background(), query, domain.FilterSet{domain.BandG})
	if err != nil {
		t.Fatalf("ProcessObject: %v", err)
	}
	if called {
		t.Fatalf("archive without requested bands must not be queried")
	}

	var status domain.QueryStatus
	for _, entry := range lc.Log {
		if entry.Archive == "ROnly" {
			status = entry.Status
		}
	}
	if status != domain.StatusUnsupported {
		t.Fatalf("expected unsupported status for ROnly, got %q", status)
	}
}

func TestProcessObjectResolvesName(t *testing.T) {
	t.Parallel()

	var seen domain.ObjectQuery
	a := &stubArchive{
		name:  "ArchiveA",
		bands: []domain.Band{domain.BandG},
		fetch: func(_ context.Context, req archive.Request) archive.Result {
			seen = req.Query
			return fixedResult("ArchiveA")
		},
	}

	registry := archive.NewRegistry()
	registry.Register(a)
	res := &stubResolver{ra: 10.5, dec: 41.2}
	p := NewPipeline(PipelineDeps{Registry: registry, Resolver: res})

	_, err := p.ProcessObject(context.Background(), domain.ObjectQuery{Name: "M31"}, domain.FilterSet{domain.BandG})
	if err != nil {
		t.Fatalf("ProcessObject: %v", err)
	}
	if res.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", res.calls)
	}
	if seen.RA != 10.5 || seen.Dec != 41.2 || !seen.Resolved {
		t.Fatalf("resolved position not passed to archive: %+v", seen)
	}
}

func TestProcessObjectResolutionFailureIsFatal(t *testing.T) {
	t.Parallel()

	a := &stubArchive{
		name:  "ArchiveA",
		bands: []domain.Band{domain.BandG},
		fetch: func(_ context.Context, _ archive.Request) archive.Result {
			t.Fatalf("archive must not be queried when resolution fails")
			return archive.Result{}
		},
	}

	registry := archive.NewRegistry()
	registry.Register(a)
	resolveErr := errors.New("no such object")
	p := NewPipeline(PipelineDeps{Registry: registry, Resolver: &stubResolver{err: resolveErr}})

	_, err := p.ProcessObject(context.Background(), domain.ObjectQuery{Name: "nope"}, domain.FilterSet{domain.BandG})
	if !errors.Is(err, resolveErr) {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestProcessObjectIdempotent(t *testing.T) {
	t.Parallel()

	a := &stubArchive{
		name:  "ArchiveA",
		bands: []domain.Band{domain.BandG, domain.BandR},
		fetch: func(_ context.Context, _ archive.Request) archive.Result {
			return fixedResult("ArchiveA",
				point("ArchiveA", 2.0, 18.3, domain.BandG),
				point("ArchiveA", 1.0, 18.1, domain.BandG),
				point("ArchiveA", 1.5, 19.0, domain.BandR),
			)
		},
	}

	p := newTestPipeline(a)
	query := domain.ObjectQuery{RA: 10.5, Dec: 41.2, Resolved: true}
	bands := domain.FilterSet{domain.BandG, domain.BandR}

	first, err := p.ProcessObject(context.Background(), query, bands)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.ProcessObject(context.Background(), query, bands)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("pipeline is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestProcessObjectCancellation(t *testing.T) {
	t.Parallel()

	a := &stubArchive{
		name:  "Slow",
		bands: []domain.Band{domain.BandG},
		fetch: func(ctx context.Context, _ archive.Request) archive.Result {
			<-ctx.Done()
			return archive.Failure("Slow", ctx.Err())
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(a)
	query := domain.ObjectQuery{RA: 1, Dec: 1, Resolved: true}
	_, err := p.ProcessObject(ctx, query, domain.FilterSet{domain.BandG})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}
