package archive

import (
	"context"
	"fmt"

	"LCExtract/internal/domain"
)

// Request carries all parameters required to execute one archive query. Bands
// is already narrowed to the subset the archive can supply.
type Request struct {
	Query domain.ObjectQuery
	Bands domain.FilterSet
}

// RejectReason classifies records dropped during normalization.
type RejectReason string

const (
	RejectBadTimestamp RejectReason = "unparseable-timestamp"
	RejectUnmappedBand RejectReason = "unmapped-band"
	RejectNonFiniteMag RejectReason = "non-finite-magnitude"
	RejectQualityFlag  RejectReason = "quality-flag"
)

// Result is the single value an archive fetch produces per invocation.
// Network, timeout and schema problems are reported through Status and Err,
// never as Go errors crossing the client boundary.
type Result struct {
	Archive      string
	Status       domain.QueryStatus
	Observations []domain.Observation
	Rejections   map[RejectReason]int
	Err          string
}

// Reject tallies one dropped record under the given reason.
func (r *Result) Reject(reason RejectReason) {
	if r.Rejections == nil {
		r.Rejections = map[RejectReason]int{}
	}
	r.Rejections[reason]++
}

// RejectionCount returns the total number of dropped records.
func (r Result) RejectionCount() int {
	n := 0
	for _, c := range r.Rejections {
		n += c
	}
	return n
}

// Failure builds a failed Result carrying a human-readable description.
func Failure(archiveName string, err error) Result {
	return Result{Archive: archiveName, Status: domain.StatusFailure, Err: err.Error()}
}

// Archive captures a single photometry source implementation (ZTF,
// Pan-STARRS, PTF, ...). Fetch must bound its own execution via ctx and
// absorb every failure into the Result.
type Archive interface {
	Name() string
	Bands() []domain.Band
	Fetch(ctx context.Context, req Request) Result
}

// Registry keeps a mapping from archive names to their implementations,
// preserving registration order for deterministic iteration.
type Registry struct {
	archives map[string]Archive
	order    []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{archives: map[string]Archive{}}
}

// Register adds or replaces an archive implementation.
func (r *Registry) Register(a Archive) {
	if r.archives == nil {
		r.archives = map[string]Archive{}
	}
	if _, exists := r.archives[a.Name()]; !exists {
		r.order = append(r.order, a.Name())
	}
	r.archives[a.Name()] = a
}

// Resolve returns an archive by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Archive, error) {
	if a, ok := r.archives[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("archive %s is not registered", name)
}

// All returns the registered archives in registration order.
func (r *Registry) All() []Archive {
	out := make([]Archive, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.archives[name])
	}
	return out
}

// Coverage maps each requested band to the archives able to supply it, in
// registration order. Bands no archive supports map to an empty slice.
func (r *Registry) Coverage(bands domain.FilterSet) map[domain.Band][]string {
	coverage := make(map[domain.Band][]string, len(bands))
	for _, b := range bands {
		coverage[b] = []string{}
		for _, name := range r.order {
			for _, have := range r.archives[name].Bands() {
				if have == b {
					coverage[b] = append(coverage[b], name)
					break
				}
			}
		}
	}
	return coverage
}

// SupportedBands returns the union of all registered archives' bands in
// canonical order. Used as the default filter set when none is configured.
func (r *Registry) SupportedBands() domain.FilterSet {
	var fs domain.FilterSet
	for _, name := range r.order {
		for _, b := range r.archives[name].Bands() {
			if !fs.Contains(b) {
				fs = append(fs, b)
			}
		}
	}
	return fs.Sorted()
}
