package domain

import "sort"

// Band identifies a photometric filter through which a magnitude was measured.
type Band string

const (
	BandG Band = "g"
	BandR Band = "r"
	BandI Band = "i"
	BandZ Band = "z"
	BandY Band = "y"
	// BandMouldR is the PTF Mould-R filter, distinct from SDSS r.
	BandMouldR Band = "R"
)

// UniversalBands lists every band any supported archive can supply, in
// canonical output order.
var UniversalBands = []Band{BandG, BandR, BandI, BandZ, BandY, BandMouldR}

var bandRank = func() map[Band]int {
	m := make(map[Band]int, len(UniversalBands))
	for i, b := range UniversalBands {
		m[b] = i
	}
	return m
}()

// FilterSet is the set of photometric bands requested for one extraction.
type FilterSet []Band

// ParseFilterSet builds a FilterSet from a compact selection string such as
// "gri". Characters outside the universal vocabulary are ignored.
func ParseFilterSet(selection string) FilterSet {
	var fs FilterSet
	for _, r := range selection {
		b := Band(r)
		if _, ok := bandRank[b]; ok && !fs.Contains(b) {
			fs = append(fs, b)
		}
	}
	return fs.Sorted()
}

// Contains reports whether the set includes the given band.
func (fs FilterSet) Contains(b Band) bool {
	for _, have := range fs {
		if have == b {
			return true
		}
	}
	return false
}

// Intersect narrows the set to the bands an archive can ever supply.
func (fs FilterSet) Intersect(available []Band) FilterSet {
	var out FilterSet
	for _, b := range fs {
		for _, a := range available {
			if b == a {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// Empty reports whether no bands are selected.
func (fs FilterSet) Empty() bool { return len(fs) == 0 }

// Sorted returns the set ordered by the canonical band order.
func (fs FilterSet) Sorted() FilterSet {
	out := make(FilterSet, len(fs))
	copy(out, fs)
	sort.Slice(out, func(i, j int) bool { return bandRank[out[i]] < bandRank[out[j]] })
	return out
}

// String renders the set as a compact selection string, e.g. "gri".
func (fs FilterSet) String() string {
	s := ""
	for _, b := range fs.Sorted() {
		s += string(b)
	}
	return s
}
