package objectfile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objects.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadMixedRows(t *testing.T) {
	t.Parallel()

	path := writeList(t, `Name,RA,DEC,Description
AT2019xyz,10.5,41.2,candidate transient
M31,,,named lookup
`)

	queries, err := Read(path, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}

	first := queries[0]
	if !first.Resolved || first.RA != 10.5 || first.Dec != 41.2 {
		t.Fatalf("expected resolved coordinates, got %+v", first)
	}
	if first.Description != "candidate transient" {
		t.Fatalf("unexpected description %q", first.Description)
	}
	if first.RadiusArcsec != 5 {
		t.Fatalf("expected radius 5, got %f", first.RadiusArcsec)
	}

	second := queries[1]
	if second.Resolved {
		t.Fatalf("name-only row must stay unresolved: %+v", second)
	}
	if second.Name != "M31" {
		t.Fatalf("unexpected name %q", second.Name)
	}
}

func TestReadBadCoordinates(t *testing.T) {
	t.Parallel()

	path := writeList(t, `Name,RA,DEC,Description
bad,10.5,not-a-dec,broken row
`)

	if _, err := Read(path, 5); err == nil {
		t.Fatalf("expected error for unparseable coordinates")
	}
}

func TestReadRowWithoutNameOrCoordinates(t *testing.T) {
	t.Parallel()

	path := writeList(t, `Name,RA,DEC,Description
,,,empty row
`)

	if _, err := Read(path, 5); err == nil {
		t.Fatalf("expected error for row with neither name nor coordinates")
	}
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Read(filepath.Join(t.TempDir(), "absent.csv"), 5); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
