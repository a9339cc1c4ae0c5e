package render

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"LCExtract/internal/domain"
	"LCExtract/internal/ports"
)

// CSVExporter writes the merged per-band series of a lightcurve to one CSV
// file per object under a target directory.
type CSVExporter struct {
	dir string
}

var _ ports.Exporter = (*CSVExporter)(nil)

// NewCSVExporter exports into the given directory, creating it on demand.
func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir}
}

// Export writes `<object>_<bands>.csv` with one row per observation across
// all bands, in band order then timestamp order.
func (e *CSVExporter) Export(_ context.Context, lc domain.Lightcurve) error {
	if !lc.HasData() {
		return nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	name := lc.Query.Name
	if name == "" {
		name = fmt.Sprintf("ra%.5f_dec%.5f", lc.Query.RA, lc.Query.Dec)
	}
	name = sanitize(name)

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.csv", name, lc.Bands.String()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"mjd", "band", "mag", "magerr", "archive", "valid"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, band := range lc.Bands {
		for _, obs := range lc.Series[band] {
			row := []string{
				strconv.FormatFloat(obs.MJD, 'f', -1, 64),
				string(obs.Band),
				strconv.FormatFloat(obs.Mag, 'f', -1, 64),
				strconv.FormatFloat(obs.MagErr, 'f', -1, 64),
				obs.Archive,
				strconv.FormatBool(obs.Valid),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.' || r == '+':
			return r
		default:
			return '_'
		}
	}, name)
}
