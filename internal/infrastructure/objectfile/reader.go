package objectfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"LCExtract/internal/domain"
)

// Read parses an object list CSV with columns Name, RA, DEC, Description.
// Rows carrying numeric RA and DEC produce resolved queries; rows with blank
// coordinates produce name-only queries for the resolver. The header row is
// matched by name, case-insensitively.
func Read(path string, radiusArcsec float64) ([]domain.ObjectQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object list: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse object list: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("object list %s is empty", path)
	}

	columns := map[string]int{}
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("object list %s is missing column %q", path, required)
		}
	}

	queries := make([]domain.ObjectQuery, 0, len(rows)-1)
	for i, row := range rows[1:] {
		query := domain.ObjectQuery{
			Name:         cell(columns, row, "name"),
			Description:  cell(columns, row, "description"),
			RadiusArcsec: radiusArcsec,
		}

		raText := cell(columns, row, "ra")
		decText := cell(columns, row, "dec")
		if raText != "" || decText != "" {
			ra, raErr := strconv.ParseFloat(raText, 64)
			dec, decErr := strconv.ParseFloat(decText, 64)
			if raErr != nil || decErr != nil {
				return nil, fmt.Errorf("object list %s row %d: bad coordinates %q,%q", path, i+2, raText, decText)
			}
			query.RA = ra
			query.Dec = dec
			query.Resolved = true
		} else if query.Name == "" {
			return nil, fmt.Errorf("object list %s row %d: neither name nor coordinates", path, i+2)
		}

		queries = append(queries, query)
	}

	return queries, nil
}

func cell(columns map[string]int, row []string, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
