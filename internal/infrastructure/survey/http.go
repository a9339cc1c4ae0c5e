package survey

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const userAgent = "LCExtract/1.0"

// fetchBody issues a context-bound GET and returns the response body on a
// 2xx status. Callers own closing the reader.
func fetchBody(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request archive: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("archive returned %s", resp.Status)
	}

	return resp.Body, nil
}

// columnIndex maps a CSV header row to column positions.
func columnIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return columns
}

func field(columns map[string]int, row []string, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func fieldFloat(columns map[string]int, row []string, name string) (float64, error) {
	raw := field(columns, row, name)
	if raw == "" {
		return 0, fmt.Errorf("column %s is empty", name)
	}
	return strconv.ParseFloat(raw, 64)
}
