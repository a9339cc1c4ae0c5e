package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LCExtract/internal/ports"
)

const mastDefaultEndpoint = "https://mast.stsci.edu/api/v0/invoke"

// ErrUnknownObject marks a name the MAST resolver could not map to a
// position. Fatal for the object's pipeline run.
var ErrUnknownObject = errors.New("unknown object")

// MASTResolver resolves object names to J2000 coordinates using the MAST
// Mast.Name.Lookup service: the request is a JSON document sent as a
// form-encoded "request" parameter.
type MASTResolver struct {
	endpoint string
	client   *http.Client
}

var _ ports.Resolver = (*MASTResolver)(nil)

// NewMASTResolver wires an HTTP client; endpoint defaults to MAST.
func NewMASTResolver(client *http.Client, endpoint string) *MASTResolver {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if endpoint == "" {
		endpoint = mastDefaultEndpoint
	}
	return &MASTResolver{endpoint: endpoint, client: client}
}

// Resolve returns the RA/Dec of a named object in degrees.
func (m *MASTResolver) Resolve(ctx context.Context, name string) (float64, float64, error) {
	request := map[string]any{
		"service": "Mast.Name.Lookup",
		"params": map[string]any{
			"input":  name,
			"format": "json",
		},
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return 0, 0, fmt.Errorf("marshal lookup request: %w", err)
	}

	form := url.Values{}
	form.Set("request", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("name lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("name lookup returned %s", resp.Status)
	}

	var decoded struct {
		ResolvedCoordinate []struct {
			RA   float64 `json:"ra"`
			Decl float64 `json:"decl"`
		} `json:"resolvedCoordinate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, 0, fmt.Errorf("decode lookup response: %w", err)
	}

	if len(decoded.ResolvedCoordinate) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}

	coord := decoded.ResolvedCoordinate[0]
	return coord.RA, coord.Decl, nil
}
