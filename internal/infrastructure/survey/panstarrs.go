package survey

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LCExtract/internal/archive"
	"LCExtract/internal/domain"
)

const (
	panstarrsName       = "PanSTARRS"
	panstarrsDefaultURL = "https://catalogs.mast.stsci.edu/api/v0.1/panstarrs"
	panstarrsRelease    = "dr2"
	// AB magnitude zero point for a flux in Janskys.
	abZeroPoint = 8.90
)

// panstarrsBands maps the detection table filterID (1..5) onto grizy.
var panstarrsBands = map[string]domain.Band{
	"1": domain.BandG,
	"2": domain.BandR,
	"3": domain.BandI,
	"4": domain.BandZ,
	"5": domain.BandY,
}

// PanSTARRSClient queries the Pan-STARRS catalog API at MAST. Retrieval is
// two-step: a cone search on the mean-object table locates the object ID,
// then the detection table supplies the individual epochs. Fluxes arrive in
// Janskys and are converted to AB magnitudes during normalization.
//
// Ref. https://outerspace.stsci.edu/display/PANSTARRS/PS1+Source+extraction+and+catalogs
type PanSTARRSClient struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ archive.Archive = (*PanSTARRSClient)(nil)

// NewPanSTARRSClient wires an HTTP client; baseURL defaults to MAST.
func NewPanSTARRSClient(client *http.Client, baseURL string, logger *slog.Logger) *PanSTARRSClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = panstarrsDefaultURL
	}
	return &PanSTARRSClient{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// Name identifies the archive inside the registry.
func (p *PanSTARRSClient) Name() string { return panstarrsName }

// Bands lists the filters Pan-STARRS can ever supply.
func (p *PanSTARRSClient) Bands() []domain.Band {
	return []domain.Band{domain.BandG, domain.BandR, domain.BandI, domain.BandZ, domain.BandY}
}

// Fetch locates the object and normalizes its detections.
func (p *PanSTARRSClient) Fetch(ctx context.Context, req archive.Request) archive.Result {
	objID, found, err := p.coneSearch(ctx, req.Query)
	if err != nil {
		p.debug("panstarrs cone search failed", "error", err)
		return archive.Failure(panstarrsName, err)
	}
	if !found {
		// Service reachable, no catalog object at this position.
		return archive.Result{Archive: panstarrsName, Status: domain.StatusSuccess}
	}

	rows, err := p.detections(ctx, objID)
	if err != nil {
		p.debug("panstarrs detection query failed", "error", err)
		return archive.Failure(panstarrsName, err)
	}

	result := archive.Result{Archive: panstarrsName, Status: domain.StatusSuccess}
	if len(rows) == 0 {
		return result
	}

	columns := columnIndex(rows[0])
	for _, row := range rows[1:] {
		obs, reason, ok := normalizePanSTARRSRow(columns, row)
		if !ok {
			result.Reject(reason)
			continue
		}
		if !req.Bands.Contains(obs.Band) {
			continue
		}
		result.Observations = append(result.Observations, obs)
	}

	if result.RejectionCount() > 0 {
		result.Status = domain.StatusPartial
	}
	p.debug("panstarrs fetch done", "objID", objID, "observations", len(result.Observations), "rejections", result.RejectionCount())
	return result
}

// coneSearch returns the object ID of the first mean-table match, if any.
func (p *PanSTARRSClient) coneSearch(ctx context.Context, query domain.ObjectQuery) (string, bool, error) {
	params := url.Values{}
	params.Set("ra", fmt.Sprintf("%.5f", query.RA))
	params.Set("dec", fmt.Sprintf("%.5f", query.Dec))
	params.Set("radius", fmt.Sprintf("%.6f", query.RadiusArcsec/3600.0))
	params.Set("nDetections.gt", "1")
	params.Set("columns", "objID,raMean,decMean,nDetections")

	rows, err := p.searchCSV(ctx, "mean", params)
	if err != nil {
		return "", false, err
	}
	if len(rows) < 2 {
		return "", false, nil
	}

	columns := columnIndex(rows[0])
	objID := field(columns, rows[1], "objid")
	if objID == "" {
		return "", false, fmt.Errorf("cone search response missing objID")
	}
	return objID, true, nil
}

// detections pulls every epoch measurement for one object ID.
func (p *PanSTARRSClient) detections(ctx context.Context, objID string) ([][]string, error) {
	params := url.Values{}
	params.Set("objID", objID)
	params.Set("columns", "objID,obsTime,filterID,psfFlux,psfFluxErr,infoFlag")
	return p.searchCSV(ctx, "detection", params)
}

func (p *PanSTARRSClient) searchCSV(ctx context.Context, table string, params url.Values) ([][]string, error) {
	queryURL := fmt.Sprintf("%s/%s/%s.csv?%s", p.baseURL, panstarrsRelease, table, params.Encode())
	body, err := fetchBody(ctx, p.client, queryURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode %s table csv: %w", table, err)
	}
	return rows, nil
}

// normalizePanSTARRSRow converts one detection row to a canonical
// observation, translating psfFlux (Jy) to an AB magnitude. Zero or negative
// flux cannot form a finite magnitude and is rejected.
func normalizePanSTARRSRow(columns map[string]int, row []string) (domain.Observation, archive.RejectReason, bool) {
	mjd, err := fieldFloat(columns, row, "obstime")
	if err != nil {
		return domain.Observation{}, archive.RejectBadTimestamp, false
	}

	band, ok := panstarrsBands[field(columns, row, "filterid")]
	if !ok {
		return domain.Observation{}, archive.RejectUnmappedBand, false
	}

	flux, err := fieldFloat(columns, row, "psfflux")
	if err != nil || flux <= 0 {
		return domain.Observation{}, archive.RejectNonFiniteMag, false
	}
	fluxErr, err := fieldFloat(columns, row, "psffluxerr")
	if err != nil || fluxErr < 0 {
		return domain.Observation{}, archive.RejectNonFiniteMag, false
	}

	mag := -2.5*math.Log10(flux) + abZeroPoint
	magErr := 2.5 / math.Ln10 * fluxErr / flux
	if math.IsNaN(mag) || math.IsInf(mag, 0) {
		return domain.Observation{}, archive.RejectNonFiniteMag, false
	}

	return domain.Observation{
		MJD:     mjd,
		Band:    band,
		Mag:     mag,
		MagErr:  magErr,
		Archive: panstarrsName,
		Valid:   true,
	}, "", true
}

func (p *PanSTARRSClient) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
