package survey

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"LCExtract/internal/archive"
	"LCExtract/internal/domain"
)

const (
	ztfName        = "ZTF"
	ztfDefaultURL  = "https://irsa.ipac.caltech.edu/cgi-bin/ZTF"
	ztfQueryPart   = "nph_light_curves"
	ztfCatflagMask = "32768"
)

// ztfBandCodes maps IRSA filter codes to canonical bands.
var ztfBandCodes = map[string]domain.Band{
	"zg": domain.BandG,
	"zr": domain.BandR,
	"zi": domain.BandI,
}

// ZTFClient queries the Zwicky Transient Facility lightcurve service at
// IRSA. The service answers a cone search with a CSV table of individual
// epochs.
//
// Ref. https://irsa.ipac.caltech.edu/docs/program_interface/ztf_lightcurve_api.html
type ZTFClient struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ archive.Archive = (*ZTFClient)(nil)

// NewZTFClient wires an HTTP client; baseURL defaults to the IRSA endpoint.
func NewZTFClient(client *http.Client, baseURL string, logger *slog.Logger) *ZTFClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = ztfDefaultURL
	}
	return &ZTFClient{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// Name identifies the archive inside the registry.
func (z *ZTFClient) Name() string { return ztfName }

// Bands lists the filters ZTF can ever supply.
func (z *ZTFClient) Bands() []domain.Band {
	return []domain.Band{domain.BandG, domain.BandR, domain.BandI}
}

// Fetch performs the cone search and normalizes the CSV payload. All
// network and schema failures are absorbed into the result status.
func (z *ZTFClient) Fetch(ctx context.Context, req archive.Request) archive.Result {
	bandNames := make([]string, 0, len(req.Bands))
	for _, b := range req.Bands {
		bandNames = append(bandNames, string(b))
	}

	params := url.Values{}
	params.Set("POS", fmt.Sprintf("CIRCLE %.5f %.5f %.5f", req.Query.RA, req.Query.Dec, req.Query.RadiusArcsec/3600.0))
	params.Set("BANDNAME", strings.Join(bandNames, ","))
	params.Set("FORMAT", "CSV")
	params.Set("BAD_CATFLAGS_MASK", ztfCatflagMask)
	// IRSA expects percent-encoded spaces inside POS, not '+'.
	queryURL := z.baseURL + "/" + ztfQueryPart + "?" + strings.ReplaceAll(params.Encode(), "+", "%20")

	body, err := fetchBody(ctx, z.client, queryURL)
	if err != nil {
		z.debug("ztf request failed", "error", err)
		return archive.Failure(ztfName, err)
	}
	defer body.Close()

	result := archive.Result{Archive: ztfName, Status: domain.StatusSuccess}

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return archive.Failure(ztfName, fmt.Errorf("decode csv: %w", err))
	}
	if len(rows) == 0 {
		// Reachable service, object absent: success with zero observations.
		return result
	}

	columns := columnIndex(rows[0])
	for _, row := range rows[1:] {
		obs, reason, ok := normalizeZTFRow(columns, row)
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
	z.debug("ztf fetch done", "observations", len(result.Observations), "rejections", result.RejectionCount())
	return result
}

// normalizeZTFRow is the pure per-record normalizer for ZTF CSV rows.
func normalizeZTFRow(columns map[string]int, row []string) (domain.Observation, archive.RejectReason, bool) {
	mjd, err := fieldFloat(columns, row, "mjd")
	if err != nil {
		return domain.Observation{}, archive.RejectBadTimestamp, false
	}

	code := field(columns, row, "filtercode")
	band, ok := ztfBandCodes[code]
	if !ok {
		return domain.Observation{}, archive.RejectUnmappedBand, false
	}

	mag, err := fieldFloat(columns, row, "mag")
	if err != nil || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return domain.Observation{}, archive.RejectNonFiniteMag, false
	}
	magErr, err := fieldFloat(columns, row, "magerr")
	if err != nil || magErr < 0 {
		return domain.Observation{}, archive.RejectNonFiniteMag, false
	}

	// Server already masks bad catflags; reject any stragglers client-side.
	if flags := field(columns, row, "catflags"); flags != "" && flags != "0" {
		if v, err := strconv.ParseInt(flags, 10, 64); err != nil || v != 0 {
			return domain.Observation{}, archive.RejectQualityFlag, false
		}
	}

	return domain.Observation{
		MJD:     mjd,
		Band:    band,
		Mag:     mag,
		MagErr:  magErr,
		Archive: ztfName,
		Valid:   true,
	}, "", true
}

func (z *ZTFClient) debug(msg string, args ...any) {
	if z.logger != nil {
		z.logger.Debug(msg, args...)
	}
}
