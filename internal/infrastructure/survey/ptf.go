package survey

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LCExtract/internal/archive"
	"LCExtract/internal/domain"
)

const (
	ptfName       = "PTF"
	ptfDefaultURL = "https://irsa.ipac.caltech.edu/cgi-bin/Gator/nph-query"
	ptfCatalog    = "ptf_lightcurves"
	ptfHTMLOutput = "0" // Gator outfmt code for an HTML table
)

// ptfBands maps the PTF filter ID onto canonical bands: 1 is g, 2 is the
// Mould R filter.
var ptfBands = map[string]domain.Band{
	"1": domain.BandG,
	"2": domain.BandMouldR,
}

// PTFClient queries the Palomar Transient Factory lightcurve catalog through
// the IRSA Gator service, requesting the HTML table output and extracting
// rows from it.
//
// Ref. https://irsa.ipac.caltech.edu/applications/Gator/GatorAid/irsa/catsearch.html
type PTFClient struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ archive.Archive = (*PTFClient)(nil)

// NewPTFClient wires an HTTP client; baseURL defaults to the Gator endpoint.
func NewPTFClient(client *http.Client, baseURL string, logger *slog.Logger) *PTFClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = ptfDefaultURL
	}
	return &PTFClient{client: client, baseURL: baseURL, logger: logger}
}

// Name identifies the archive inside the registry.
func (p *PTFClient) Name() string { return ptfName }

// Bands lists the filters PTF can ever supply.
func (p *PTFClient) Bands() []domain.Band {
	return []domain.Band{domain.BandG, domain.BandMouldR}
}

// Fetch performs the Gator cone search and normalizes the HTML table.
func (p *PTFClient) Fetch(ctx context.Context, req archive.Request) archive.Result {
	params := url.Values{}
	params.Set("catalog", ptfCatalog)
	params.Set("spatial", "cone")
	params.Set("objstr", fmt.Sprintf("%.5f %.5f", req.Query.RA, req.Query.Dec))
	params.Set("radius", fmt.Sprintf("%.2f", req.Query.RadiusArcsec))
	params.Set("radunits", "arcsec")
	params.Set("outfmt", ptfHTMLOutput)

	body, err := fetchBody(ctx, p.client, p.baseURL+"?"+params.Encode())
	if err != nil {
		p.debug("ptf request failed", "error", err)
		return archive.Failure(ptfName, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return archive.Failure(ptfName, fmt.Errorf("parse gator table: %w", err))
	}

	result := archive.Result{Archive: ptfName, Status: domain.StatusSuccess}

	columns := map[string]int{}
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		headers := tr.Find("th")
		if headers.Length() > 0 {
			headers.Each(func(i int, th *goquery.Selection) {
				columns[strings.ToLower(strings.TrimSpace(th.Text()))] = i
			})
			return
		}
		if len(columns) == 0 {
			// Data before any header row: schema we do not understand.
			return
		}

		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, cells.Length())
		cells.Each(func(i int, td *goquery.Selection) {
			row[i] = strings.TrimSpace(td.Text())
		})

		obs, reason, ok := normalizePTFRow(columns, row)
		if !ok {
			result.Reject(reason)
			return
		}
		if !req.Bands.Contains(obs.Band) {
			return
		}
		result.Observations = append(result.Observations, obs)
	})

	if result.RejectionCount() > 0 {
		result.Status = domain.StatusPartial
	}
	p.debug("ptf fetch done", "observations", len(result.Observations), "rejections", result.RejectionCount())
	return result
}

// normalizePTFRow converts one Gator table row to a canonical observation.
func normalizePTFRow(columns map[string]int, row []string) (domain.Observation, archive.RejectReason, bool) {
	mjd, err := fieldFloat(columns, row, "obsmjd")
	if err != nil {
		return domain.Observation{}, archive.RejectBadTimestamp, false
	}

	band, ok := ptfBands[field(columns, row, "fid")]
	if !ok {
		return domain.Observation{}, archive.RejectUnmappedBand, false
	}

	mag, err := fieldFloat(columns, row, "mag_autocorr")
	if err != nil || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return domain.Observation{}, archive.RejectNonFiniteMag, false
	}
	magErr, err := fieldFloat(columns, row, "magerr_auto")
	if err != nil || magErr < 0 {
		return domain.Observation{}, archive.RejectNonFiniteMag, false
	}

	return domain.Observation{
		MJD:     mjd,
		Band:    band,
		Mag:     mag,
		MagErr:  magErr,
		Archive: ptfName,
		Valid:   true,
	}, "", true
}

func (p *PTFClient) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
