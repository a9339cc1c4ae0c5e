package survey

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"LCExtract/internal/archive"
	"LCExtract/internal/domain"
)

const ptfFixtureHTML = `<html><body>
<table>
  <tr>
    <th>obsmjd</th><th>mag_autocorr</th><th>magerr_auto</th><th>fid</th>
  </tr>
  <tr>
    <td>55200.1</td><td>18.5</td><td>0.04</td><td>2</td>
  </tr>
  <tr>
    <td>55201.2</td><td>18.7</td><td>0.05</td><td>2</td>
  </tr>
  <tr>
    <td>55202.3</td><td>19.1</td><td>0.06</td><td>1</td>
  </tr>
  <tr>
    <td>55203.4</td><td>bad</td><td>0.04</td><td>2</td>
  </tr>
  <tr>
    <td>55204.5</td><td>18.6</td><td>0.04</td><td>7</td>
  </tr>
</table>
</body></html>`

func TestPTFFetchParsesGatorTable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if catalog := r.URL.Query().Get("catalog"); catalog != "ptf_lightcurves" {
			t.Errorf("unexpected catalog %q", catalog)
		}
		w.Write([]byte(ptfFixtureHTML))
	}))
	defer server.Close()

	client := NewPTFClient(server.Client(), server.URL, nil)
	result := client.Fetch(context.Background(), archive.Request{
		Query: testQuery(),
		Bands: domain.FilterSet{domain.BandG, domain.BandMouldR},
	})

	if result.Status != domain.StatusPartial {
		t.Fatalf("expected partial status, got %q", result.Status)
	}
	if len(result.Observations) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(result.Observations))
	}

	first := result.Observations[0]
	if first.Band != domain.BandMouldR || first.MJD != 55200.1 || first.Mag != 18.5 {
		t.Fatalf("unexpected first observation %+v", first)
	}
	if first.Archive != "PTF" {
		t.Fatalf("unexpected archive %q", first.Archive)
	}

	if result.Rejections[archive.RejectNonFiniteMag] != 1 {
		t.Fatalf("bad magnitude row must be rejected, got %+v", result.Rejections)
	}
	if result.Rejections[archive.RejectUnmappedBand] != 1 {
		t.Fatalf("fid 7 must be rejected as unmapped, got %+v", result.Rejections)
	}
}

func TestPTFFetchBandNarrowing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(ptfFixtureHTML))
	}))
	defer server.Close()

	client := NewPTFClient(server.Client(), server.URL, nil)
	result := client.Fetch(context.Background(), archive.Request{
		Query: testQuery(),
		Bands: domain.FilterSet{domain.BandG},
	})

	for _, obs := range result.Observations {
		if obs.Band != domain.BandG {
			t.Fatalf("unrequested band leaked through: %+v", obs)
		}
	}
	if len(result.Observations) != 1 {
		t.Fatalf("expected 1 g observation, got %d", len(result.Observations))
	}
}

func TestPTFFetchEmptyTable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>No matches found.</p></body></html>"))
	}))
	defer server.Close()

	client := NewPTFClient(server.Client(), server.URL, nil)
	result := client.Fetch(context.Background(), archive.Request{
		Query: testQuery(),
		Bands: domain.FilterSet{domain.BandG},
	})

	if result.Status != domain.StatusSuccess || len(result.Observations) != 0 {
		t.Fatalf("empty table is success with zero observations, got %+v", result)
	}
}
