package integration

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/internal/config"
	"github.com/iwvelando/cabida/internal/history"
	"github.com/iwvelando/cabida/internal/review"
	"github.com/iwvelando/cabida/internal/server"
	"github.com/iwvelando/cabida/pkg/output"
	"github.com/iwvelando/cabida/pkg/testutil"
	"go.uber.org/zap"
)

const fixturePath = "../test_cabida.yaml"

func loadFixture(t *testing.T) (*config.Configuration, *cabida.Calculator) {
	t.Helper()
	conf, err := config.LoadConfiguration(fixturePath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	zones, err := conf.ZoneTable()
	if err != nil {
		t.Fatalf("ZoneTable() error = %v", err)
	}
	calc, err := cabida.NewCalculator(zap.NewNop(), zones, conf.Regulation)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	return conf, calc
}

// TestFixtureBaseline runs the fixture exactly as the CLI does and checks the
// known figures for a 500 m² residential parcel.
func TestFixtureBaseline(t *testing.T) {
	conf, calc := loadFixture(t)
	cert, params := conf.Request()

	result, err := calc.Calculate(cert, params)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	checks := []struct {
		name     string
		actual   float64
		expected float64
	}{
		{"TotalSurfaceM2", result.TotalSurfaceM2, 500},
		{"MaxOccupationSurfaceM2", result.MaxOccupationSurfaceM2, 300},
		{"MaxBuildingSurfaceM2", result.MaxBuildingSurfaceM2, 1000},
		{"MaxHeightM", result.MaxHeightM, 23},
		{"AllowedFloors", float64(result.AllowedFloors), 3},
		{"DwellingUnitsMax", float64(result.DwellingUnitsMax), 25},
		{"ConstructibilityUtilizationPercent", result.ConstructibilityUtilizationPercent, 90},
	}
	for _, check := range checks {
		if check.actual != check.expected {
			t.Errorf("%s = %v, expected %v", check.name, check.actual, check.expected)
		}
	}

	if !result.Approved() {
		t.Errorf("expected APPROVED, got %s with %v", result.ComplianceStatus, result.RejectionReasons)
	}
	if result.Constraints.Sources.Height != cabida.SourceCertificate {
		t.Errorf("height source = %s, expected certificate", result.Constraints.Sources.Height)
	}
	if testutil.FindRecommendation(result.Recommendations, cabida.CategoryApproval) == nil {
		t.Error("expected an approval recommendation")
	}
	if n := testutil.CountRecommendations(result.Recommendations, cabida.CategoryCaution); n != 0 {
		t.Errorf("expected no cautions, got %d", n)
	}
}

func TestFixtureOutputs(t *testing.T) {
	conf, calc := loadFixture(t)
	cert, params := conf.Request()
	result, err := calc.Calculate(cert, params)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	var pretty bytes.Buffer
	if err := output.Write(&pretty, conf.Output.Format, cert, result); err != nil {
		t.Fatalf("Write(pretty) error = %v", err)
	}
	for _, want := range []string{"--- Cabida for parcel 123-45 ---", "Status                | APPROVED", "1,000.00 m²"} {
		if !strings.Contains(pretty.String(), want) {
			t.Errorf("pretty output missing %q", want)
		}
	}

	var csvOut bytes.Buffer
	if err := output.Write(&csvOut, "csv", cert, result); err != nil {
		t.Fatalf("Write(csv) error = %v", err)
	}
	records, err := csv.NewReader(&csvOut).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 2 || records[1][0] != "123-45" || records[1][8] != "APPROVED" {
		t.Errorf("unexpected CSV records %v", records)
	}
}

func TestFixtureReview(t *testing.T) {
	conf, calc := loadFixture(t)
	cert, params := conf.Request()

	report, err := review.New(zap.NewNop(), calc).Review(cert, params)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	// only finding: coefficient taken from the zone default
	if !report.IsValid || report.Score != 90 {
		t.Errorf("report valid=%v score=%d, expected valid with 90", report.IsValid, report.Score)
	}
}

// TestServerEndToEnd drives a real HTTP server backed by SQLite history.
func TestServerEndToEnd(t *testing.T) {
	conf, calc := loadFixture(t)
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	handler, err := server.NewHandler(server.Options{
		Logger:     zap.NewNop(),
		Calculator: calc,
		History:    store,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	body, err := json.Marshal(map[string]interface{}{
		"certificate": conf.Certificate,
		"parameters":  conf.Parameters,
	})
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}

	var ids []string
	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/api/v1/calculate/cabida", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		var result cabida.CalculationResult
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK || decodeErr != nil {
			t.Fatalf("POST status = %d, decode error = %v", resp.StatusCode, decodeErr)
		}
		if result.AllowedFloors != 3 {
			t.Errorf("allowedFloors = %d, expected 3", result.AllowedFloors)
		}
		ids = append(ids, resp.Header.Get("X-Calculation-ID"))
	}
	if ids[0] == "" || ids[0] != ids[1] {
		t.Errorf("expected the repeat to be served from history, ids %v", ids)
	}

	resp, err := http.Get(srv.URL + "/api/v1/calculations/" + ids[0])
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	var rec history.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if rec.Certificate.ParcelID != "123-45" {
		t.Errorf("ParcelID = %q, expected 123-45", rec.Certificate.ParcelID)
	}
}
