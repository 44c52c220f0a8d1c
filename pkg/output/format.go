// Package output provides utilities for formatting and displaying cabida results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders result in the named format.
func Write(w io.Writer, format string, cert cabida.CertificateData, result cabida.CalculationResult) error {
	switch format {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, cert, result)
	case constants.OutputFormatCSV:
		return CsvFormat(w, cert, result)
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// PrettyFormat outputs a human-readable rather than machine-readable summary.
func PrettyFormat(w io.Writer, cert cabida.CertificateData, result cabida.CalculationResult) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	parcel := cert.ParcelID
	if parcel == "" {
		parcel = "(no parcel id)"
	}
	fmt.Fprintf(&b, "--- Cabida for parcel %s ---\n", parcel)
	if cert.Address != "" || cert.Municipality != "" {
		fmt.Fprintf(&b, "Address               | %s, %s\n", cert.Address, cert.Municipality)
	}
	c := result.Constraints
	p.Fprintf(&b, "Parcel surface        | %.2f m² (%s)\n", result.TotalSurfaceM2, c.Sources.TotalSurface)
	p.Fprintf(&b, "Coefficient           | %.2f (%s)\n", c.Coefficient, c.Sources.Coefficient)
	p.Fprintf(&b, "Occupation            | %.1f%% (%s)\n", c.OccupationPercentage, c.Sources.Occupation)
	p.Fprintf(&b, "Max height            | %.1f m (%s)\n", result.MaxHeightM, c.Sources.Height)
	p.Fprintf(&b, "Max building surface  | %.2f m²\n", result.MaxBuildingSurfaceM2)
	p.Fprintf(&b, "Max occupation surface| %.2f m²\n", result.MaxOccupationSurfaceM2)
	p.Fprintf(&b, "Allowed floors        | %d\n", result.AllowedFloors)
	p.Fprintf(&b, "Max dwelling units    | %d\n", result.DwellingUnitsMax)
	p.Fprintf(&b, "Utilization           | %.1f%%\n", result.ConstructibilityUtilizationPercent)
	fmt.Fprintf(&b, "Status                | %s\n", result.ComplianceStatus)

	if len(result.RejectionReasons) > 0 {
		fmt.Fprintf(&b, "\nRejection reasons:\n")
		for _, reason := range result.RejectionReasons {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Fprintf(&b, "\nRecommendations:\n")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(&b, "  [%s] %s\n", rec.Category, rec.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// CsvFormat outputs the result as a single-row comma-separated table.
func CsvFormat(w io.Writer, cert cabida.CertificateData, result cabida.CalculationResult) error {
	_, err := io.WriteString(w, CsvString(cert, result))
	return err
}

// CsvString renders the CSV table into a string.
func CsvString(cert cabida.CertificateData, result cabida.CalculationResult) string {
	var b strings.Builder
	cw := csv.NewWriter(&b)
	_ = cw.Write([]string{
		"parcel_id", "total_surface_m2", "max_building_surface_m2", "max_occupation_surface_m2",
		"max_height_m", "allowed_floors", "dwelling_units_max", "utilization_percent",
		"compliance_status", "rejection_reasons",
	})
	_ = cw.Write([]string{
		cert.ParcelID,
		formatFloat(result.TotalSurfaceM2),
		formatFloat(result.MaxBuildingSurfaceM2),
		formatFloat(result.MaxOccupationSurfaceM2),
		formatFloat(result.MaxHeightM),
		strconv.Itoa(result.AllowedFloors),
		strconv.Itoa(result.DwellingUnitsMax),
		formatFloat(result.ConstructibilityUtilizationPercent),
		string(result.ComplianceStatus),
		strings.Join(result.RejectionReasons, "; "),
	})
	cw.Flush()
	return b.String()
}

// JSONFormat outputs the result as indented JSON.
func JSONFormat(w io.Writer, result cabida.CalculationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
