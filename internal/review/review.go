// Package review grades a cabida request: it checks the certificate, runs the
// calculation and turns the outcome into a scored compliance report.
package review

import (
	"fmt"

	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/pkg/constants"
	"go.uber.org/zap"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a single problem or notice attached to a field.
type Finding struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Summary condenses the report into headline numbers.
type Summary struct {
	Status                             cabida.Status `json:"status"`
	Score                              int           `json:"score"`
	TotalErrors                        int           `json:"totalErrors"`
	TotalWarnings                      int           `json:"totalWarnings"`
	MaxBuildingSurfaceM2               float64       `json:"maxBuildingSurfaceM2"`
	DwellingUnitsMax                   int           `json:"dwellingUnitsMax"`
	ConstructibilityUtilizationPercent float64       `json:"constructibilityUtilizationPercent"`
}

// Report is the outcome of a review. Result is nil when the certificate
// checks failed and no calculation was run.
type Report struct {
	IsValid         bool                      `json:"isValid"`
	Score           int                       `json:"score"`
	Errors          []Finding                 `json:"errors"`
	Warnings        []Finding                 `json:"warnings"`
	Recommendations []string                  `json:"recommendations"`
	Summary         Summary                   `json:"summary"`
	Result          *cabida.CalculationResult `json:"result,omitempty"`
}

// Reviewer produces reports using a shared calculator.
type Reviewer struct {
	logger *zap.Logger
	calc   *cabida.Calculator
}

// New returns a Reviewer backed by calc.
func New(logger *zap.Logger, calc *cabida.Calculator) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{logger: logger, calc: calc}
}

// Review checks the certificate and, when it has no blocking errors, runs the
// calculation and grades the result. Calculation errors other than a
// rejection verdict are returned as-is.
func (r *Reviewer) Review(cert cabida.CertificateData, params cabida.RequestParameters) (Report, error) {
	errs, warnings := CheckCertificate(cert, params, r.calc.Regulation())
	if len(errs) > 0 {
		r.logger.Debug("review stopped at certificate checks",
			zap.String("op", "review.Review"),
			zap.String("parcel", cert.ParcelID),
			zap.Int("errors", len(errs)),
		)
		return Report{
			IsValid:         false,
			Score:           0,
			Errors:          errs,
			Warnings:        warnings,
			Recommendations: []string{"Fix the critical errors before continuing"},
			Summary: Summary{
				Status:        cabida.StatusRejected,
				TotalErrors:   len(errs),
				TotalWarnings: len(warnings),
			},
		}, nil
	}

	result, err := r.calc.Calculate(cert, params)
	if err != nil {
		return Report{}, err
	}

	for _, reason := range result.RejectionReasons {
		errs = append(errs, Finding{Field: "compliance", Message: reason, Severity: SeverityError})
	}
	warnings = append(warnings, resultWarnings(result, params)...)

	score := Score(errs, warnings, result.ConstructibilityUtilizationPercent)
	report := Report{
		IsValid:         len(errs) == 0,
		Score:           score,
		Errors:          nonNil(errs),
		Warnings:        nonNil(warnings),
		Recommendations: recommendations(result),
		Summary: Summary{
			Status:                             result.ComplianceStatus,
			Score:                              score,
			TotalErrors:                        len(errs),
			TotalWarnings:                      len(warnings),
			MaxBuildingSurfaceM2:               result.MaxBuildingSurfaceM2,
			DwellingUnitsMax:                   result.DwellingUnitsMax,
			ConstructibilityUtilizationPercent: result.ConstructibilityUtilizationPercent,
		},
		Result: &result,
	}

	r.logger.Debug("review completed",
		zap.String("op", "review.Review"),
		zap.String("parcel", cert.ParcelID),
		zap.Int("score", score),
		zap.Bool("valid", report.IsValid),
	)
	return report, nil
}

// CheckCertificate validates the certificate fields the calculation depends
// on. Error findings block the calculation; warnings do not.
func CheckCertificate(cert cabida.CertificateData, params cabida.RequestParameters, reg cabida.Regulation) (errs, warnings []Finding) {
	surface := cert.TotalSurfaceM2
	if surface == nil || *surface <= 0 {
		surface = params.SurfaceOverride
	}
	switch {
	case surface == nil || *surface <= 0:
		errs = append(errs, Finding{
			Field:    "totalSurfaceM2",
			Message:  "parcel surface could not be read from the certificate",
			Severity: SeverityError,
		})
	case *surface < reg.LegalMinimumDwellingAreaM2:
		errs = append(errs, Finding{
			Field: "totalSurfaceM2",
			Message: fmt.Sprintf("parcel surface (%.1f m²) is below the legal minimum (%.0f m²)",
				*surface, reg.LegalMinimumDwellingAreaM2),
			Severity: SeverityError,
		})
	}

	if cert.ParcelID == "" {
		warnings = append(warnings, Finding{
			Field:    "parcelId",
			Message:  "parcel id could not be read from the certificate",
			Severity: SeverityWarning,
		})
	}
	if cert.Municipality == "" {
		warnings = append(warnings, Finding{
			Field:    "municipality",
			Message:  "municipality could not be read from the certificate",
			Severity: SeverityWarning,
		})
	}
	return errs, warnings
}

func resultWarnings(result cabida.CalculationResult, params cabida.RequestParameters) []Finding {
	var warnings []Finding
	util := result.ConstructibilityUtilizationPercent

	if util < constants.PoorUtilizationPercent {
		warnings = append(warnings, Finding{
			Field:    "optimization",
			Message:  fmt.Sprintf("low use of the constructibility coefficient (%.1f%%)", util),
			Severity: SeverityWarning,
		})
	}
	if result.AllowedFloors < params.RequestedFloors {
		warnings = append(warnings, Finding{
			Field:    "height",
			Message:  fmt.Sprintf("only %d floors are allowed (%d requested)", result.AllowedFloors, params.RequestedFloors),
			Severity: SeverityWarning,
		})
	}
	if result.Constraints.Sources.Coefficient == cabida.SourceZoneDefault {
		warnings = append(warnings, Finding{
			Field:    "constructibility",
			Message:  fmt.Sprintf("using the zone default constructibility coefficient (%.2f)", result.Constraints.Coefficient),
			Severity: SeverityInfo,
		})
	}
	return warnings
}

// Score grades a review from 0 to 100. Any error scores zero.
func Score(errs, warnings []Finding, utilizationPercent float64) int {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return 0
		}
	}

	score := constants.MaxReviewScore - len(warnings)*constants.ReviewWarningPenalty
	switch {
	case utilizationPercent < constants.PoorUtilizationPercent:
		score -= constants.ReviewPoorUtilizationPenalty
	case utilizationPercent < constants.LowUtilizationPercent:
		score -= constants.ReviewLowUtilizationPenalty
	}
	return max(0, score)
}

func recommendations(result cabida.CalculationResult) []string {
	if !result.Approved() {
		return []string{
			"The project does not meet the zoning rules",
			"Review the rejection reasons",
			"Adjust the request and validate again",
		}
	}

	recs := []string{
		"The project meets the basic zoning rules",
		fmt.Sprintf("Maximum buildable surface: %.1f m²", result.MaxBuildingSurfaceM2),
		fmt.Sprintf("Maximum dwelling units: %d", result.DwellingUnitsMax),
	}
	if result.ConstructibilityUtilizationPercent < constants.LowUtilizationPercent {
		recs = append(recs, "Consider making better use of the constructibility coefficient")
	}
	return recs
}

func nonNil(f []Finding) []Finding {
	if f == nil {
		return []Finding{}
	}
	return f
}
