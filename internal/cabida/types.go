// Package cabida computes the buildable capacity of a parcel under zoning
// rules and decides whether a requested project complies.
package cabida

import (
	"fmt"
	"math"

	"github.com/iwvelando/cabida/internal/zoning"
	"github.com/iwvelando/cabida/pkg/constants"
)

// CertificateData is the record extracted from a land-title certificate.
// Nil values were not found on the document.
type CertificateData struct {
	ParcelID                      string   `json:"parcelId"`
	TotalSurfaceM2                *float64 `json:"totalSurfaceM2,omitempty"`
	Municipality                  string   `json:"municipality"`
	Address                       string   `json:"address"`
	CertifiedHeightLimit          *float64 `json:"certifiedHeightLimit,omitempty"`
	CertifiedCoefficient          *float64 `json:"certifiedCoefficient,omitempty"`
	CertifiedOccupationPercentage *float64 `json:"certifiedOccupationPercentage,omitempty"`
}

// RequestParameters is the user's request. Overrides allow calculations
// without a certificate.
type RequestParameters struct {
	RequestedFloors     int             `json:"requestedFloors"`
	ZoneType            zoning.ZoneType `json:"zoneType"`
	MinDwellingAreaM2   float64         `json:"minDwellingAreaM2"`
	MaxHeightOverride   *float64        `json:"maxHeightOverride,omitempty"`
	CoefficientOverride *float64        `json:"coefficientOverride,omitempty"`
	OccupationOverride  *float64        `json:"occupationOverride,omitempty"`
	SurfaceOverride     *float64        `json:"surfaceOverride,omitempty"`
}

// Validate checks the parameters are inside their input domain.
func (p RequestParameters) Validate() error {
	if p.RequestedFloors < constants.MinimumRequestedFloors {
		return &InvalidParameterError{
			Field:  "requestedFloors",
			Reason: fmt.Sprintf("must be at least %d, got %d", constants.MinimumRequestedFloors, p.RequestedFloors),
		}
	}
	if math.IsNaN(p.MinDwellingAreaM2) || p.MinDwellingAreaM2 < constants.MinimumRequestDwellingAreaM2 {
		return &InvalidParameterError{
			Field:  "minDwellingAreaM2",
			Reason: fmt.Sprintf("must be at least %.0f m², got %v", constants.MinimumRequestDwellingAreaM2, p.MinDwellingAreaM2),
		}
	}
	return nil
}

// Source names where an effective constraint came from.
type Source string

const (
	SourceOverride    Source = "override"
	SourceCertificate Source = "certificate"
	SourceZoneDefault Source = "zone-default"
)

// ConstraintSources records the provenance of each effective constraint.
type ConstraintSources struct {
	TotalSurface Source `json:"totalSurface"`
	Height       Source `json:"height"`
	Coefficient  Source `json:"coefficient"`
	Occupation   Source `json:"occupation"`
}

// EffectiveConstraints is the resolved constraint set. Every value is a
// finite positive number.
type EffectiveConstraints struct {
	TotalSurfaceM2       float64           `json:"totalSurfaceM2"`
	HeightLimitM         float64           `json:"heightLimitM"`
	Coefficient          float64           `json:"coefficient"`
	OccupationPercentage float64           `json:"occupationPercentage"`
	Sources              ConstraintSources `json:"sources"`
}

// RawFigures are the capacity numbers before policy is applied.
type RawFigures struct {
	MaxOccupationSurfaceM2             float64
	MaxBuildingSurfaceM2               float64
	SurfaceFloors                      int
	HeightFloors                       int
	AllowedFloors                      int
	DwellingUnitsMax                   int
	ConstructibilityUtilizationPercent float64
}

// Status is the compliance verdict.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Category tags a recommendation for presentation.
type Category string

const (
	CategoryApproval      Category = "approval"
	CategoryCaution       Category = "caution"
	CategoryInformational Category = "informational"
	CategoryDwelling      Category = "dwelling"
)

// Recommendation is one advisory message.
type Recommendation struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// CalculationResult is the outcome of one calculation. It is built once and
// must not be modified; slices are shared with every copy.
type CalculationResult struct {
	TotalSurfaceM2                     float64              `json:"totalSurfaceM2"`
	MaxBuildingSurfaceM2               float64              `json:"maxBuildingSurfaceM2"`
	MaxOccupationSurfaceM2             float64              `json:"maxOccupationSurfaceM2"`
	MaxHeightM                         float64              `json:"maxHeightM"`
	AllowedFloors                      int                  `json:"allowedFloors"`
	DwellingUnitsMax                   int                  `json:"dwellingUnitsMax"`
	ConstructibilityUtilizationPercent float64              `json:"constructibilityUtilizationPercent"`
	ComplianceStatus                   Status               `json:"complianceStatus"`
	RejectionReasons                   []string             `json:"rejectionReasons"`
	Recommendations                    []Recommendation     `json:"recommendations"`
	Constraints                        EffectiveConstraints `json:"constraints"`
}

// Approved reports whether the verdict is APPROVED.
func (r CalculationResult) Approved() bool {
	return r.ComplianceStatus == StatusApproved
}

// Regulation carries the regulatory constants that are not per zone.
type Regulation struct {
	AssumedFloorHeightM        float64 `json:"assumedFloorHeightM" yaml:"assumedFloorHeightM"`
	LegalMinimumDwellingAreaM2 float64 `json:"legalMinimumDwellingAreaM2" yaml:"legalMinimumDwellingAreaM2"`
}

// DefaultRegulation returns the constants in force by default.
func DefaultRegulation() Regulation {
	return Regulation{
		AssumedFloorHeightM:        constants.DefaultAssumedFloorHeightM,
		LegalMinimumDwellingAreaM2: constants.DefaultLegalMinimumDwellingAreaM2,
	}
}

// WithDefaults fills unset fields from DefaultRegulation.
func (r Regulation) WithDefaults() Regulation {
	d := DefaultRegulation()
	if r.AssumedFloorHeightM == 0 {
		r.AssumedFloorHeightM = d.AssumedFloorHeightM
	}
	if r.LegalMinimumDwellingAreaM2 == 0 {
		r.LegalMinimumDwellingAreaM2 = d.LegalMinimumDwellingAreaM2
	}
	return r
}

// Validate checks both constants are positive.
func (r Regulation) Validate() error {
	if !usable(r.AssumedFloorHeightM) {
		return fmt.Errorf("assumed floor height must be positive, got %v", r.AssumedFloorHeightM)
	}
	if !usable(r.LegalMinimumDwellingAreaM2) {
		return fmt.Errorf("legal minimum dwelling area must be positive, got %v", r.LegalMinimumDwellingAreaM2)
	}
	return nil
}
