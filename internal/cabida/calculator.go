package cabida

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iwvelando/cabida/internal/zoning"
	"go.uber.org/zap"
)

// Calculator runs cabida calculations against a fixed zone table and
// regulation. It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	logger      *zap.Logger
	zones       *zoning.Table
	regulation  Regulation
	fingerprint string
}

// NewCalculator validates the regulation and returns a Calculator. A nil
// table uses the regulatory defaults.
func NewCalculator(logger *zap.Logger, zones *zoning.Table, reg Regulation) (*Calculator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if zones == nil {
		zones = zoning.Default()
	}
	reg = reg.WithDefaults()
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid regulation: %w", err)
	}
	fingerprint, err := rulesFingerprint(zones, reg)
	if err != nil {
		return nil, err
	}
	return &Calculator{logger: logger, zones: zones, regulation: reg, fingerprint: fingerprint}, nil
}

// Fingerprint identifies the zone rules and regulation in use. Calculators
// built from the same rules share a fingerprint.
func (c *Calculator) Fingerprint() string {
	return c.fingerprint
}

func rulesFingerprint(zones *zoning.Table, reg Regulation) (string, error) {
	data, err := json.Marshal(struct {
		Zones      map[zoning.ZoneType]zoning.Rule `json:"zones"`
		Regulation Regulation                      `json:"regulation"`
	}{zones.All(), reg})
	if err != nil {
		return "", fmt.Errorf("fingerprint rules: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Zones returns the zone table in use.
func (c *Calculator) Zones() *zoning.Table {
	return c.zones
}

// Regulation returns the regulation constants in use.
func (c *Calculator) Regulation() Regulation {
	return c.regulation
}

// Calculate resolves constraints, computes capacity, evaluates compliance and
// builds recommendations for one request.
func (c *Calculator) Calculate(cert CertificateData, params RequestParameters) (CalculationResult, error) {
	if err := params.Validate(); err != nil {
		return CalculationResult{}, err
	}

	zone, err := zoning.ParseZoneType(string(params.ZoneType))
	if err != nil {
		return CalculationResult{}, err
	}
	params.ZoneType = zone

	rule, err := c.zones.Lookup(zone)
	if err != nil {
		return CalculationResult{}, err
	}

	constraints, err := Resolve(cert, params, rule)
	if err != nil {
		return CalculationResult{}, err
	}

	raw, err := ComputeCapacity(constraints, params.RequestedFloors, params.MinDwellingAreaM2, c.regulation)
	if err != nil {
		log := c.logger.Error
		var invalid *InvalidParameterError
		if errors.As(err, &invalid) {
			log = c.logger.Warn
		}
		log("capacity computation failed",
			zap.String("op", "cabida.Calculate"),
			zap.String("parcel", cert.ParcelID),
			zap.Error(err),
		)
		return CalculationResult{}, err
	}

	status, reasons := Evaluate(raw, params, c.regulation)
	recs := Recommend(raw, params, constraints, rule, c.regulation)

	c.logger.Debug("cabida calculated",
		zap.String("op", "cabida.Calculate"),
		zap.String("parcel", cert.ParcelID),
		zap.String("zone", zone.String()),
		zap.Int("allowedFloors", raw.AllowedFloors),
		zap.String("status", string(status)),
	)

	return CalculationResult{
		TotalSurfaceM2:                     constraints.TotalSurfaceM2,
		MaxBuildingSurfaceM2:               raw.MaxBuildingSurfaceM2,
		MaxOccupationSurfaceM2:             raw.MaxOccupationSurfaceM2,
		MaxHeightM:                         constraints.HeightLimitM,
		AllowedFloors:                      raw.AllowedFloors,
		DwellingUnitsMax:                   raw.DwellingUnitsMax,
		ConstructibilityUtilizationPercent: raw.ConstructibilityUtilizationPercent,
		ComplianceStatus:                   status,
		RejectionReasons:                   reasons,
		Recommendations:                    recs,
		Constraints:                        constraints,
	}, nil
}
